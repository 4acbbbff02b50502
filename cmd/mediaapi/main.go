// Command mediaapi serves the registration, login and posts API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"

	auth "github.com/goliatone/go-mediaauth"
	"github.com/goliatone/go-mediaauth/activitymap"
	"github.com/goliatone/go-mediaauth/config"
	"github.com/goliatone/go-mediaauth/metrics"
	"github.com/goliatone/go-mediaauth/posts"
)

func main() {
	configPath := flag.String("config", "", "optional YAML configuration file")
	flag.Parse()

	var opts []config.Option
	if *configPath != "" {
		opts = append(opts, config.WithFile(*configPath))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		log.Fatal(err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := newLogger(cfg)
	if cfg.Debug {
		fmt.Println(print.MaybePrettyJSON(cfg.Redacted()))
	}

	ctx := context.Background()
	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.db.Close()

	go func() {
		if err := app.srv.Serve(cfg.HTTPAddress); err != nil {
			logger.Error("http server stopped", "error", err)
		}
	}()

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           app.metricsHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	logger.Info("mediaapi started", "http", cfg.HTTPAddress, "metrics", cfg.MetricsAddress, "state", cfg.EnvState)

	sig := WaitExitSignal()
	logger.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown", "error", err)
	}
}

type App struct {
	db             *database
	srv            router.Server[*fiber.App]
	metricsHandler http.Handler
}

func newApp(ctx context.Context, cfg *config.BaseConfig, logger *slog.Logger) (*App, error) {
	store, err := openDatabase(ctx, cfg.GetPersistence(), logger)
	if err != nil {
		return nil, err
	}
	db := store.db

	repo := auth.NewRepositoryManager(db, auth.WithHashidUserIDs())
	repo.MustValidate()

	signing, err := auth.SigningContextFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	authLogger := auth.NewSlogLogger(logger)

	tokens := auth.NewTokenService(signing,
		auth.WithAccessTokenTTL(time.Duration(cfg.GetAccessTokenTTL())*time.Minute),
		auth.WithConfirmationTokenTTL(time.Duration(cfg.GetConfirmationTokenTTL())*time.Minute),
		auth.WithTokenLogger(authLogger),
	)

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}

	auther := auth.NewAuthenticator(repo.Users(), tokens).
		WithLogger(authLogger).
		WithActivitySink(activitymap.Fanout(collector, activitymap.LogSink(authLogger))).
		WithPasswordHasher(auth.NewPasswordHasher(auth.WithPasswordCost(cfg.GetPasswordCost())))

	if prev := cfg.GetPreviousSigningKey(); prev != "" {
		previous, err := auth.NewSigningContext(prev, cfg.GetSigningMethod())
		if err != nil {
			return nil, err
		}
		auther.WithTokenValidator(auth.NewMultiTokenValidator(
			tokens,
			auth.NewTokenService(previous, auth.WithTokenLogger(authLogger)),
		))
	}

	httpAuth, err := auth.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		return nil, err
	}
	httpAuth.WithLogger(authLogger).
		WithValidationListeners(auth.RequireConfirmed())

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			AppName:       "mediaapi",
			UnescapePath:  true,
			StrictRouting: false,
		})
	})

	r := metrics.Instrument(srv.Router(), collector)

	protected := httpAuth.ProtectedRoute()
	api := r.Group("/")

	auth.RegisterAuthRoutes(api,
		auth.WithControllerAuthenticator(auther),
		auth.WithControllerLogger(authLogger),
		auth.WithControllerBaseURL(cfg.GetBaseURL()),
		auth.WithControllerProtection(protected, cfg.GetContextKey()),
		auth.WithControllerDebug(cfg.Debug),
	)

	posts.RegisterRoutes(api, posts.NewRepository(db), protected,
		posts.WithLogger(authLogger),
		posts.WithContextKey(cfg.GetContextKey()),
	)

	return &App{
		db:             store,
		srv:            srv,
		metricsHandler: metrics.Handler(reg),
	}, nil
}

func newLogger(cfg *config.BaseConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", "mediaapi")
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
