package auth

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-mediaauth/middleware/jwtware"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type RouteAuthenticator struct {
	auth                Authenticator
	cfg                 Config
	validationListeners []jwtware.ValidationListener
	Logger              Logger
	ErrorHandler        func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	if auther == nil {
		return nil, goerrors.New("authenticator is required", goerrors.CategoryBadInput)
	}

	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// WithValidationListeners registers callbacks run after the bearer token
// resolved to a user.
func (a *RouteAuthenticator) WithValidationListeners(listeners ...jwtware.ValidationListener) *RouteAuthenticator {
	a.validationListeners = append(a.validationListeners, listeners...)
	return a
}

// ProtectedRoute requires a valid access token. The resolved UserRecord is
// stored in router locals and in the request context.
func (a *RouteAuthenticator) ProtectedRoute() router.MiddlewareFunc {
	cfg := jwtware.Config{
		ErrorHandler: a.ErrorHandler,
		Identifier: func(ctx context.Context, token string) (any, error) {
			return a.auth.IdentifyFromAccessToken(ctx, token)
		},
		ContextEnricher: func(ctx context.Context, principal any) context.Context {
			if user, ok := principal.(UserRecord); ok {
				return WithContext(ctx, user)
			}
			return ctx
		},
		ContextKey:  a.contextKey(),
		TokenLookup: a.tokenLookup(),
		AuthScheme:  a.authScheme(),
	}
	RegisterValidationListeners(&cfg, a.validationListeners...)
	return jwtware.New(cfg)
}

func (a *RouteAuthenticator) contextKey() string {
	if a.cfg == nil || a.cfg.GetContextKey() == "" {
		return DefaultContextKey
	}
	return a.cfg.GetContextKey()
}

func (a *RouteAuthenticator) tokenLookup() string {
	if a.cfg == nil {
		return ""
	}
	return a.cfg.GetTokenLookup()
}

func (a *RouteAuthenticator) authScheme() string {
	if a.cfg == nil {
		return ""
	}
	return a.cfg.GetAuthScheme()
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	return WriteError(c, a.Logger, err)
}

// WriteError renders err as {"detail": ..., "code": ...}. Errors without a
// category become a 500, the missing token error from the middleware a 401.
func WriteError(c router.Context, logger Logger, err error) error {
	if logger == nil {
		logger = defLogger{}
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		if goerrors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
			richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "Not authenticated").
				WithTextCode(TextCodeInvalidToken).
				WithCode(goerrors.CodeUnauthorized)
		} else {
			richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
				WithCode(goerrors.CodeInternal)
		}
	}

	status := richErr.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}

	logger.Info(
		"Request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	message := richErr.Message
	if wp := (*WrongPurposeError)(nil); goerrors.As(err, &wp) {
		message = wp.Error()
	}

	return c.JSON(status, map[string]any{
		"detail": message,
		"code":   richErr.TextCode,
	})
}
