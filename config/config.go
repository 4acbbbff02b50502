package config

import (
	"os"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/goliatone/go-mediaauth"
)

const (
	StateDev  = "dev"
	StateTest = "test"
	StateProd = "prod"

	// EnvStateVar selects which prefixed variables are read, DEV_, TEST_ or PROD_
	EnvStateVar = "ENV_STATE"
)

// BaseConfig is the service configuration. Each environment state reads
// its own prefixed variables, e.g. PROD_SECRET_KEY.
type BaseConfig struct {
	EnvState             string `koanf:"env_state"`
	SecretKey            string `koanf:"secret_key"`
	PreviousSecretKey    string `koanf:"previous_secret_key"`
	Algorithm            string `koanf:"algorithm"`
	DatabaseURL          string `koanf:"database_url"`
	DBPingTimeout        int    `koanf:"db_ping_timeout"`
	AccessTokenTTL       int    `koanf:"access_token_ttl"`
	ConfirmationTokenTTL int    `koanf:"confirmation_token_ttl"`
	PasswordCost         int    `koanf:"password_cost"`
	HTTPAddress          string `koanf:"http_address"`
	MetricsAddress       string `koanf:"metrics_address"`
	BaseURL              string `koanf:"base_url"`
	ContextKey           string `koanf:"context_key"`
	TokenLookup          string `koanf:"token_lookup"`
	AuthScheme           string `koanf:"auth_scheme"`
	LogLevel             string `koanf:"log_level"`
	LogFormat            string `koanf:"log_format"`
	Debug                bool   `koanf:"debug"`
}

var _ auth.Config = (*BaseConfig)(nil)

type loader struct {
	state    string
	filePath string
}

type Option func(*loader)

// WithEnvState overrides ENV_STATE
func WithEnvState(state string) Option {
	return func(l *loader) {
		l.state = state
	}
}

// WithFile layers a YAML file between the defaults and the environment
func WithFile(path string) Option {
	return func(l *loader) {
		l.filePath = path
	}
}

func defaults(state string) map[string]any {
	dsn := "file:mediaapi.db?cache=shared"
	if state == StateTest {
		dsn = "file::memory:?cache=shared"
	}

	return map[string]any{
		"env_state":              state,
		"algorithm":              "HS256",
		"database_url":           dsn,
		"db_ping_timeout":        5,
		"access_token_ttl":       30,
		"confirmation_token_ttl": 1440,
		"password_cost":          0,
		"http_address":           ":8000",
		"metrics_address":        ":9090",
		"base_url":               "http://localhost:8000",
		"context_key":            auth.DefaultContextKey,
		"token_lookup":           "header:Authorization",
		"auth_scheme":            "Bearer",
		"log_level":              "info",
		"log_format":             "text",
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in that order.
func Load(opts ...Option) (*BaseConfig, error) {
	l := &loader{state: os.Getenv(EnvStateVar)}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	state := strings.ToLower(strings.TrimSpace(l.state))
	if state == "" {
		state = StateDev
	}

	switch state {
	case StateDev, StateTest, StateProd:
	default:
		return nil, goerrors.New("unknown environment state "+state, goerrors.CategoryValidation).
			WithMetadata(map[string]any{"env_state": state})
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(state), "."), nil); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load config defaults")
	}

	if l.filePath != "" {
		if err := k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to load config file").
				WithMetadata(map[string]any{"path": l.filePath})
		}
	}

	prefix := strings.ToUpper(state) + "_"
	err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, prefix))
	}), nil)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load environment")
	}

	cfg := &BaseConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode config")
	}
	cfg.EnvState = state

	return cfg, nil
}

// Validate fails when the service cannot sign tokens
func (c *BaseConfig) Validate() error {
	if c.SecretKey == "" {
		return goerrors.New("secret_key is required", goerrors.CategoryValidation)
	}
	if c.Algorithm == "" {
		return goerrors.New("algorithm is required", goerrors.CategoryValidation)
	}
	if c.DatabaseURL == "" {
		return goerrors.New("database_url is required", goerrors.CategoryValidation)
	}
	return nil
}

// Redacted is safe to log
func (c *BaseConfig) Redacted() map[string]any {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "[REDACTED]"
	}
	return map[string]any{
		"env_state":              c.EnvState,
		"secret_key":             mask(c.SecretKey),
		"previous_secret_key":    mask(c.PreviousSecretKey),
		"algorithm":              c.Algorithm,
		"database_url":           c.DatabaseURL,
		"access_token_ttl":       c.AccessTokenTTL,
		"confirmation_token_ttl": c.ConfirmationTokenTTL,
		"http_address":           c.HTTPAddress,
		"metrics_address":        c.MetricsAddress,
		"base_url":               c.BaseURL,
		"log_level":              c.LogLevel,
		"log_format":             c.LogFormat,
	}
}

func (c *BaseConfig) GetSigningKey() string         { return c.SecretKey }
func (c *BaseConfig) GetSigningMethod() string      { return c.Algorithm }
func (c *BaseConfig) GetPreviousSigningKey() string { return c.PreviousSecretKey }
func (c *BaseConfig) GetAccessTokenTTL() int        { return c.AccessTokenTTL }
func (c *BaseConfig) GetConfirmationTokenTTL() int  { return c.ConfirmationTokenTTL }
func (c *BaseConfig) GetPasswordCost() int          { return c.PasswordCost }
func (c *BaseConfig) GetContextKey() string         { return c.ContextKey }
func (c *BaseConfig) GetTokenLookup() string        { return c.TokenLookup }
func (c *BaseConfig) GetAuthScheme() string         { return c.AuthScheme }
func (c *BaseConfig) GetBaseURL() string            { return c.BaseURL }

// DriverPostgres is reported for postgres:// and postgresql:// URLs
const DriverPostgres = "pgx"

// PersistenceConfig is the database part of BaseConfig in the shape
// go-persistence-bun expects.
type PersistenceConfig struct {
	Debug       bool
	Driver      string
	DSN         string
	PingTimeout time.Duration
}

var _ persistence.Config = PersistenceConfig{}

// GetPersistence derives the database settings. Any DSN that is not a
// postgres URL is opened with sqlite.
func (c *BaseConfig) GetPersistence() PersistenceConfig {
	driver := sqliteshim.ShimName
	if IsPostgresDSN(c.DatabaseURL) {
		driver = DriverPostgres
	}

	timeout := time.Duration(c.DBPingTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return PersistenceConfig{
		Debug:       c.Debug,
		Driver:      driver,
		DSN:         c.DatabaseURL,
		PingTimeout: timeout,
	}
}

func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func (p PersistenceConfig) GetDebug() bool                { return p.Debug }
func (p PersistenceConfig) GetDriver() string             { return p.Driver }
func (p PersistenceConfig) GetServer() string             { return p.DSN }
func (p PersistenceConfig) GetDatabase() string           { return p.DSN }
func (p PersistenceConfig) GetPingTimeout() time.Duration { return p.PingTimeout }
func (p PersistenceConfig) GetOtelIdentifier() string     { return "" }
