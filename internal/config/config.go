package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/kiln/internal/domain"
	"github.com/davidbz/kiln/internal/engine/openai"
	"github.com/davidbz/kiln/internal/feedback"
	"github.com/davidbz/kiln/internal/observability"
)

// Config represents the completion server configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Model     ModelConfig
	Queue     domain.QueueConfig
	Cache     domain.CacheConfig
	RateLimit RateLimitConfig
	Feedback  feedback.Config
	Log       observability.Config
	Engine    openai.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string `env:"SERVER_HOST"            envDefault:"0.0.0.0"`
	Port         int    `env:"SERVER_PORT"            envDefault:"8000"`
	ReadTimeout  int    `env:"SERVER_READ_TIMEOUT"    envDefault:"30"`
	WriteTimeout int    `env:"SERVER_WRITE_TIMEOUT"   envDefault:"600"`
	TLSCertFile  string `env:"SERVER_SSL_CERTIFICATE"`
	TLSKeyFile   string `env:"SERVER_SSL_KEYFILE"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TLSEnabled reports whether both certificate and key are configured.
func (c ServerConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"*"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// ModelConfig selects the served model and the active completion types.
type ModelConfig struct {
	Name            string   `env:"MODEL_NAME"       envDefault:"starcoder"`
	AuthPrefix      string   `env:"AUTH_PREFIX"      envDefault:"<secret_key>"`
	CompletionTypes []string `env:"COMPLETION_TYPES" envDefault:"chat,code" envSeparator:","`
	DryRun          bool     `env:"MODEL_DRY_RUN"    envDefault:"false"`
}

// ActiveCompletionTypes parses CompletionTypes, dropping duplicates.
func (c ModelConfig) ActiveCompletionTypes() ([]domain.CompletionType, error) {
	seen := make(map[domain.CompletionType]struct{}, len(c.CompletionTypes))
	types := make([]domain.CompletionType, 0, len(c.CompletionTypes))

	for _, name := range c.CompletionTypes {
		completionType, err := domain.ParseCompletionType(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[completionType]; ok {
			continue
		}
		seen[completionType] = struct{}{}
		types = append(types, completionType)
	}

	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no completion types enabled", domain.ErrConfiguration)
	}

	return types, nil
}

// RateLimitConfig throttles completion requests. Zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"0"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Enabled reports whether requests are throttled.
func (c RateLimitConfig) Enabled() bool {
	return c.RPS > 0
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*ModelConfig
	*domain.QueueConfig
	*domain.CacheConfig
	*RateLimitConfig

	Feedback *feedback.Config
	Log      *observability.Config
	Engine   *openai.Config
}

// Option overrides parsed values before validation, e.g. from command flags.
type Option func(cfg *Config)

// Load loads environment files, parses configuration, applies overrides and
// validates the result.
func Load(opts ...Option) (*Config, error) {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS needs both certificate and key file"))
	}
	if c.Model.Name == "" {
		errs = append(errs, errors.New("model name is required"))
	}
	if _, err := c.Model.ActiveCompletionTypes(); err != nil {
		errs = append(errs, err)
	}
	if c.Queue.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("queue capacity %d must be positive", c.Queue.Capacity))
	}
	if c.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("cache capacity %d must be positive", c.Cache.Capacity))
	}
	if c.RateLimit.Enabled() && c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate limit burst must be positive"))
	}
	if !c.Model.DryRun && !c.Engine.Enabled() {
		errs = append(errs, errors.New("ENGINE_BASE_URL is required unless running dry"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Out:             dig.Out{},
		ServerConfig:    &cfg.Server,
		CORSConfig:      &cfg.CORS,
		ModelConfig:     &cfg.Model,
		QueueConfig:     &cfg.Queue,
		CacheConfig:     &cfg.Cache,
		RateLimitConfig: &cfg.RateLimit,
		Feedback:        &cfg.Feedback,
		Log:             &cfg.Log,
		Engine:          &cfg.Engine,
	}
}
