package config

import (
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// ErrMissingCredential is returned by Validate when a command needs a
	// credential that is not configured.
	ErrMissingCredential = errors.New("config: missing credential")

	// ErrInvalid is returned by Validate for out-of-range values.
	ErrInvalid = errors.New("config: invalid value")
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Postmark  PostmarkConfig  `yaml:"postmark" mapstructure:"postmark"`
	Team      TeamConfig      `yaml:"team" mapstructure:"team"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds the LLM credentials and call limits.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-call timeout.
func (c AnthropicConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PostmarkConfig holds the email provider settings.
type PostmarkConfig struct {
	Token          string  `yaml:"token" mapstructure:"token"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	FromEmail      string  `yaml:"from_email" mapstructure:"from_email"`
	InboundAddress string  `yaml:"inbound_address" mapstructure:"inbound_address"`
	DemoEmail      string  `yaml:"demo_email" mapstructure:"demo_email"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Timeout returns the per-send timeout.
func (c PostmarkConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// TeamConfig names the team that signs outbound mail.
type TeamConfig struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Email string `yaml:"email" mapstructure:"email"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	PageSize    int      `yaml:"page_size" mapstructure:"page_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HOA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "hoa.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.page_size", 12)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.timeout_secs", 60)
	v.SetDefault("postmark.token", "")
	v.SetDefault("postmark.base_url", "https://api.postmarkapp.com")
	v.SetDefault("postmark.from_email", "noreply@example.com")
	v.SetDefault("postmark.inbound_address", "")
	v.SetDefault("postmark.demo_email", "")
	v.SetDefault("postmark.timeout_secs", 30)
	v.SetDefault("postmark.rate_limit", 10)
	v.SetDefault("team.name", "Property Management Team")
	v.SetDefault("team.email", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode needs. Modes: "store" for any
// command that only touches the database, "serve", "classify", and "send".
func (c *Config) Validate(mode string) error {
	var missing, invalid []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	default:
		invalid = append(invalid, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "store":
	case "serve":
		if c.Server.Port <= 0 {
			invalid = append(invalid, "server.port must be > 0")
		}
		if c.Server.PageSize <= 0 {
			invalid = append(invalid, "server.page_size must be > 0")
		}
		if c.Postmark.FromEmail == "" {
			missing = append(missing, "postmark.from_email is required")
		}
	case "classify":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required (set HOA_ANTHROPIC_KEY)")
		}
		if c.Anthropic.MaxTokens <= 0 {
			invalid = append(invalid, "anthropic.max_tokens must be > 0")
		}
		if c.Anthropic.TimeoutSecs <= 0 {
			invalid = append(invalid, "anthropic.timeout_secs must be > 0")
		}
	case "send":
		if c.Postmark.FromEmail == "" {
			missing = append(missing, "postmark.from_email is required")
		}
		if c.Postmark.TimeoutSecs <= 0 {
			invalid = append(invalid, "postmark.timeout_secs must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Wrap(ErrMissingCredential, strings.Join(append(missing, invalid...), "; "))
	}
	if len(invalid) > 0 {
		return eris.Wrap(ErrInvalid, strings.Join(invalid, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
