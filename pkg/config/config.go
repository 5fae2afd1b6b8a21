package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	BookmarksFile  string `mapstructure:"BOOKMARKS_FILE"`
	AnalyzeOnStart bool   `mapstructure:"ANALYZE_ON_START"`

	FetchMode           string  `mapstructure:"FETCH_MODE"`
	FetchTimeoutSeconds int     `mapstructure:"FETCH_TIMEOUT_SECONDS"`
	MaxConcurrency      int     `mapstructure:"MAX_CONCURRENCY"`
	PerHostRate         float64 `mapstructure:"PER_HOST_RATE"`
	UserAgent           string  `mapstructure:"USER_AGENT"`
	MaxBodyBytes        int64   `mapstructure:"MAX_BODY_BYTES"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	SeenTTLMinutes int    `mapstructure:"SEEN_TTL_MINUTES"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BOOKMARKS_FILE", "")
	v.SetDefault("ANALYZE_ON_START", false)
	v.SetDefault("FETCH_MODE", FetchModeHTTP)
	v.SetDefault("FETCH_TIMEOUT_SECONDS", 15)
	v.SetDefault("MAX_CONCURRENCY", 8)
	v.SetDefault("PER_HOST_RATE", 0.0) // unlimited
	v.SetDefault("USER_AGENT", "")
	v.SetDefault("MAX_BODY_BYTES", 5<<20)
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SEEN_TTL_MINUTES", 60)
}

// Load reads configuration from an optional .env file and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Missing .env is fine; production is configured through the environment.
	_ = v.ReadInConfig()

	SetDefaults(v)
	return FromViper(v)
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("invalid FETCH_MODE %q: want %q or %q", c.FetchMode, FetchModeHTTP, FetchModeBrowser)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("MAX_CONCURRENCY must be at least 1, got %d", c.MaxConcurrency)
	}
	if c.FetchTimeoutSeconds < 1 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be at least 1, got %d", c.FetchTimeoutSeconds)
	}
	if c.PerHostRate < 0 {
		return fmt.Errorf("PER_HOST_RATE must not be negative, got %g", c.PerHostRate)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *Config) SeenTTL() time.Duration {
	return time.Duration(c.SeenTTLMinutes) * time.Minute
}
