package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML/JSON keys to Go struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port (default: 8080)
		BaseURL string `mapstructure:"base_url"` // Base URL for generating short links
	} `mapstructure:"server"`

	// Database configuration section for SQLite settings
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Analytics configuration for the periodic summary refresher
	Analytics struct {
		RefreshIntervalMinutes int `mapstructure:"refresh_interval_minutes"` // 0 (default) disables the refresher
		WorkerCount            int `mapstructure:"worker_count"`             // Number of goroutines recomputing summaries
	} `mapstructure:"analytics"`

	// Auth configuration for bearer tokens
	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"` // HMAC secret used to verify HS256 tokens
		Issuer    string `mapstructure:"issuer"`     // Expected "iss" claim
	} `mapstructure:"auth"`

	// RateLimit configuration for the link creation endpoints, per client IP
	RateLimit struct {
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
		Burst             int     `mapstructure:"burst"`
		IdleTTLMinutes    int     `mapstructure:"idle_ttl_minutes"` // Limiters unused for this long are dropped
	} `mapstructure:"rate_limit"`
}

// RefreshInterval is the analytics refresher period; zero when disabled.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Analytics.RefreshIntervalMinutes) * time.Minute
}

// IdleTTL is how long an unused rate limiter is kept.
func (c *Config) IdleTTL() time.Duration {
	return time.Duration(c.RateLimit.IdleTTLMinutes) * time.Minute
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("database.name", "url_shortener.db")
	v.SetDefault("analytics.refresh_interval_minutes", 0)
	v.SetDefault("analytics.worker_count", 5)
	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.issuer", "urlanalytics")
	v.SetDefault("rate_limit.requests_per_second", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.idle_ttl_minutes", 10)
}

// LoadConfig loads the application configuration using the global Viper instance.
// It supports environment variable overrides and YAML configuration files.
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper(), "./configs")
}

// Load reads config.yaml from dir into v and returns the decoded configuration.
// A missing file is not an error: defaults and environment variables still apply.
func Load(v *viper.Viper, dir string) (*Config, error) {
	// e.g., "server.port" becomes "SERVER_PORT"
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using default values")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded: Server Port=%d, DB Name=%s, Analytics Workers=%d, Refresh Interval=%dmin",
		cfg.Server.Port, cfg.Database.Name, cfg.Analytics.WorkerCount, cfg.Analytics.RefreshIntervalMinutes)
	if cfg.Auth.JWTSecret == "change-me" {
		log.Println("WARNING: auth.jwt_secret still has its default value")
	}

	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	case c.Database.Name == "":
		return fmt.Errorf("database.name must not be empty")
	case c.Analytics.RefreshIntervalMinutes < 0:
		return fmt.Errorf("analytics.refresh_interval_minutes must not be negative")
	case c.Analytics.WorkerCount < 1:
		return fmt.Errorf("analytics.worker_count must be at least 1")
	case c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1:
		return fmt.Errorf("rate_limit.requests_per_second and rate_limit.burst must be positive")
	}
	return nil
}
