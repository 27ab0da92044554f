package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Engine    EngineConfig
	Data      DataConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EngineConfig holds generic nudge engine configuration
type EngineConfig struct {
	Mode          string        `mapstructure:"mode"`           // "sync" or "async"
	ThrottleEvery int           `mapstructure:"throttle_every"` // consult engine every Nth generic scan
	RulesPath     string        `mapstructure:"rules_path"`     // empty = embedded rules
	RerankURL     string        `mapstructure:"rerank_url"`     // optional remote re-ranker probe
	RerankTimeout time.Duration `mapstructure:"rerank_timeout"`
}

// DataConfig holds catalog and profile data overrides
type DataConfig struct {
	CatalogPath  string `mapstructure:"catalog_path"`  // empty = embedded catalog
	ProfilesPath string `mapstructure:"profiles_path"` // empty = embedded profiles
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per second per client IP
	Burst int `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/smartshop/")

	// Environment variable settings
	v.SetEnvPrefix("SMARTSHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Engine defaults
	v.SetDefault("engine.mode", "sync")
	v.SetDefault("engine.throttle_every", 3)
	v.SetDefault("engine.rerank_timeout", "3s")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 20)
	v.SetDefault("ratelimit.burst", 40)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Engine.Mode != "sync" && config.Engine.Mode != "async" {
		return fmt.Errorf("engine mode must be 'sync' or 'async', got: %s", config.Engine.Mode)
	}

	if config.Engine.ThrottleEvery < 1 {
		return fmt.Errorf("engine throttle_every must be >= 1, got: %d", config.Engine.ThrottleEvery)
	}

	return nil
}
