package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	Fetch     FetchConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GeminiConfig holds Gemini API configuration. APIKey may stay empty when
// every caller supplies its own key per request.
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FetchConfig holds product page fetching configuration
type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	PerMinute float64 `mapstructure:"per_minute"`
	Burst     int     `mapstructure:"burst"`
}

// Load loads configuration from a local .env file, environment variables
// and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/exportlens/")

	// Environment variable settings: EXPORTLENS_GEMINI_API_KEY overrides
	// gemini.api_key and so on.
	v.SetEnvPrefix("EXPORTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - env vars and defaults cover everything)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
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

// loadEnvFile loads a local .env into the process environment when one
// exists. Variables already set win over the file, so a deployment's real
// environment cannot be overridden by a stray file.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}

// setDefaults sets default configuration values. Every key needs a default
// for its environment variable override to be picked up.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.timeout", "90s") // search-grounded answers are slow

	// Fetch defaults
	v.SetDefault("fetch.timeout", "20s")
	v.SetDefault("fetch.max_body_bytes", 5<<20)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_minute", 60)
	v.SetDefault("ratelimit.burst", 10)
}

// validate validates the configuration. A missing Gemini API key is not an
// error here: the server can run purely on caller-supplied keys, and the
// client reports the missing key when an analysis arrives without one.
func validate(config *Config) error {
	if config.Gemini.BaseURL == "" {
		return fmt.Errorf("Gemini base URL must not be empty")
	}
	if config.Gemini.Model == "" {
		return fmt.Errorf("Gemini model must not be empty")
	}
	if config.Gemini.Timeout <= 0 {
		return fmt.Errorf("Gemini timeout must be positive, got: %s", config.Gemini.Timeout)
	}
	if config.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got: %s", config.Fetch.Timeout)
	}
	if config.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch max body bytes must be positive, got: %d", config.Fetch.MaxBodyBytes)
	}
	if config.Fetch.UserAgent == "" {
		return fmt.Errorf("fetch user agent must not be empty")
	}
	if config.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("rate limit per_minute must be positive, got: %g", config.RateLimit.PerMinute)
	}
	if config.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit burst must be positive, got: %d", config.RateLimit.Burst)
	}
	return nil
}
