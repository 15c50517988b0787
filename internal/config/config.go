// Package config provides client configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default hosts used when no environment override is present. The API host
// is the hardcoded production fallback the client ships with.
const (
	DefaultAPIHost    = "https://api.stoop.social"
	DefaultSocketHost = "wss://ws.stoop.social"
	APIBasePath       = "/api/v1"
)

// Config holds client configuration values loaded from file or environment
// variables.
type Config struct {
	APIHost            string  `mapstructure:"API_HOST"`
	SocketHost         string  `mapstructure:"SOCKET_HOST"`
	HTTPTimeoutSeconds int     `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	GeoTimeoutSeconds  int     `mapstructure:"GEO_TIMEOUT_SECONDS"`
	GeoMaxAgeSeconds   int     `mapstructure:"GEO_MAX_AGE_SECONDS"`
	FollowStatusTTL    int     `mapstructure:"FOLLOW_STATUS_TTL_SECONDS"`
	FollowListTTL      int     `mapstructure:"FOLLOW_LIST_TTL_SECONDS"`
	RedisURL           string  `mapstructure:"REDIS_URL"`
	StorePath          string  `mapstructure:"STORE_PATH"`
	SocketMaxRetries   int     `mapstructure:"SOCKET_MAX_RETRIES"`
	SocketRetryDelay   int     `mapstructure:"SOCKET_RETRY_DELAY_SECONDS"`
	Env                string  `mapstructure:"APP_ENV"`
	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// BaseURL is the full REST base: host plus the versioned API path.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.APIHost, "/") + APIBasePath
}

// LoadConfig loads client configuration from .env, config files, and
// environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("API_HOST", DefaultAPIHost)
	viper.SetDefault("SOCKET_HOST", DefaultSocketHost)
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	viper.SetDefault("GEO_TIMEOUT_SECONDS", 10)
	viper.SetDefault("GEO_MAX_AGE_SECONDS", 300)
	viper.SetDefault("FOLLOW_STATUS_TTL_SECONDS", 10)
	viper.SetDefault("FOLLOW_LIST_TTL_SECONDS", 30)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("STORE_PATH", "stoop.db")
	viper.SetDefault("SOCKET_MAX_RETRIES", 5)
	viper.SetDefault("SOCKET_RETRY_DELAY_SECONDS", 3)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 0.1)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures required configuration values are present and sane.
func (c *Config) Validate() error {
	if c.APIHost == "" {
		return errors.New("API_HOST is required")
	}
	if !strings.HasPrefix(c.APIHost, "http://") && !strings.HasPrefix(c.APIHost, "https://") {
		return errors.New("API_HOST must be an http(s) URL")
	}
	if c.SocketHost != "" &&
		!strings.HasPrefix(c.SocketHost, "ws://") && !strings.HasPrefix(c.SocketHost, "wss://") {
		return errors.New("SOCKET_HOST must be a ws(s) URL")
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return errors.New("HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.SocketMaxRetries < 0 {
		return errors.New("SOCKET_MAX_RETRIES must not be negative")
	}
	if c.StorePath == "" {
		return errors.New("STORE_PATH is required")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if strings.HasPrefix(c.APIHost, "http://") {
			log.Println("WARNING: API_HOST uses plain http in production.")
		}
		if c.TracingEnabled && c.TracingExporter == "otlp" && c.OTLPEndpoint == "" {
			return errors.New("OTLP_ENDPOINT is required when TRACING_EXPORTER is otlp")
		}
	}

	return nil
}
