package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			APIHost:            "https://api.example.com",
			SocketHost:         "wss://ws.example.com",
			HTTPTimeoutSeconds: 30,
			StorePath:          "stoop.db",
			Env:                "development",
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid", func(_ *Config) {}, false},
		{"missing API host", func(c *Config) { c.APIHost = "" }, true},
		{"API host without scheme", func(c *Config) { c.APIHost = "api.example.com" }, true},
		{"socket host with http scheme", func(c *Config) { c.SocketHost = "http://ws.example.com" }, true},
		{"empty socket host allowed", func(c *Config) { c.SocketHost = "" }, false},
		{"zero timeout", func(c *Config) { c.HTTPTimeoutSeconds = 0 }, true},
		{"negative socket retries", func(c *Config) { c.SocketMaxRetries = -1 }, true},
		{"missing store path", func(c *Config) { c.StorePath = "" }, true},
		{"otlp without endpoint in prod", func(c *Config) {
			c.Env = "production"
			c.TracingEnabled = true
			c.TracingExporter = "otlp"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer viper.Reset()
	defer os.Unsetenv("APP_ENV")
	os.Setenv("APP_ENV", "development")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, DefaultAPIHost, c.APIHost)
	assert.Equal(t, 30, c.HTTPTimeoutSeconds)
	assert.Equal(t, 10, c.FollowStatusTTL)
	assert.Equal(t, 30, c.FollowListTTL)
	assert.Equal(t, DefaultAPIHost+"/api/v1", c.BaseURL())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	defer viper.Reset()
	defer os.Unsetenv("API_HOST")
	os.Setenv("API_HOST", "http://localhost:8375")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:8375/api/v1", c.BaseURL())
}
