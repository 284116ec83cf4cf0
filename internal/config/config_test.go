package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})
}

func TestValidate(t *testing.T) {
	t.Run("rejects relative upstream URL", func(t *testing.T) {
		cfg := &Config{UpstreamBaseURL: "localhost:8000"}
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("accepts https upstream URL", func(t *testing.T) {
		cfg := &Config{UpstreamBaseURL: "https://api.chatify.example"}
		assert.NoError(t, cfg.Validate(true))
	})

	t.Run("rejects malformed encryption key", func(t *testing.T) {
		cfg := &Config{UpstreamBaseURL: "https://api.chatify.example", EncryptionKey: "short"}
		assert.Error(t, cfg.Validate(false))
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":                 os.Getenv("PORT"),
		"DATABASE_URL":         os.Getenv("DATABASE_URL"),
		"REDIS_URL":            os.Getenv("REDIS_URL"),
		"CHATIFY_API_BASE_URL": os.Getenv("CHATIFY_API_BASE_URL"),
		"ALLOWED_ORIGINS":      os.Getenv("ALLOWED_ORIGINS"),
		"LOG_LEVEL":            os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Unsetenv("PORT")
		os.Unsetenv("CHATIFY_API_BASE_URL")
		os.Unsetenv("ALLOWED_ORIGINS")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, DefaultUpstreamURL, cfg.UpstreamBaseURL)
		assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("fails without required values", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("honors explicit upstream URL", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("CHATIFY_API_BASE_URL", "https://api.chatify.example")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "https://api.chatify.example", cfg.UpstreamBaseURL)
	})
}
