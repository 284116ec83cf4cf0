package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultUpstreamURL is the fallback Chatify API base URL when no
// environment value is supplied.
const DefaultUpstreamURL = "http://localhost:8000"

type Config struct {
	Port            int      `env:"PORT" envDefault:"8080"`
	DatabaseURL     string   `env:"DATABASE_URL,required"`
	RedisURL        string   `env:"REDIS_URL,required"`
	UpstreamBaseURL string   `env:"CHATIFY_API_BASE_URL"`
	AllowedOrigins  []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	EncryptionKey   string   `env:"ENCRYPTION_KEY"`
	LoginRatePerMin int      `env:"LOGIN_RATE_LIMIT_PER_MIN" envDefault:"10"`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if !strings.HasPrefix(c.UpstreamBaseURL, "http://") && !strings.HasPrefix(c.UpstreamBaseURL, "https://") {
		return fmt.Errorf("CHATIFY_API_BASE_URL must be an absolute http(s) URL, got %q", c.UpstreamBaseURL)
	}

	if c.EncryptionKey != "" && len(c.EncryptionKey) != 64 {
		return fmt.Errorf("ENCRYPTION_KEY must be 64 hex characters (generate with: openssl rand -hex 32)")
	}

	if isProduction {
		if strings.HasPrefix(c.UpstreamBaseURL, "http://") {
			log.Warn().Msg("CHATIFY_API_BASE_URL uses http:// in production: bearer tokens travel unencrypted")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.EncryptionKey == "" {
			log.Warn().Msg("ENCRYPTION_KEY is empty in production: upstream tokens will not be encrypted at rest")
		}
	}

	return nil
}

func Load() (*Config, error) {
	// Local development keeps settings in a .env file; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.UpstreamBaseURL == "" {
		cfg.UpstreamBaseURL = DefaultUpstreamURL
	}
	return &cfg, nil
}
