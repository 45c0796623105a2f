package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string `env:"PORT,        default=8080"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	BackendURL string `env:"BACKEND_URL, default=http://localhost:5000"`

	// AuthRPS throttles the unauthenticated account endpoints per client IP.
	AuthRPS   float64 `env:"AUTH_RATE_LIMIT, default=5"`
	AuthBurst int     `env:"AUTH_RATE_BURST, default=10"`

	Session SessionConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	// Store selects the session backend: "redis" or "memory".
	Store        string        `env:"SESSION_STORE,         default=redis"`
	TTL          time.Duration `env:"SESSION_TTL,           default=24h"`
	CookieName   string        `env:"SESSION_COOKIE,        default=juthworks_sid"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE, default=false"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Session.Store != "redis" && cfg.Session.Store != "memory" {
		return nil, fmt.Errorf("config: unknown SESSION_STORE %q", cfg.Session.Store)
	}
	return &cfg, nil
}
