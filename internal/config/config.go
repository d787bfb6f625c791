// Package config holds the server configuration, parsed from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v8"
)

// Config is the full server configuration.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `env:"ADDR" envDefault:":8080"`

	// DBPath is the SQLite database file path.
	DBPath string `env:"DB_PATH" envDefault:"./data/splitease.db"`

	// JWTSecret signs session tokens. Must be overridden in production.
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`

	// TokenTTL is how long issued session tokens remain valid.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// CORSOrigins lists the allowed CORS origins.
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
