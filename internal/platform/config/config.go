// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into strongly-typed
Go structs, providing early validation and default values.

Two schemas live here:

  - [Config]: the auth API server (cmd/api).
  - [Console]: the console client (cmd/console). It additionally reads an
    optional .env file so operators can keep credentials out of shell history.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, client) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Server Configuration Schema

// Config holds all runtime configuration for the foundation auth API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for identity signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// CookieSecure sets the Secure attribute on auth cookies. Disable only for
	// plain-HTTP local development.
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"true"`

	// AllowedOriginSuffix is the origin suffix accepted by CORS outside development.
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"fundacion.app"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginAllowed reports whether a browser origin may call the API with credentials.
func (c *Config) OriginAllowed(origin string) bool {
	if c.IsDevelopment() {
		return true
	}
	return c.AllowedOriginSuffix != "" && strings.HasSuffix(origin, c.AllowedOriginSuffix)
}

// # Console Configuration Schema

// Console holds the runtime configuration of the console client.
type Console struct {

	// APIBaseURL is the backend root including the version prefix.
	APIBaseURL string `env:"CONSOLE_API_URL" envDefault:"http://localhost:8080/api/v1"`

	// RequestTimeout bounds a single HTTP round trip.
	RequestTimeout time.Duration `env:"CONSOLE_REQUEST_TIMEOUT" envDefault:"30s"`

	// RefreshTimeout bounds a refresh flight. When it elapses every queued request
	// fails and the session-expired redirect fires.
	RefreshTimeout time.Duration `env:"CONSOLE_REFRESH_TIMEOUT" envDefault:"15s"`

	// Operator credentials used by the non-interactive commands.
	Email    string `env:"CONSOLE_EMAIL"`
	Password string `env:"CONSOLE_PASSWORD"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// LoadConsole reads the optional dotenv file at path, then parses the console
// environment. A missing dotenv file is not an error.
func LoadConsole(path string) (*Console, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	cfg := &Console{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse console environment: %w", err)
	}

	if cfg.RefreshTimeout <= 0 {
		return nil, fmt.Errorf("config: CONSOLE_REFRESH_TIMEOUT must be positive, got %s", cfg.RefreshTimeout)
	}

	return cfg, nil
}
