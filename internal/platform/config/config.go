// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, cache) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Cache Drivers

const (
	// CacheDriverMemory keeps cached reads inside the API process.
	CacheDriverMemory = "memory"

	// CacheDriverRedis keeps cached reads in Redis.
	CacheDriverRedis = "redis"
)

// # Configuration Schema

// Config holds all runtime configuration for the Folio API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"2"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Read cache
	CacheDriver        string        `env:"CACHE_DRIVER"         envDefault:"memory"`
	CacheTTL           time.Duration `env:"CACHE_TTL"            envDefault:"5m"`
	CacheSweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"2m"`

	// Key-Value Cache (Redis), required only with CACHE_DRIVER=redis
	RedisURL string `env:"REDIS_URL"`

	// Administrator account (owner role)
	AdminUsername     string        `env:"ADMIN_USERNAME"       envDefault:"admin"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	AdminTokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL"      envDefault:"12h"`
	JWTPrivKeyPath    string        `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPubKeyPath     string        `env:"JWT_PUBLIC_KEY_PATH"`

	// Optional curator account (editor role): may edit, never delete.
	EditorUsername     string `env:"EDITOR_USERNAME"`
	EditorPasswordHash string `env:"EDITOR_PASSWORD_HASH"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"folio.photo"`
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

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks cross-field rules that struct tags cannot express.
func (c *Config) validate() error {
	switch c.CacheDriver {
	case CacheDriverMemory:
	case CacheDriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config: REDIS_URL is required when CACHE_DRIVER=%s", CacheDriverRedis)
		}
	default:
		return fmt.Errorf("config: unknown CACHE_DRIVER %q", c.CacheDriver)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("config: CACHE_TTL must be positive")
	}

	if (c.EditorUsername == "") != (c.EditorPasswordHash == "") {
		return fmt.Errorf("config: EDITOR_USERNAME and EDITOR_PASSWORD_HASH must be set together")
	}
	if c.EditorUsername != "" && c.EditorUsername == c.AdminUsername {
		return fmt.Errorf("config: EDITOR_USERNAME must differ from ADMIN_USERNAME")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AdminEnabled reports whether the admin console can authenticate.
func (c *Config) AdminEnabled() bool {
	return c.AdminPasswordHash != "" && c.JWTPrivKeyPath != "" && c.JWTPubKeyPath != ""
}

// OriginSuffix implements the CORS policy lookup for [middleware.CORS].
func (c *Config) OriginSuffix() string {
	return c.AllowedOriginSuffix
}
