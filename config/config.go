// Package config resolves service configuration from the environment into an
// immutable value that is passed explicitly to every component. Nothing in the
// rest of the codebase reads environment variables directly.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

// Environment selects cookie and error-reporting behavior.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// MaxAccessTokenTTL and MaxRefreshTokenTTL cap configured lifetimes. Longer
// values are clamped, never honored.
const (
	MaxAccessTokenTTL  = 24 * time.Hour
	MaxRefreshTokenTTL = 7 * 24 * time.Hour
)

// Config holds all runtime options. The zero value is not usable; construct
// via Load or New.
type Config struct {
	Env  Environment
	Port string

	// SigningSecret signs access and refresh credentials. Required.
	SigningSecret string
	Issuer        string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	DatabasePath string

	// FrontendURL is the allowed CORS origin for the separately hosted client.
	FrontendURL string

	RateLimitWindow time.Duration
	RateLimitMax    int
	WriteLimitMax   int
}

// IsProduction reports whether the service runs with production hardening.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load builds a Config from the process environment. Call godotenv.Load
// beforehand if a .env file should participate.
func Load() (Config, error) {
	cfg := Config{
		Env:             environment(getenv("APP_ENV", string(EnvDevelopment))),
		Port:            getenv("PORT", "5000"),
		SigningSecret:   os.Getenv("JWT_SECRET"),
		Issuer:          getenv("JWT_ISSUER", "croplog"),
		AccessTokenTTL:  duration("ACCESS_TOKEN_TTL", MaxAccessTokenTTL),
		RefreshTokenTTL: duration("REFRESH_TOKEN_TTL", MaxRefreshTokenTTL),
		DatabasePath:    getenv("DATABASE_PATH", "croplog.db"),
		FrontendURL:     getenv("FRONTEND_URL", "http://localhost:3000"),
		RateLimitWindow: duration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:    integer("RATE_LIMIT_MAX", 100),
		WriteLimitMax:   integer("WRITE_LIMIT_MAX", 20),
	}

	return cfg, cfg.Validate()
}

// Validate fails fast on configuration the service cannot run with.
func (c Config) Validate() error {
	if c.SigningSecret == "" {
		return errors.New("JWT_SECRET is required", errors.CategoryValidation)
	}

	if len(c.SigningSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes", errors.CategoryValidation)
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive", errors.CategoryValidation)
	}

	return nil
}

// Clamped returns a copy with token lifetimes capped at their maxima.
func (c Config) Clamped() Config {
	if c.AccessTokenTTL > MaxAccessTokenTTL {
		c.AccessTokenTTL = MaxAccessTokenTTL
	}
	if c.RefreshTokenTTL > MaxRefreshTokenTTL {
		c.RefreshTokenTTL = MaxRefreshTokenTTL
	}
	return c
}

func environment(raw string) Environment {
	if strings.EqualFold(raw, string(EnvProduction)) {
		return EnvProduction
	}
	return EnvDevelopment
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func integer(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
