// Package config loads server configuration from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAddr        = ":8080"
	defaultDBPath      = "chatterd.db"
	defaultTokenExpiry = 24 * time.Hour
)

// ErrMissingJWTSecret is returned when JWT_SECRET_KEY is not set. Without a
// signing secret no token can be issued or verified, so startup must fail.
var ErrMissingJWTSecret = errors.New("JWT_SECRET_KEY environment variable not configured")

// Config holds the runtime configuration of the chatterd server.
type Config struct {
	Addr           string
	DBPath         string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	Dev            bool
}

// Load reads configuration from the environment, applying defaults for
// everything except the JWT secret.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		return nil, ErrMissingJWTSecret
	}

	cfg := &Config{
		Addr:      envOr("CHATTERD_ADDR", defaultAddr),
		DBPath:    envOr("CHATTERD_DB_PATH", defaultDBPath),
		JWTSecret: secret,
		TokenTTL:  defaultTokenExpiry,
		Dev:       strings.EqualFold(os.Getenv("CHATTERD_ENV"), "development"),
	}

	if hours := os.Getenv("JWT_EXPIRY_HOURS"); hours != "" {
		n, err := strconv.Atoi(hours)
		if err == nil && n > 0 {
			cfg.TokenTTL = time.Duration(n) * time.Hour
		}
	}

	if origins := os.Getenv("CHATTERD_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
