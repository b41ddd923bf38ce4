package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrMissingSigningKey is returned when the process is pointed at a real
// database without an explicit JWT signing key.
var ErrMissingSigningKey = errors.New("config: JWT_SIGNING_KEY must be set when DATABASE_URL is configured")

// Server captures process-level configuration.
type Server struct {
	Addr           string
	DatabaseURL    string
	JWTSigningKey  string
	AccessTokenTTL time.Duration

	// Superuser bootstrap credentials; the seed runs once at startup and is a
	// no-op when the username already exists.
	SuperuserUsername string
	SuperuserEmail    string
	SuperuserPassword string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A signing key is required whenever a database is configured; the baked-in
// dev key only covers the in-memory development path.
func FromEnv() (Server, error) {
	databaseURL := getEnv("DATABASE_URL", "")
	jwtSigningKey := getEnv("JWT_SIGNING_KEY", "")
	if jwtSigningKey == "" {
		if databaseURL != "" {
			return Server{}, ErrMissingSigningKey
		}
		jwtSigningKey = "dev-only-signing-key"
	}

	return Server{
		Addr:           getEnv("SEIWA_ADDR", ":8080"),
		DatabaseURL:    databaseURL,
		JWTSigningKey:  jwtSigningKey,
		AccessTokenTTL: getEnvDuration("ACCESS_TOKEN_TTL", time.Hour),

		SuperuserUsername: getEnv("SUPERUSER_USERNAME", "admin"),
		SuperuserEmail:    getEnv("SUPERUSER_EMAIL", "admin@example.com"),
		SuperuserPassword: getEnv("SUPERUSER_PASSWORD", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
