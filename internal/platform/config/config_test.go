package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvRequiresSigningKeyWithDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/seiwa")
	t.Setenv("JWT_SIGNING_KEY", "")

	_, err := FromEnv()
	require.ErrorIs(t, err, ErrMissingSigningKey)
}

func TestFromEnvDevFallbackWithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SIGNING_KEY", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.JWTSigningKey)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
}

func TestFromEnvExplicitValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/seiwa")
	t.Setenv("JWT_SIGNING_KEY", "sekret")
	t.Setenv("SEIWA_ADDR", ":9999")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("SUPERUSER_USERNAME", "root")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sekret", cfg.JWTSigningKey)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "root", cfg.SuperuserUsername)
}

func TestFromEnvTTLInSeconds(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("ACCESS_TOKEN_TTL", "900")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}
