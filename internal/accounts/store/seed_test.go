package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSeedSuperuser(t *testing.T) {
	st := NewInMemory()
	ctx := context.Background()

	require.NoError(t, SeedSuperuser(ctx, st, "admin", "admin@example.com", "s3cret", discardLogger()))

	user, err := st.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("s3cret")))
}

func TestSeedSuperuserSkipsWithoutPassword(t *testing.T) {
	st := NewInMemory()
	ctx := context.Background()

	require.NoError(t, SeedSuperuser(ctx, st, "admin", "admin@example.com", "", discardLogger()))

	_, err := st.FindByUsername(ctx, "admin")
	assert.Error(t, err, "no user is created without a configured password")
}

func TestSeedSuperuserIdempotent(t *testing.T) {
	st := NewInMemory()
	ctx := context.Background()

	require.NoError(t, SeedSuperuser(ctx, st, "admin", "admin@example.com", "first", discardLogger()))
	require.NoError(t, SeedSuperuser(ctx, st, "admin", "admin@example.com", "second", discardLogger()))

	user, err := st.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("first")),
		"a rerun must not overwrite the existing user")
}
