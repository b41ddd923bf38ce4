package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"seiwa/internal/accounts/models"
	"seiwa/pkg/platform/sentinel"
)

// SeedSuperuser creates the bootstrap administrator from environment-provided
// credentials when no user with that username exists. It is idempotent: on a
// username conflict it leaves the existing user untouched.
func SeedSuperuser(ctx context.Context, st Store, username, email, password string, logger *slog.Logger) error {
	if password == "" {
		logger.InfoContext(ctx, "superuser seed skipped - no password configured")
		return nil
	}

	if _, err := st.FindByUsername(ctx, username); err == nil {
		logger.InfoContext(ctx, "superuser already exists", "username", username)
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsStaff:      true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := st.CreateIfUsernameAvailable(ctx, user); err != nil {
		// A concurrent boot may have won the race; that still means seeded.
		if errors.Is(err, sentinel.ErrConflict) {
			return nil
		}
		return err
	}

	logger.InfoContext(ctx, "superuser created", "username", username)
	return nil
}
