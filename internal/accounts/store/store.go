// Package store persists principal records.
package store

import (
	"context"

	"github.com/google/uuid"

	"seiwa/internal/accounts/models"
)

// Store is the persistence surface for principals.
type Store interface {
	// CreateIfUsernameAvailable inserts the user, failing with
	// sentinel.ErrConflict when the username is taken.
	CreateIfUsernameAvailable(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}
