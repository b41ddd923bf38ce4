package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"seiwa/internal/accounts/models"
	"seiwa/pkg/platform/sentinel"
)

// InMemory is the map-backed principal store.
type InMemory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[uuid.UUID]models.User)}
}

func (s *InMemory) CreateIfUsernameAvailable(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return fmt.Errorf("username %q: %w", user.Username, sentinel.ErrConflict)
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
