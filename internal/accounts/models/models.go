// Package models defines the principal records behind the access-control gate.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal. Username is unique; IsStaff grants the
// administrator capability.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash []byte
	IsStaff      bool
	CreatedAt    time.Time
}

// TokenRequest is the credential payload for POST /auth/token.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Profile is the principal's own view of itself.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsSuperuser bool      `json:"is_superuser"`
}
