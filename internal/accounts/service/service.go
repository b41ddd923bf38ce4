// Package service authenticates principals and answers profile lookups.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"seiwa/internal/accounts/models"
	"seiwa/internal/accounts/store"
	jwttoken "seiwa/internal/jwt_token"
	dErrors "seiwa/pkg/domain-errors"
	"seiwa/pkg/platform/sentinel"
)

// Service issues access tokens and serves principal self-info.
type Service struct {
	store    store.Store
	jwt      *jwttoken.JWTService
	tokenTTL time.Duration
	logger   *slog.Logger
}

func New(st store.Store, jwt *jwttoken.JWTService, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{store: st, jwt: jwt, tokenTTL: tokenTTL, logger: logger}
}

// IssueToken verifies the credentials and returns a signed access token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) IssueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username and password are required")
	}

	user, err := s.store.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		s.logger.ErrorContext(ctx, "user lookup failed", "error", err.Error())
		return nil, dErrors.New(dErrors.CodeInternal, "authentication failed")
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		s.logger.WarnContext(ctx, "failed login attempt", "username", req.Username)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Username, user.IsStaff, s.tokenTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "token generation failed", "error", err.Error())
		return nil, dErrors.New(dErrors.CodeInternal, "authentication failed")
	}

	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}

// Profile returns the calling principal's own record.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		s.logger.ErrorContext(ctx, "user lookup failed", "error", err.Error())
		return nil, dErrors.New(dErrors.CodeInternal, "profile lookup failed")
	}
	return &models.Profile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		IsSuperuser: user.IsStaff,
	}, nil
}
