package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"seiwa/internal/accounts/models"
	"seiwa/internal/accounts/store"
	jwttoken "seiwa/internal/jwt_token"
	dErrors "seiwa/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *store.InMemory, *jwttoken.JWTService) {
	t.Helper()
	st := store.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtSvc := jwttoken.NewJWTService("test-signing-key", "seiwa", "seiwa-api")
	return New(st, jwtSvc, 15*time.Minute, logger), st, jwtSvc
}

func seedUser(t *testing.T, st *store.InMemory, username, password string, staff bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsStaff:      staff,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.CreateIfUsernameAvailable(context.Background(), user))
	return user
}

func TestIssueToken(t *testing.T) {
	svc, st, jwtSvc := newTestService(t)
	user := seedUser(t, st, "ana", "s3cret", false)

	resp, err := svc.IssueToken(context.Background(), &models.TokenRequest{
		Username: "ana",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	claims, err := jwtSvc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "ana", claims.Username)
	assert.False(t, claims.Staff)
}

func TestIssueTokenCarriesStaffFlag(t *testing.T) {
	svc, st, jwtSvc := newTestService(t)
	seedUser(t, st, "root", "s3cret", true)

	resp, err := svc.IssueToken(context.Background(), &models.TokenRequest{
		Username: "root",
		Password: "s3cret",
	})
	require.NoError(t, err)

	claims, err := jwtSvc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.Staff)
}

func TestIssueTokenRejections(t *testing.T) {
	svc, st, _ := newTestService(t)
	seedUser(t, st, "ana", "s3cret", false)

	tests := []struct {
		name string
		req  models.TokenRequest
		code dErrors.Code
	}{
		{name: "wrong password", req: models.TokenRequest{Username: "ana", Password: "wrong"}, code: dErrors.CodeUnauthorized},
		{name: "unknown user", req: models.TokenRequest{Username: "ghost", Password: "s3cret"}, code: dErrors.CodeUnauthorized},
		{name: "missing username", req: models.TokenRequest{Password: "s3cret"}, code: dErrors.CodeBadRequest},
		{name: "missing password", req: models.TokenRequest{Username: "ana"}, code: dErrors.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.IssueToken(context.Background(), &tt.req)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, tt.code))
		})
	}
}

func TestIssueTokenIndistinguishableFailures(t *testing.T) {
	svc, st, _ := newTestService(t)
	seedUser(t, st, "ana", "s3cret", false)
	ctx := context.Background()

	_, wrongPass := svc.IssueToken(ctx, &models.TokenRequest{Username: "ana", Password: "wrong"})
	_, unknownUser := svc.IssueToken(ctx, &models.TokenRequest{Username: "ghost", Password: "wrong"})

	// Same message either way, so the endpoint does not leak which usernames exist.
	assert.Equal(t, wrongPass.Error(), unknownUser.Error())
}

func TestProfile(t *testing.T) {
	svc, st, _ := newTestService(t)
	user := seedUser(t, st, "root", "s3cret", true)

	profile, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "root", profile.Username)
	assert.Equal(t, "root@example.com", profile.Email)
	assert.True(t, profile.IsSuperuser)
}

func TestProfileUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Profile(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
