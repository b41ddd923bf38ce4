package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"seiwa/internal/accounts/handler"
	"seiwa/internal/accounts/models"
	"seiwa/internal/accounts/service"
	"seiwa/internal/accounts/store"
	jwttoken "seiwa/internal/jwt_token"
	"seiwa/internal/platform/middleware"
	"seiwa/pkg/testutil"
)

type fixture struct {
	router chi.Router
	store  *store.InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewInMemory()
	jwtSvc := jwttoken.NewJWTService("test-signing-key", "seiwa", "seiwa-api")
	svc := service.New(st, jwtSvc, 15*time.Minute, logger)
	h := handler.New(svc, logger)

	r := chi.NewRouter()
	r.Post("/auth/token", h.HandleToken)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtSvc), logger))
		r.Get("/profile", h.HandleProfile)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logger))
			r.Get("/admin-test", h.HandleAdminTest)
		})
	})

	return &fixture{router: r, store: st}
}

func (f *fixture) seedUser(t *testing.T, username, password string, staff bool) *models.User {
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
	require.NoError(t, f.store.CreateIfUsernameAvailable(context.Background(), user))
	return user
}

func (f *fixture) login(t *testing.T, username, password string) string {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/token", models.TokenRequest{
		Username: username,
		Password: password,
	})
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[models.TokenResponse](t, rr)
	return resp.AccessToken
}

func TestTokenEndpoint(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "ana", "s3cret", false)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/token", models.TokenRequest{
		Username: "ana",
		Password: "s3cret",
	})
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusOK(t, rr)

	resp := testutil.UnmarshalResponse[models.TokenResponse](t, rr)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
}

func TestTokenEndpointBadCredentials(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "ana", "s3cret", false)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/token", models.TokenRequest{
		Username: "ana",
		Password: "wrong",
	})
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestTokenEndpointBadBody(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequestWithBody(t, http.MethodPost, "/auth/token", "{broken"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestProfileRequiresAuth(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/profile"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestProfileReturnsCaller(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "ana", "s3cret", false)
	token := f.login(t, "ana", "s3cret")

	req := testutil.NewRequest(t, http.MethodGet, "/profile")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusOK(t, rr)

	profile := testutil.UnmarshalResponse[models.Profile](t, rr)
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "ana", profile.Username)
	assert.False(t, profile.IsSuperuser)
}

func TestAdminTestBlocksNonStaff(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "ana", "s3cret", false)
	token := f.login(t, "ana", "s3cret")

	req := testutil.NewRequest(t, http.MethodGet, "/admin-test")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestAdminTestAllowsStaff(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "root", "s3cret", true)
	token := f.login(t, "root", "s3cret")

	req := testutil.NewRequest(t, http.MethodGet, "/admin-test")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "message", "You are a superuser and can access this!")
}

func TestAdminTestRejectsGarbageToken(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewRequest(t, http.MethodGet, "/admin-test")
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}
