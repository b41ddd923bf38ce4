// Package handler exposes authentication and principal self-info endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"seiwa/internal/accounts/models"
	"seiwa/internal/accounts/service"
	"seiwa/internal/platform/middleware"
	"seiwa/internal/transport/http/shared"
	dErrors "seiwa/pkg/domain-errors"
)

type Handler struct {
	logger   *slog.Logger
	accounts *service.Service
}

func New(accounts *service.Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, accounts: accounts}
}

// HandleToken issues an access token for valid credentials. Mounted outside
// the auth group: it is how principals obtain credentials in the first place.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	resp, err := h.accounts.IssueToken(r.Context(), &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

// HandleProfile returns the calling principal's own identity. Requires only
// an authenticated principal.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		// Only reachable if the auth middleware is miswired.
		h.logger.ErrorContext(ctx, "user id missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	profile, err := h.accounts.Profile(ctx, userID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}

// HandleAdminTest is the administrator-only probe; RequireAdmin has already
// vetted the principal by the time this runs.
func (h *Handler) HandleAdminTest(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "You are a superuser and can access this!",
	})
}
