package http

import (
	"errors"
	"net/http"

	"github.com/kickoffhq/accounts/internal/accounts/service"
	"github.com/kickoffhq/accounts/pkg/httpx"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

type ResetRequestHandler struct {
	Reset *service.ResetService
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ServeHTTP handles POST /v1/reset-password. The response is 202 whether or
// not the email is registered; the body must never reveal which.
func (h *ResetRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.Reset.Request(ctx, req.Email); err != nil {
		slogx.FromContext(ctx).Error("reset request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "reset request failed")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

type ResetCompleteHandler struct {
	Reset *service.ResetService
}

type resetCompleteRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// ServeHTTP handles POST /v1/reset-password/{userId}. The single-use key
// arrives in the token query parameter, matching the mailed link.
func (h *ResetCompleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.PathValue("userId")
	key := r.URL.Query().Get("token")
	if key == "" {
		httpx.WriteError(w, http.StatusBadRequest, "token is required")
		return
	}

	var req resetCompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "password (8-128 chars) is required")
		return
	}

	if err := h.Reset.Complete(ctx, userID, key, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrResetTokenNotFound):
			httpx.WriteError(w, http.StatusNotFound, "reset link is invalid")
		case errors.Is(err, service.ErrResetTokenExpired):
			httpx.WriteError(w, http.StatusGone, "reset link has expired")
		default:
			log.Error("reset completion failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "reset failed")
		}
		return
	}

	// Every old session is dead; the browser must log in fresh.
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
