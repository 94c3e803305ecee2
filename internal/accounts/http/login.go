package http

import (
	"errors"
	"net/http"

	"github.com/kickoffhq/accounts/internal/accounts/service"
	"github.com/kickoffhq/accounts/pkg/httpx"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

type LoginHandler struct {
	Credentials *service.CredentialService
	Sessions    *service.SessionService
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ServeHTTP handles POST /v1/login.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.Credentials.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// One message for unknown email and wrong password alike.
			httpx.WriteError(w, http.StatusUnauthorized, "incorrect email or password")
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	session, err := h.Sessions.Create(ctx, user.ID)
	if err != nil {
		log.Error("failed to create session", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	setSessionCookie(w, session.ID, session.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

type LogoutHandler struct {
	Sessions *service.SessionService
}

// ServeHTTP handles POST /v1/logout. Idempotent: logging out without a live
// session still clears the cookie and succeeds.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if sessionID := sessionIDFromRequest(r); sessionID != "" {
		if err := h.Sessions.Invalidate(r.Context(), sessionID); err != nil {
			slogx.FromContext(r.Context()).Error("failed to invalidate session", "err", err)
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
