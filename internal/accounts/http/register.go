package http

import (
	"errors"
	"net/http"

	"github.com/kickoffhq/accounts/internal/accounts/service"
	"github.com/kickoffhq/accounts/pkg/httpx"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

type RegisterHandler struct {
	Credentials *service.CredentialService
	Sessions    *service.SessionService
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// ServeHTTP handles POST /v1/register. A fresh session cookie is issued so
// signup doubles as login.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "email and password (8-128 chars) are required")
		return
	}

	user, err := h.Credentials.Register(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			httpx.WriteError(w, http.StatusConflict, "email already registered")
			return
		}
		log.Error("registration failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	session, err := h.Sessions.Create(ctx, user.ID)
	if err != nil {
		// The account exists; the user can still log in normally.
		log.Error("failed to create session after registration", "err", err)
		httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
		return
	}

	setSessionCookie(w, session.ID, session.ExpiresAt)
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}
