package http

import (
	"net/http"

	"github.com/kickoffhq/accounts/internal/accounts/service"
	"github.com/kickoffhq/accounts/pkg/httpx"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

type ProfileHandler struct {
	Credentials *service.CredentialService
	Tenancy     *service.TenancyService
}

type updateProfileRequest struct {
	Avatar string `json:"avatar" validate:"required,url"`
}

// HandleUpdate handles PATCH /v1/profile.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := principalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "avatar must be a URL")
		return
	}

	if err := h.Credentials.UpdateAvatar(ctx, p.User.ID, req.Avatar); err != nil {
		slogx.FromContext(ctx).Error("avatar update failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "profile update failed")
		return
	}

	user, err := h.Credentials.GetUser(ctx, p.User.ID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to fetch profile", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "profile update failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleDelete handles DELETE /v1/profile: the caller's memberships,
// personal account, user row, and sessions all go, then the cookie.
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := principalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Tenancy.DeleteUser(ctx, p.User.ID); err != nil {
		slogx.FromContext(ctx).Error("user deletion failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "deletion failed")
		return
	}

	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
