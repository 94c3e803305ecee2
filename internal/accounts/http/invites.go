package http

import (
	"errors"
	"net/http"

	"github.com/kickoffhq/accounts/internal/accounts/service"
	"github.com/kickoffhq/accounts/pkg/httpx"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

type InviteResolveHandler struct {
	Invites *service.InviteService
}

// ServeHTTP handles GET /v1/invites?account=&token= behind requireSession.
// The query shape matches the mailed invite link.
func (h *InviteResolveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, ok := principalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	accountID := r.URL.Query().Get("account")
	token := r.URL.Query().Get("token")
	if accountID == "" || token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "account and token are required")
		return
	}

	membership, err := h.Invites.Resolve(ctx, accountID, token, p.User.ID, p.User.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInvite):
			httpx.WriteError(w, http.StatusNotFound, "invite not found")
		case errors.Is(err, service.ErrInviteClaimed):
			httpx.WriteError(w, http.StatusConflict, "invite already claimed or expired")
		case errors.Is(err, service.ErrAlreadyMember):
			httpx.WriteError(w, http.StatusConflict, "already a member of this account")
		default:
			log.Error("invite resolution failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "invite resolution failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, membershipResponse{
		AccountID: membership.AccountID,
		Role:      string(membership.Role),
		JoinedAt:  membership.JoinedAt,
	})
}

type InviteCreateHandler struct {
	Invites *service.InviteService
	Tenancy *service.TenancyService
}

type inviteCreateRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ServeHTTP handles POST /v1/accounts/{publicId}/invites. Only admins of
// the account may invite.
func (h *InviteCreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, ok := principalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req inviteCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "email is required")
		return
	}

	account, err := h.Tenancy.GetAccountByPublicID(ctx, r.PathValue("publicId"))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error("failed to resolve account", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "invite failed")
		return
	}

	if err := h.Tenancy.RequireAdmin(ctx, account.ID, p.User.ID); err != nil {
		if errors.Is(err, service.ErrNotAMember) {
			httpx.WriteError(w, http.StatusForbidden, "admin role required")
			return
		}
		log.Error("failed to check role", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "invite failed")
		return
	}

	invite, _, err := h.Invites.Create(ctx, account.ID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyMember):
			httpx.WriteError(w, http.StatusConflict, "email already belongs to a member")
		case errors.Is(err, service.ErrInvalidInvite):
			httpx.WriteError(w, http.StatusNotFound, "account not found")
		default:
			log.Error("invite creation failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "invite failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toInviteResponse(invite))
}

type InviteListHandler struct {
	Invites *service.InviteService
	Tenancy *service.TenancyService
}

// ServeHTTP handles GET /v1/accounts/{publicId}/invites: the account's
// invite history, admins only. Tokens are never part of the listing.
func (h *InviteListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, ok := principalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	account, err := h.Tenancy.GetAccountByPublicID(ctx, r.PathValue("publicId"))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error("failed to resolve account", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list invites")
		return
	}

	if err := h.Tenancy.RequireAdmin(ctx, account.ID, p.User.ID); err != nil {
		if errors.Is(err, service.ErrNotAMember) {
			httpx.WriteError(w, http.StatusForbidden, "admin role required")
			return
		}
		log.Error("failed to check role", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list invites")
		return
	}

	invites, err := h.Invites.List(ctx, account.ID)
	if err != nil {
		log.Error("failed to list invites", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list invites")
		return
	}

	out := make([]inviteResponse, 0, len(invites))
	for _, inv := range invites {
		out = append(out, toInviteResponse(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
