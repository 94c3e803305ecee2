package http

import (
	"errors"
	"net/http"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
	"github.com/kickoffhq/accounts/internal/accounts/service"
	"github.com/kickoffhq/accounts/pkg/httpx"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

type AccountsHandler struct {
	Tenancy *service.TenancyService
}

type createAccountRequest struct {
	Name string `json:"name" validate:"required"`
}

// HandleCreate handles POST /v1/accounts: a new team account with the
// caller as its first admin.
func (h *AccountsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, ok := principalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	account, err := h.Tenancy.CreateTeamAccount(ctx, p.User.ID, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAccountName) {
			httpx.WriteError(w, http.StatusBadRequest, "account name must be 6-64 characters")
			return
		}
		log.Error("account creation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "account creation failed")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toAccountResponse(account, domain.RoleAdmin))
}

// HandleList handles GET /v1/accounts: every account the caller belongs to,
// with the caller's role in each.
func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := principalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	memberships, err := h.Tenancy.ListUserAccounts(ctx, p.User.ID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list accounts", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	out := make([]accountResponse, 0, len(memberships))
	for _, am := range memberships {
		out = append(out, toAccountResponse(am.Account, am.Membership.Role))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleDetail handles GET /v1/accounts/{publicId}: the account and its
// member list, members only.
func (h *AccountsHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := principalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	account, members, err := h.Tenancy.GetAccountDetail(ctx, r.PathValue("publicId"), p.User.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			httpx.WriteError(w, http.StatusNotFound, "account not found")
		case errors.Is(err, service.ErrNotAMember):
			httpx.WriteError(w, http.StatusForbidden, "not a member of this account")
		default:
			slogx.FromContext(ctx).Error("failed to fetch account", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "failed to fetch account")
		}
		return
	}

	detail := accountDetailResponse{
		accountResponse: toAccountResponse(account, ""),
		Members:         make([]memberResponse, 0, len(members)),
	}
	for _, m := range members {
		detail.Members = append(detail.Members, memberResponse{
			UserID:   m.UserID,
			Email:    m.Email,
			Avatar:   m.Avatar,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		})
		if m.UserID == p.User.ID {
			detail.Role = string(m.Role)
		}
	}
	httpx.WriteJSON(w, http.StatusOK, detail)
}

// HandleLeave handles POST /v1/accounts/{publicId}/leave. Leaving an
// account the caller is not in succeeds quietly.
func (h *AccountsHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

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
		slogx.FromContext(ctx).Error("failed to resolve account", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "leave failed")
		return
	}

	if err := h.Tenancy.Leave(ctx, account.ID, p.User.ID); err != nil {
		slogx.FromContext(ctx).Error("leave failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "leave failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /v1/accounts/{publicId}. Admins only;
// memberships and pending invites go with the account, member users stay.
func (h *AccountsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
		httpx.WriteError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	if err := h.Tenancy.RequireAdmin(ctx, account.ID, p.User.ID); err != nil {
		if errors.Is(err, service.ErrNotAMember) {
			httpx.WriteError(w, http.StatusForbidden, "admin role required")
			return
		}
		log.Error("failed to check role", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	// Personal accounts are only deleted together with their user.
	if account.Type == domain.AccountTypePersonal {
		httpx.WriteError(w, http.StatusBadRequest, "personal accounts cannot be deleted directly")
		return
	}

	if err := h.Tenancy.DeleteAccount(ctx, account.ID); err != nil {
		log.Error("account deletion failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
