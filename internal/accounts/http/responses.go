package http

import (
	"time"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
)

// Response DTOs. Hashed passwords and internal ids never leave the service;
// accounts are addressed externally by PublicID only.

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

type accountResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAccountResponse(a domain.Account, role domain.Role) accountResponse {
	return accountResponse{
		ID:        a.PublicID,
		Type:      string(a.Type),
		Name:      a.Name,
		Avatar:    a.Avatar,
		Role:      string(role),
		CreatedAt: a.CreatedAt,
	}
}

type memberResponse struct {
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	Avatar   string    `json:"avatar,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

type accountDetailResponse struct {
	accountResponse
	Members []memberResponse `json:"members"`
}

type inviteResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func toInviteResponse(inv domain.Invite) inviteResponse {
	return inviteResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		Status:    string(inv.Status),
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}

type membershipResponse struct {
	AccountID string    `json:"accountId"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joinedAt"`
}
