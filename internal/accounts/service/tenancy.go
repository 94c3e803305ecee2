package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
	"github.com/kickoffhq/accounts/internal/accounts/store"
	"github.com/kickoffhq/accounts/pkg/cryptox"
	"github.com/kickoffhq/accounts/pkg/idx"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

const (
	accountNameMinLen = 6
	accountNameMaxLen = 64
)

var (
	ErrInvalidAccountName = errors.New("account name must be 6-64 characters")
	ErrAccountNotFound    = errors.New("account not found")
	ErrNotAMember         = errors.New("not a member of this account")
)

// TenancyService owns accounts and role-scoped memberships: team creation,
// leaving, deletion with cascading cleanup, and the full removal of a user.
type TenancyService struct {
	Store    store.Store
	Sessions *SessionService
}

// CreateTeamAccount creates a team account and an admin membership for its
// creator, atomically.
func (s *TenancyService) CreateTeamAccount(ctx context.Context, creatorUserID, name string) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	name, err := validAccountName(name)
	if err != nil {
		return domain.Account{}, err
	}

	publicID, err := cryptox.GenerateToken(publicIDSize)
	if err != nil {
		return domain.Account{}, err
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:        idx.New().String(),
		PublicID:  publicID,
		Type:      domain.AccountTypeTeam,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().CreateAccount(ctx, account); err != nil {
			return err
		}
		return tx.Memberships().CreateMembership(ctx, domain.Membership{
			AccountID: account.ID,
			UserID:    creatorUserID,
			Role:      domain.RoleAdmin,
			JoinedAt:  now,
		})
	})
	if err != nil {
		log.Error("failed to create team account", slog.Any("error", err))
		return domain.Account{}, err
	}

	log.Info("team account created",
		slog.String("account_id", account.ID),
		slog.String("creator_user_id", creatorUserID),
	)
	return account, nil
}

// RenameAccount updates the display name, validated the same as creation.
func (s *TenancyService) RenameAccount(ctx context.Context, accountID, name string) error {
	name, err := validAccountName(name)
	if err != nil {
		return err
	}
	return s.Store.Accounts().RenameAccount(ctx, accountID, name)
}

// Leave removes the user's membership. A missing membership is a no-op, and
// the account is kept even when its last member leaves; an empty team
// remains addressable by its admins-to-be via invite history.
func (s *TenancyService) Leave(ctx context.Context, accountID, userID string) error {
	return s.Store.Memberships().DeleteMembership(ctx, accountID, userID)
}

// DeleteAccount removes the account; memberships and invites cascade at the
// storage layer. Member users are untouched.
func (s *TenancyService) DeleteAccount(ctx context.Context, accountID string) error {
	log := slogx.FromContext(ctx)

	if err := s.Store.Accounts().DeleteAccount(ctx, accountID); err != nil {
		log.Error("failed to delete account", slog.String("account_id", accountID), slog.Any("error", err))
		return err
	}

	log.Info("account deleted", slog.String("account_id", accountID))
	return nil
}

// DeleteUser removes the user entirely: all memberships, the personal
// account, and the user row in one transaction, children before parents so
// no foreign key is ever dangling mid-flight. Sessions are invalidated
// afterwards; the cookie dies with them.
func (s *TenancyService) DeleteUser(ctx context.Context, userID string) error {
	log := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Memberships().DeleteUserMemberships(ctx, userID); err != nil {
			return err
		}

		personal, err := tx.Accounts().GetPersonalAccount(ctx, userID)
		switch {
		case err == nil:
			if err := tx.Accounts().DeleteAccount(ctx, personal.ID); err != nil {
				return err
			}
		case errors.Is(err, store.ErrNotFound):
			// Nothing to delete; tolerate a half-registered identity.
		default:
			return err
		}

		return tx.Users().DeleteUser(ctx, userID)
	})
	if err != nil {
		log.Error("failed to delete user", slog.String("user_id", userID), slog.Any("error", err))
		return err
	}

	if err := s.Sessions.InvalidateAll(ctx, userID); err != nil {
		return err
	}

	log.Info("user deleted", slog.String("user_id", userID))
	return nil
}

// ListUserAccounts returns every account the user belongs to with the
// user's role in each.
func (s *TenancyService) ListUserAccounts(ctx context.Context, userID string) ([]domain.AccountMembership, error) {
	return s.Store.Memberships().ListUserMemberships(ctx, userID)
}

// GetAccountDetail returns an account by public id together with its member
// list, provided the requester is a member.
func (s *TenancyService) GetAccountDetail(ctx context.Context, publicID, requesterUserID string) (domain.Account, []domain.Member, error) {
	account, err := s.Store.Accounts().GetAccountByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, nil, ErrAccountNotFound
		}
		return domain.Account{}, nil, err
	}

	if _, err := s.Store.Memberships().GetMembership(ctx, account.ID, requesterUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, nil, ErrNotAMember
		}
		return domain.Account{}, nil, err
	}

	members, err := s.Store.Memberships().ListMembers(ctx, account.ID)
	if err != nil {
		return domain.Account{}, nil, err
	}
	return account, members, nil
}

// GetAccountByPublicID resolves the externally visible account id.
func (s *TenancyService) GetAccountByPublicID(ctx context.Context, publicID string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetAccountByPublicID(ctx, publicID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	return account, err
}

// RequireMember checks that the user belongs to the account.
func (s *TenancyService) RequireMember(ctx context.Context, accountID, userID string) error {
	_, err := s.Store.Memberships().GetMembership(ctx, accountID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotAMember
	}
	return err
}

// RequireAdmin checks that the user holds the admin role in the account.
// Non-members and plain members get the same error; role is not leaked to
// outsiders.
func (s *TenancyService) RequireAdmin(ctx context.Context, accountID, userID string) error {
	membership, err := s.Store.Memberships().GetMembership(ctx, accountID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotAMember
	}
	if err != nil {
		return err
	}
	if membership.Role != domain.RoleAdmin {
		return ErrNotAMember
	}
	return nil
}

func validAccountName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < accountNameMinLen || len(name) > accountNameMaxLen {
		return "", ErrInvalidAccountName
	}
	return name, nil
}
