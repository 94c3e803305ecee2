package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
	"github.com/kickoffhq/accounts/internal/accounts/notify"
	"github.com/kickoffhq/accounts/internal/accounts/store"
	"github.com/kickoffhq/accounts/pkg/cryptox"
	"github.com/kickoffhq/accounts/pkg/idx"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

// DefaultInviteTTL matches the 7-day window invite mails advertise.
const DefaultInviteTTL = 168 * time.Hour

var (
	// ErrAlreadyMember rejects inviting an email that already holds a
	// membership in the account.
	ErrAlreadyMember = errors.New("email already belongs to a member of this account")

	// ErrInvalidInvite covers an unknown (account, token) pair and a token
	// presented by a different email than it was issued to. The two are
	// indistinguishable to the caller.
	ErrInvalidInvite = errors.New("invite not found")

	// ErrInviteClaimed covers every non-pending invite: already accepted,
	// already expired, or expired just now during this read.
	ErrInviteClaimed = errors.New("invite already claimed or expired")
)

// InviteService owns the invite state machine: pending at creation, then a
// single monotone transition to accepted or expired.
type InviteService struct {
	Store    store.Store
	Notifier notify.Notifier
	BaseURL  string
	TTL      time.Duration
}

func (s *InviteService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultInviteTTL
	}
	return s.TTL
}

// Create writes a pending invite for email to join the account, and mails
// the invite link best-effort. Returns the invite and the raw token.
func (s *InviteService) Create(ctx context.Context, accountID, email string) (domain.Invite, string, error) {
	log := slogx.FromContext(ctx)

	// 1. The account must exist.
	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invite{}, "", ErrInvalidInvite
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return domain.Invite{}, "", err
	}

	// 2. Reject emails that already hold a membership. The membership
	// primary key would catch this at acceptance time anyway, but by then
	// the invitee has a useless mail in their inbox.
	isMember, err := s.Store.Memberships().HasMemberWithEmail(ctx, accountID, email)
	if err != nil {
		log.Error("failed to check membership", slog.Any("error", err))
		return domain.Invite{}, "", err
	}
	if isMember {
		log.Warn("invite attempted for existing member", slog.String("account_id", accountID))
		return domain.Invite{}, "", ErrAlreadyMember
	}

	// 3. Invite tokens share the generator with reset keys but live in
	// their own table, so the namespaces never overlap.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return domain.Invite{}, "", err
	}

	now := time.Now().UTC()
	invite := domain.Invite{
		ID:        idx.New().String(),
		AccountID: accountID,
		Email:     email,
		TokenHash: cryptox.FingerprintToken(token),
		Status:    domain.InviteStatusPending,
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.Invites().CreateInvite(ctx, invite); err != nil {
		log.Error("failed to create invite", slog.Any("error", err))
		return domain.Invite{}, "", err
	}

	log.Info("invite created",
		slog.String("invite_id", invite.ID),
		slog.String("account_id", accountID),
		slog.Time("expires_at", invite.ExpiresAt),
	)

	// 4. The URL shape is a data contract with the boundary layer: resolution
	// keys on (accountId, token).
	url := fmt.Sprintf("%s/invites?account=%s&token=%s", s.BaseURL, accountID, token)
	err = s.Notifier.Send(ctx, email, fmt.Sprintf("Join %s", account.Name), notify.TemplateAccountInvite, notify.Params{"url": url})
	if err != nil {
		// Best-effort, but observable: a dropped invite mail strands the
		// invitee with a valid but unreachable token.
		log.Error("failed to send invite email",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
	}

	return invite, token, nil
}

// List returns the account's invite history, newest first. Accepted and
// expired rows are included; they are the audit trail of who was asked in.
func (s *InviteService) List(ctx context.Context, accountID string) ([]domain.Invite, error) {
	return s.Store.Invites().ListAccountInvites(ctx, accountID)
}

// Resolve admits the requester into the account if the token is valid,
// addressed to the requester's email, and still pending. Acceptance inserts
// the membership and flips the status in one transaction, with the flip
// expressed as a conditional update so that of two concurrent resolutions of
// the same token exactly one succeeds.
func (s *InviteService) Resolve(ctx context.Context, accountID, token, requesterUserID, requesterEmail string) (domain.Membership, error) {
	log := slogx.FromContext(ctx)

	// 1. Look up by (account, token fingerprint).
	invite, err := s.Store.Invites().GetInviteByToken(ctx, accountID, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("invite resolution with unknown token", slog.String("account_id", accountID))
			return domain.Membership{}, ErrInvalidInvite
		}
		log.Error("failed to fetch invite", slog.Any("error", err))
		return domain.Membership{}, err
	}

	// 2. Invites are email-bound, not just token-bound: a forwarded link
	// does not work for a different identity.
	if invite.Email != requesterEmail {
		log.Warn("invite resolution with mismatched email", slog.String("invite_id", invite.ID))
		return domain.Membership{}, ErrInvalidInvite
	}

	// 3. Expiry is checked against the clock before the stored status, and
	// an expired-but-still-pending row is transitioned as a side effect of
	// this read. The conditional write keeps a concurrent acceptance from
	// being overwritten.
	if invite.Status == domain.InviteStatusPending && invite.Expired(time.Now().UTC()) {
		if _, err := s.Store.Invites().ExpireInvite(ctx, invite.ID); err != nil {
			log.Error("failed to expire invite", slog.Any("error", err))
			return domain.Membership{}, err
		}
		return domain.Membership{}, ErrInviteClaimed
	}

	if invite.Status != domain.InviteStatusPending {
		return domain.Membership{}, ErrInviteClaimed
	}

	// 4. Acceptance: flip the status first, conditionally, then insert the
	// membership. If the flip reports zero rows another caller already won;
	// if the insert fails the rollback un-flips the status.
	membership := domain.Membership{
		AccountID: invite.AccountID,
		UserID:    requesterUserID,
		Role:      domain.RoleMember,
		JoinedAt:  time.Now().UTC(),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		accepted, err := tx.Invites().AcceptInvite(ctx, invite.ID)
		if err != nil {
			return err
		}
		if !accepted {
			return ErrInviteClaimed
		}
		return tx.Memberships().CreateMembership(ctx, membership)
	})
	if err != nil {
		if errors.Is(err, ErrInviteClaimed) {
			log.Warn("invite resolved twice", slog.String("invite_id", invite.ID))
			return domain.Membership{}, ErrInviteClaimed
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Membership{}, ErrAlreadyMember
		}
		log.Error("failed to accept invite", slog.Any("error", err))
		return domain.Membership{}, err
	}

	log.Info("invite accepted",
		slog.String("invite_id", invite.ID),
		slog.String("account_id", invite.AccountID),
		slog.String("user_id", requesterUserID),
	)
	return membership, nil
}
