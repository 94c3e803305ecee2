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

// DefaultResetTTL is how long a mailed reset link stays valid.
const DefaultResetTTL = 10 * time.Minute

var (
	ErrResetTokenNotFound = errors.New("reset token not found")
	ErrResetTokenExpired  = errors.New("reset token expired")
)

// ResetService owns the password-reset token slot: one live token per user,
// rotated in place, consumed once.
type ResetService struct {
	Store       store.Store
	Notifier    notify.Notifier
	Sessions    *SessionService
	Credentials *CredentialService
	BaseURL     string
	TTL         time.Duration
}

func (s *ResetService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultResetTTL
	}
	return s.TTL
}

// IssueOrRotate writes the user's single token slot: insert when absent,
// overwrite key and expiry when present. Only the most recently issued key
// is ever valid. Returns the stored row and the raw key for the mail link.
func (s *ResetService) IssueOrRotate(ctx context.Context, userID string, ttl time.Duration) (domain.ResetToken, string, error) {
	key, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.ResetToken{}, "", err
	}

	now := time.Now().UTC()
	token := domain.ResetToken{
		ID:        idx.New().String(),
		UserID:    userID,
		KeyHash:   cryptox.FingerprintToken(key),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.ResetTokens().UpsertResetToken(ctx, token); err != nil {
		return domain.ResetToken{}, "", err
	}
	return token, key, nil
}

// Consume resolves a raw key to its owning user. The row is left in place,
// including when expired; deletion is the caller's move once the reset
// actually succeeds.
func (s *ResetService) Consume(ctx context.Context, key string) (string, error) {
	token, err := s.Store.ResetTokens().GetResetTokenByKey(ctx, cryptox.FingerprintToken(key))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrResetTokenNotFound
		}
		return "", err
	}

	if token.Expired(time.Now().UTC()) {
		return "", ErrResetTokenExpired
	}
	return token.UserID, nil
}

// Request starts the reset flow for an email address. It reports success
// regardless of whether the email is registered, so the response carries no
// enumeration signal. For a real user it rotates the token slot, kills all
// live sessions, scrambles the stored hash so the old password stops
// working, and mails the single-use link.
func (s *ResetService) Request(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("password reset requested for unknown email")
			return nil
		}
		log.Error("failed to fetch user for reset", slog.Any("error", err))
		return err
	}

	// 1. Rotate the token slot.
	_, key, err := s.IssueOrRotate(ctx, user.ID, s.ttl())
	if err != nil {
		log.Error("failed to rotate reset token", slog.Any("error", err))
		return err
	}

	// 2. Old sessions and the old password are both dead from here on; only
	// the mailed link gets back in.
	if err := s.Sessions.InvalidateAll(ctx, user.ID); err != nil {
		return err
	}
	scrambled := cryptox.MustGenerateToken(cryptox.TokenSize256)
	if err := s.Credentials.ResetPassword(ctx, user.ID, scrambled); err != nil {
		log.Error("failed to scramble password", slog.Any("error", err))
		return err
	}

	// 3. The URL shape is a data contract with the boundary layer; Complete
	// keys on (userId, token).
	url := fmt.Sprintf("%s/reset-password/%s?token=%s", s.BaseURL, user.ID, key)
	err = s.Notifier.Send(ctx, email, "Reset Password", notify.TemplateResetPassword, notify.Params{"url": url})
	if err != nil {
		// Best-effort, but must be observable: a dropped mail strands the
		// user with a valid but unreachable token.
		log.Error("failed to send reset email",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	log.Info("password reset requested", slog.String("user_id", user.ID))
	return nil
}

// Complete finishes the reset flow: the key must resolve to the same user
// the link was issued for. On success the new hash is written and the token
// slot deleted atomically, then every session is invalidated.
func (s *ResetService) Complete(ctx context.Context, userID, key, newPassword string) error {
	log := slogx.FromContext(ctx)

	tokenUserID, err := s.Consume(ctx, key)
	if err != nil {
		return err
	}
	if tokenUserID != userID {
		// A valid key pasted under a different user's URL is treated the
		// same as an unknown key.
		return ErrResetTokenNotFound
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateHashedPassword(ctx, userID, hash); err != nil {
			return err
		}
		return tx.ResetTokens().DeleteResetToken(ctx, userID)
	})
	if err != nil {
		log.Error("failed to complete password reset", slog.Any("error", err))
		return err
	}

	if err := s.Sessions.InvalidateAll(ctx, userID); err != nil {
		return err
	}

	log.Info("password reset completed", slog.String("user_id", userID))
	return nil
}
