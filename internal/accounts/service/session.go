package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
	"github.com/kickoffhq/accounts/internal/accounts/store"
	"github.com/kickoffhq/accounts/pkg/cryptox"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

// DefaultSessionTTL is the fixed session lifetime. There is no sliding
// expiry; a session lives exactly this long from creation.
const DefaultSessionTTL = 30 * 24 * time.Hour

// ErrSessionInvalid covers missing and expired sessions alike.
var ErrSessionInvalid = errors.New("session invalid or expired")

// SessionService issues and invalidates opaque bearer sessions. The session
// id is the cookie value; the boundary layer owns the cookie itself.
type SessionService struct {
	Store store.Store
	TTL   time.Duration
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultSessionTTL
	}
	return s.TTL
}

// Create issues a new session for the user.
func (s *SessionService) Create(ctx context.Context, userID string) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	id, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate session id", slog.Any("error", err))
		return domain.Session{}, err
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		log.Error("failed to create session", slog.Any("error", err))
		return domain.Session{}, err
	}
	return session, nil
}

// Validate resolves a bearer id to a live session. Expired rows are deleted
// on sight; expiry is only ever checked lazily like this, never by a timer.
func (s *SessionService) Validate(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrSessionInvalid
		}
		return domain.Session{}, err
	}

	if session.Expired(time.Now().UTC()) {
		_ = s.Store.Sessions().DeleteSession(ctx, sessionID)
		return domain.Session{}, ErrSessionInvalid
	}
	return session, nil
}

// Invalidate deletes one session. Idempotent: invalidating a session that is
// already gone is not an error.
func (s *SessionService) Invalidate(ctx context.Context, sessionID string) error {
	return s.Store.Sessions().DeleteSession(ctx, sessionID)
}

// InvalidateAll deletes every session of the user. Used on password reset
// and account deletion so stolen or stale sessions stop working immediately.
func (s *SessionService) InvalidateAll(ctx context.Context, userID string) error {
	log := slogx.FromContext(ctx)

	if err := s.Store.Sessions().DeleteUserSessions(ctx, userID); err != nil {
		log.Error("failed to invalidate user sessions",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return err
	}

	log.Debug("all sessions invalidated", slog.String("user_id", userID))
	return nil
}
