package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
	"github.com/kickoffhq/accounts/internal/accounts/notify"
	"github.com/kickoffhq/accounts/internal/accounts/store"
	"github.com/kickoffhq/accounts/pkg/cryptox"
	"github.com/kickoffhq/accounts/pkg/idx"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

var (
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	// Callers must never distinguish the two.
	ErrInvalidCredentials = errors.New("incorrect email or password")
)

// publicIDSize is the byte length of Account.PublicID before base64url
// encoding (12 chars encoded).
const publicIDSize = 9

// dummyHash is verified against when the email does not exist, so the
// authentication failure path costs the same either way and response timing
// does not reveal whether an email is registered.
var dummyHash = func() string {
	h, err := cryptox.HashPassword(cryptox.MustGenerateToken(cryptox.TokenSize128))
	if err != nil {
		panic(err)
	}
	return h
}()

// CredentialService owns password hashing, identity lookup, and the atomic
// registration unit (user + personal account + admin membership).
type CredentialService struct {
	Store    store.Store
	Notifier notify.Notifier
}

// Register creates a User with a hashed password, a personal Account named
// after the email's local part, and an admin Membership, as one atomic unit.
// A welcome email is sent best-effort after the commit.
func (s *CredentialService) Register(ctx context.Context, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Hash the password before opening the transaction; argon2 work does
	// not belong inside it.
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:             idx.New().String(),
		Email:          email,
		HashedPassword: hash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// 2. User, personal account, and admin membership commit together or
	// not at all.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}

		publicID, err := cryptox.GenerateToken(publicIDSize)
		if err != nil {
			return err
		}

		personal := domain.Account{
			ID:          idx.New().String(),
			PublicID:    publicID,
			Type:        domain.AccountTypePersonal,
			Name:        emailLocalPart(email),
			OwnerUserID: user.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Accounts().CreateAccount(ctx, personal); err != nil {
			return err
		}

		return tx.Memberships().CreateMembership(ctx, domain.Membership{
			AccountID: personal.ID,
			UserID:    user.ID,
			Role:      domain.RoleAdmin,
			JoinedAt:  now,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("registration attempted with taken email")
			return domain.User{}, ErrEmailTaken
		}
		log.Error("failed to register user", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("user registered", slog.String("user_id", user.ID))

	// 3. Welcome mail is best-effort; a mail outage must not fail signup.
	if err := s.Notifier.Send(ctx, email, "Welcome!", notify.TemplateWelcome, nil); err != nil {
		log.Warn("failed to send welcome email", slog.Any("error", err))
	}

	return user, nil
}

// Authenticate verifies the password for the given email and returns the
// user. The error path is uniform for unknown emails and wrong passwords.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same verification work as the real path.
			_ = cryptox.VerifyPassword(password, dummyHash)
			return domain.User{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.HashedPassword); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, ErrInvalidCredentials
		}
		log.Error("failed to verify password", slog.Any("error", err))
		return domain.User{}, err
	}

	return user, nil
}

// ResetPassword rewrites the stored hash. Session invalidation is the
// caller's responsibility; see ResetService.Complete.
func (s *CredentialService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Store.Users().UpdateHashedPassword(ctx, userID, hash)
}

// GetUser fetches a user by id.
func (s *CredentialService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// UpdateAvatar sets the profile avatar.
func (s *CredentialService) UpdateAvatar(ctx context.Context, userID, avatar string) error {
	return s.Store.Users().UpdateAvatar(ctx, userID, avatar)
}

// emailLocalPart returns everything before the first '@'. Used only as the
// initial display name of the personal account; the structural link is
// Account.OwnerUserID.
func emailLocalPart(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
