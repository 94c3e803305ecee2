package store

import (
	"context"
	"errors"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and transaction scoping so multi-table operations (register,
// invite acceptance, user deletion) commit all-or-nothing.
type Store interface {
	Users() Users
	Sessions() Sessions
	Accounts() Accounts
	Memberships() Memberships
	Invites() Invites
	ResetTokens() ResetTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended entry point for atomic multi-step operations.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and reset-request flows. The email
	// is matched exactly as stored.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateHashedPassword rewrites the stored hash and bumps updated_at.
	UpdateHashedPassword(ctx context.Context, userID, newHash string) error

	// UpdateAvatar sets the avatar and bumps updated_at.
	UpdateAvatar(ctx context.Context, userID, avatar string) error

	// DeleteUser removes the user row. Sessions and reset tokens cascade per
	// schema; memberships and the personal account are the caller's job.
	DeleteUser(ctx context.Context, userID string) error
}

type Sessions interface {
	// CreateSession stores a new session row.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID returns a session by its opaque bearer id. Expiry is the
	// caller's concern; expired rows are still returned.
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// DeleteSession removes one session. Deleting an absent session is not
	// an error.
	DeleteSession(ctx context.Context, id string) error

	// DeleteUserSessions removes every session belonging to the user.
	DeleteUserSessions(ctx context.Context, userID string) error
}

type Accounts interface {
	// CreateAccount inserts a new account (personal or team).
	CreateAccount(ctx context.Context, a domain.Account) error

	// GetAccountByID returns an account by internal id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByPublicID returns an account by its external-safe id.
	GetAccountByPublicID(ctx context.Context, publicID string) (domain.Account, error)

	// GetPersonalAccount returns the personal account owned by the user.
	GetPersonalAccount(ctx context.Context, ownerUserID string) (domain.Account, error)

	// RenameAccount updates the display name and bumps updated_at.
	RenameAccount(ctx context.Context, accountID, name string) error

	// DeleteAccount removes the account. Memberships and invites cascade per
	// schema.
	DeleteAccount(ctx context.Context, accountID string) error
}

type Memberships interface {
	// CreateMembership inserts a membership row. Returns ErrAlreadyExists if
	// the user already belongs to the account.
	CreateMembership(ctx context.Context, m domain.Membership) error

	// GetMembership returns the membership for (accountID, userID).
	GetMembership(ctx context.Context, accountID, userID string) (domain.Membership, error)

	// HasMemberWithEmail reports whether any current member of the account
	// registered with the given email.
	HasMemberWithEmail(ctx context.Context, accountID, email string) (bool, error)

	// ListUserMemberships returns the accounts the user belongs to, joined
	// with the user's role in each.
	ListUserMemberships(ctx context.Context, userID string) ([]domain.AccountMembership, error)

	// ListMembers returns the account's members joined with their profiles.
	ListMembers(ctx context.Context, accountID string) ([]domain.Member, error)

	// DeleteMembership removes one membership. Deleting an absent membership
	// is not an error.
	DeleteMembership(ctx context.Context, accountID, userID string) error

	// DeleteUserMemberships removes every membership held by the user.
	DeleteUserMemberships(ctx context.Context, userID string) error
}

type Invites interface {
	// CreateInvite writes a new pending invite (token_hash is the sha-256
	// fingerprint of the opaque invite token).
	CreateInvite(ctx context.Context, inv domain.Invite) error

	// GetInviteByToken looks up an invite by (accountID, token fingerprint)
	// regardless of status.
	GetInviteByToken(ctx context.Context, accountID, tokenHash string) (domain.Invite, error)

	// AcceptInvite transitions the invite from pending to accepted as one
	// conditional write. Returns false when the row was no longer pending,
	// which is how concurrent double-resolution is detected.
	AcceptInvite(ctx context.Context, inviteID string) (bool, error)

	// ExpireInvite transitions the invite from pending to expired as one
	// conditional write. Returns false when the row was no longer pending.
	ExpireInvite(ctx context.Context, inviteID string) (bool, error)

	// ListAccountInvites returns all invites for the account, newest first.
	// Expired rows are kept as audit history, so callers see those too.
	ListAccountInvites(ctx context.Context, accountID string) ([]domain.Invite, error)
}

type ResetTokens interface {
	// UpsertResetToken inserts the token row, or, if one exists for the same
	// user, overwrites its key fingerprint and expiry in place. Single-slot
	// semantics rely on the unique user_id column, not on read-then-write.
	UpsertResetToken(ctx context.Context, t domain.ResetToken) error

	// GetResetTokenByKey returns a token by its key fingerprint.
	GetResetTokenByKey(ctx context.Context, keyHash string) (domain.ResetToken, error)

	// DeleteResetToken removes the user's token slot after consumption.
	DeleteResetToken(ctx context.Context, userID string) error
}
