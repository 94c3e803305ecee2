package domain

import "time"

// InviteStatus is the invite state machine. Transitions are monotone:
// pending -> accepted or pending -> expired, never reversed.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusExpired  InviteStatus = "expired"
)

// Invite is a time-boxed, email-bound, single-use credential granting a
// member-role Membership upon resolution.
type Invite struct {
	ID        string
	AccountID string
	Email     string // bound recipient; resolution requires a matching requester email
	TokenHash string // sha-256 fingerprint of the opaque invite token
	Status    InviteStatus
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the invite is past its TTL at the given instant.
// Stored status may lag behind; expiry is detected lazily at read time.
func (i Invite) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
