package domain

import "time"

// ResetToken authorizes a password change without the old password. At most
// one live token exists per user: issuing a new one rotates the existing row
// in place, so only the most recently mailed link is valid.
type ResetToken struct {
	ID        string
	UserID    string
	KeyHash   string // sha-256 fingerprint of the opaque reset key
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the token is past its TTL at the given instant.
func (t ResetToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
