package domain

import "time"

// Session is a time-boxed bearer credential for an authenticated browser
// context. The ID is the opaque bearer value carried in the session cookie;
// it is never derived from user data.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its TTL at the given instant.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
