package http

import (
	"net/http"
	"time"
)

// sessionCookieName is shared with the web frontend; renaming it logs every
// user out.
const sessionCookieName = "__auth_session"

// setSessionCookie installs the session id as an HttpOnly cookie scoped to
// the whole site. Strict same-site keeps the cookie off cross-origin
// requests entirely.
func setSessionCookie(w http.ResponseWriter, sessionID string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie overwrites the cookie with a blank, already expired
// value so the browser drops it.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// sessionIDFromRequest extracts the bearer session id, empty when absent.
func sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
