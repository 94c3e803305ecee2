package http

import (
	"context"
	"net/http"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
	"github.com/kickoffhq/accounts/internal/accounts/service"
	"github.com/kickoffhq/accounts/pkg/httpx"
)

type principalKey struct{}

// principal is the authenticated identity attached to the request context.
type principal struct {
	User    domain.User
	Session domain.Session
}

func principalFromContext(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	return p, ok
}

// requireSession resolves the session cookie to a user and rejects the
// request with 401 otherwise. An invalid cookie is also cleared so the
// browser stops replaying it.
func requireSession(sessions *service.SessionService, credentials *service.CredentialService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			if sessionID == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := r.Context()
			session, err := sessions.Validate(ctx, sessionID)
			if err != nil {
				clearSessionCookie(w)
				httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := credentials.GetUser(ctx, session.UserID)
			if err != nil {
				clearSessionCookie(w)
				httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx = context.WithValue(ctx, principalKey{}, principal{User: user, Session: session})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
