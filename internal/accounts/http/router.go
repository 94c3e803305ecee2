package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kickoffhq/accounts/internal/accounts/service"
	"github.com/kickoffhq/accounts/internal/accounts/store"
	"github.com/kickoffhq/accounts/pkg/httpx"
	"github.com/kickoffhq/accounts/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	Credentials *service.CredentialService
	Sessions    *service.SessionService
	Reset       *service.ResetService
	Invites     *service.InviteService
	Tenancy     *service.TenancyService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerCredentials()
	r.registerReset()
	r.registerInvites()
	r.registerAccounts()
	r.registerProfile()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authed wraps a handler with the session middleware.
func (r *Router) authed(h http.Handler) http.Handler {
	return httpx.Chain(h, requireSession(r.Sessions, r.Credentials))
}

func (r *Router) registerCredentials() {
	r.Mux.Handle("POST /v1/register", &RegisterHandler{
		Credentials: r.Credentials,
		Sessions:    r.Sessions,
	})
	r.Mux.Handle("POST /v1/login", &LoginHandler{
		Credentials: r.Credentials,
		Sessions:    r.Sessions,
	})
	r.Mux.Handle("POST /v1/logout", &LogoutHandler{Sessions: r.Sessions})
}

func (r *Router) registerReset() {
	// Both sides of the reset flow are reachable without a session; the
	// caller has, by definition, lost the password.
	r.Mux.Handle("POST /v1/reset-password", &ResetRequestHandler{Reset: r.Reset})
	r.Mux.Handle("POST /v1/reset-password/{userId}", &ResetCompleteHandler{Reset: r.Reset})
}

func (r *Router) registerInvites() {
	r.Mux.Handle("GET /v1/invites", r.authed(&InviteResolveHandler{Invites: r.Invites}))
	r.Mux.Handle("POST /v1/accounts/{publicId}/invites", r.authed(&InviteCreateHandler{
		Invites: r.Invites,
		Tenancy: r.Tenancy,
	}))
	r.Mux.Handle("GET /v1/accounts/{publicId}/invites", r.authed(&InviteListHandler{
		Invites: r.Invites,
		Tenancy: r.Tenancy,
	}))
}

func (r *Router) registerAccounts() {
	accounts := &AccountsHandler{Tenancy: r.Tenancy}
	r.Mux.Handle("POST /v1/accounts", r.authed(http.HandlerFunc(accounts.HandleCreate)))
	r.Mux.Handle("GET /v1/accounts", r.authed(http.HandlerFunc(accounts.HandleList)))
	r.Mux.Handle("GET /v1/accounts/{publicId}", r.authed(http.HandlerFunc(accounts.HandleDetail)))
	r.Mux.Handle("POST /v1/accounts/{publicId}/leave", r.authed(http.HandlerFunc(accounts.HandleLeave)))
	r.Mux.Handle("DELETE /v1/accounts/{publicId}", r.authed(http.HandlerFunc(accounts.HandleDelete)))
}

func (r *Router) registerProfile() {
	profile := &ProfileHandler{Credentials: r.Credentials, Tenancy: r.Tenancy}
	r.Mux.Handle("PATCH /v1/profile", r.authed(http.HandlerFunc(profile.HandleUpdate)))
	r.Mux.Handle("DELETE /v1/profile", r.authed(http.HandlerFunc(profile.HandleDelete)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
