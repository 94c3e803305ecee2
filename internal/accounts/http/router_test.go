package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/kickoffhq/accounts/internal/accounts/notify"
	"github.com/kickoffhq/accounts/internal/accounts/service"
	"github.com/kickoffhq/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "accounts.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mail := &notify.LogNotifier{Logger: logger}

	credentials := &service.CredentialService{Store: st, Notifier: mail}
	sessions := &service.SessionService{Store: st}

	r := NewRouter("test", st, logger)
	r.Credentials = credentials
	r.Sessions = sessions
	r.Reset = &service.ResetService{
		Store:       st,
		Notifier:    mail,
		Sessions:    sessions,
		Credentials: credentials,
		BaseURL:     "https://app.test",
	}
	r.Invites = &service.InviteService{Store: st, Notifier: mail, BaseURL: "https://app.test"}
	r.Tenancy = &service.TenancyService{Store: st, Sessions: sessions}
	r.ApplyRoutes()
	return r
}

func doJSON(t *testing.T, r *Router, method, path string, body any, cookie *nethttp.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *nethttp.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookieName)
	return nil
}

func registerUser(t *testing.T, r *Router, email string) *nethttp.Cookie {
	t.Helper()

	rec := doJSON(t, r, "POST", "/v1/register", map[string]string{
		"email":    email,
		"password": "correct horse battery",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, rec.Code)
	return sessionCookie(t, rec)
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, "POST", "/v1/register", map[string]string{
		"email":    "alice@example.com",
		"password": "correct horse battery",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.NotEmpty(t, cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, nethttp.SameSiteStrictMode, cookie.SameSite)

	var user map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter(t)

	for name, body := range map[string]map[string]string{
		"missing email":   {"password": "correct horse battery"},
		"bad email":       {"email": "not-an-email", "password": "correct horse battery"},
		"short password":  {"email": "alice@example.com", "password": "short"},
		"missing  fields": {},
	} {
		rec := doJSON(t, r, "POST", "/v1/register", body, nil)
		assert.Equal(t, nethttp.StatusBadRequest, rec.Code, name)
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	r := newTestRouter(t)
	registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, "POST", "/v1/register", map[string]string{
		"email":    "alice@example.com",
		"password": "another password",
	}, nil)
	assert.Equal(t, nethttp.StatusConflict, rec.Code)
}

func TestLoginFlow(t *testing.T) {
	r := newTestRouter(t)
	registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, "POST", "/v1/login", map[string]string{
		"email":    "alice@example.com",
		"password": "correct horse battery",
	}, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	// The cookie authenticates follow-up requests.
	rec = doJSON(t, r, "GET", "/v1/accounts", nil, cookie)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
}

func TestLoginUniformUnauthorized(t *testing.T) {
	r := newTestRouter(t)
	registerUser(t, r, "alice@example.com")

	unknown := doJSON(t, r, "POST", "/v1/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever!",
	}, nil)
	wrong := doJSON(t, r, "POST", "/v1/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong password",
	}, nil)

	assert.Equal(t, nethttp.StatusUnauthorized, unknown.Code)
	assert.Equal(t, nethttp.StatusUnauthorized, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestLogoutClearsCookie(t *testing.T) {
	r := newTestRouter(t)
	cookie := registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, "POST", "/v1/logout", nil, cookie)
	require.Equal(t, nethttp.StatusNoContent, rec.Code)

	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// The old session id no longer authenticates.
	rec = doJSON(t, r, "GET", "/v1/accounts", nil, cookie)
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)

	// Logging out again is still a success.
	rec = doJSON(t, r, "POST", "/v1/logout", nil, cookie)
	assert.Equal(t, nethttp.StatusNoContent, rec.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	r := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/v1/accounts"},
		{"POST", "/v1/accounts"},
		{"GET", "/v1/invites?account=x&token=y"},
		{"PATCH", "/v1/profile"},
		{"DELETE", "/v1/profile"},
	} {
		rec := doJSON(t, r, route.method, route.path, nil, nil)
		assert.Equal(t, nethttp.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
}

func TestAccountAndInviteFlow(t *testing.T) {
	r := newTestRouter(t)
	adminCookie := registerUser(t, r, "admin@example.com")

	// Create a team.
	rec := doJSON(t, r, "POST", "/v1/accounts", map[string]string{"name": "Engineering"}, adminCookie)
	require.Equal(t, nethttp.StatusCreated, rec.Code)
	var team struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))
	assert.Equal(t, "team", team.Type)
	assert.Equal(t, "admin", team.Role)

	// Listing shows the personal account and the team.
	rec = doJSON(t, r, "GET", "/v1/accounts", nil, adminCookie)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var accounts []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	assert.Len(t, accounts, 2)

	// Invite bob.
	rec = doJSON(t, r, "POST", "/v1/accounts/"+team.ID+"/invites",
		map[string]string{"email": "bob@example.com"}, adminCookie)
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	// Bob registers and resolves the invite. The handler test reaches into
	// the mailed link's query shape via the stored invite.
	bobCookie := registerUser(t, r, "bob@example.com")
	account, err := r.Tenancy.GetAccountByPublicID(t.Context(), team.ID)
	require.NoError(t, err)

	// Re-create the invite through the service to get hold of a raw token.
	_, token, err := r.Invites.Create(t.Context(), account.ID, "bob@example.com")
	require.NoError(t, err)

	rec = doJSON(t, r, "GET",
		fmt.Sprintf("/v1/invites?account=%s&token=%s", account.ID, token), nil, bobCookie)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	// Second resolution of the same token conflicts.
	rec = doJSON(t, r, "GET",
		fmt.Sprintf("/v1/invites?account=%s&token=%s", account.ID, token), nil, bobCookie)
	assert.Equal(t, nethttp.StatusConflict, rec.Code)

	// Bob sees the team now; detail lists both members.
	rec = doJSON(t, r, "GET", "/v1/accounts/"+team.ID, nil, bobCookie)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var detail struct {
		Members []map[string]any `json:"members"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Len(t, detail.Members, 2)
}

func TestInviteCreateRequiresAdmin(t *testing.T) {
	r := newTestRouter(t)
	adminCookie := registerUser(t, r, "admin@example.com")
	outsiderCookie := registerUser(t, r, "outsider@example.com")

	rec := doJSON(t, r, "POST", "/v1/accounts", map[string]string{"name": "Engineering"}, adminCookie)
	require.Equal(t, nethttp.StatusCreated, rec.Code)
	var team struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))

	rec = doJSON(t, r, "POST", "/v1/accounts/"+team.ID+"/invites",
		map[string]string{"email": "bob@example.com"}, outsiderCookie)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)
}

func TestInviteListing(t *testing.T) {
	r := newTestRouter(t)
	adminCookie := registerUser(t, r, "admin@example.com")
	memberCookie := registerUser(t, r, "member@example.com")

	rec := doJSON(t, r, "POST", "/v1/accounts", map[string]string{"name": "Engineering"}, adminCookie)
	require.Equal(t, nethttp.StatusCreated, rec.Code)
	var team struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))

	for _, email := range []string{"bob@example.com", "carol@example.com"} {
		rec = doJSON(t, r, "POST", "/v1/accounts/"+team.ID+"/invites",
			map[string]string{"email": email}, adminCookie)
		require.Equal(t, nethttp.StatusCreated, rec.Code)
	}

	rec = doJSON(t, r, "GET", "/v1/accounts/"+team.ID+"/invites", nil, adminCookie)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var invites []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invites))
	assert.Len(t, invites, 2)
	for _, inv := range invites {
		assert.Equal(t, "pending", inv["status"])
		assert.NotContains(t, inv, "token")
	}

	// Plain members cannot see the invite history.
	rec = doJSON(t, r, "GET", "/v1/accounts/"+team.ID+"/invites", nil, memberCookie)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)
}

func TestResetRequestNoEnumeration(t *testing.T) {
	r := newTestRouter(t)
	registerUser(t, r, "alice@example.com")

	known := doJSON(t, r, "POST", "/v1/reset-password", map[string]string{"email": "alice@example.com"}, nil)
	unknown := doJSON(t, r, "POST", "/v1/reset-password", map[string]string{"email": "nobody@example.com"}, nil)

	assert.Equal(t, nethttp.StatusAccepted, known.Code)
	assert.Equal(t, nethttp.StatusAccepted, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestResetCompleteEndpoint(t *testing.T) {
	r := newTestRouter(t)
	registerUser(t, r, "alice@example.com")

	user, err := r.Credentials.Store.Users().GetUserByEmail(t.Context(), "alice@example.com")
	require.NoError(t, err)
	_, key, err := r.Reset.IssueOrRotate(t.Context(), user.ID, 10*time.Minute)
	require.NoError(t, err)

	rec := doJSON(t, r, "POST",
		fmt.Sprintf("/v1/reset-password/%s?token=%s", user.ID, key),
		map[string]string{"password": "brand new password"}, nil)
	require.Equal(t, nethttp.StatusNoContent, rec.Code)

	// New password logs in; the key is single-use.
	login := doJSON(t, r, "POST", "/v1/login", map[string]string{
		"email":    "alice@example.com",
		"password": "brand new password",
	}, nil)
	assert.Equal(t, nethttp.StatusOK, login.Code)

	rec = doJSON(t, r, "POST",
		fmt.Sprintf("/v1/reset-password/%s?token=%s", user.ID, key),
		map[string]string{"password": "yet another password"}, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestDeleteProfile(t *testing.T) {
	r := newTestRouter(t)
	cookie := registerUser(t, r, "alice@example.com")

	rec := doJSON(t, r, "DELETE", "/v1/profile", nil, cookie)
	require.Equal(t, nethttp.StatusNoContent, rec.Code)
	assert.Empty(t, sessionCookie(t, rec).Value)

	// Everything about the identity is gone.
	login := doJSON(t, r, "POST", "/v1/login", map[string]string{
		"email":    "alice@example.com",
		"password": "correct horse battery",
	}, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, login.Code)

	rec = doJSON(t, r, "GET", "/v1/accounts", nil, cookie)
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, "GET", "/livez", nil, nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec = doJSON(t, r, "GET", "/readyz", nil, nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
}
