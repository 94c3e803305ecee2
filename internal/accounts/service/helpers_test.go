package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kickoffhq/accounts/internal/accounts/notify"
	"github.com/kickoffhq/accounts/internal/accounts/store"
	"github.com/kickoffhq/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://app.test"

// newTestStore opens a fresh sqlite store in a per-test temp dir with all
// migrations applied.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "accounts.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

// sentMail is one recorded notifier call.
type sentMail struct {
	To       string
	Subject  string
	Template notify.Template
	Params   notify.Params
}

// recordingNotifier captures sends for assertions. Fail makes every send
// error, for testing that mail outages never fail the triggering operation.
type recordingNotifier struct {
	mu   sync.Mutex
	Sent []sentMail
	Fail bool
}

func (n *recordingNotifier) Send(ctx context.Context, to, subject string, tmpl notify.Template, params notify.Params) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Fail {
		return errors.New("smtp unreachable")
	}
	n.Sent = append(n.Sent, sentMail{To: to, Subject: subject, Template: tmpl, Params: params})
	return nil
}

func (n *recordingNotifier) last(t *testing.T) sentMail {
	t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.Sent)
	return n.Sent[len(n.Sent)-1]
}

// fixture bundles the fully wired services most tests need.
type fixture struct {
	Store       store.Store
	Mail        *recordingNotifier
	Credentials *CredentialService
	Sessions    *SessionService
	Reset       *ResetService
	Invites     *InviteService
	Tenancy     *TenancyService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := newTestStore(t)
	mail := &recordingNotifier{}

	credentials := &CredentialService{Store: st, Notifier: mail}
	sessions := &SessionService{Store: st}
	reset := &ResetService{
		Store:       st,
		Notifier:    mail,
		Sessions:    sessions,
		Credentials: credentials,
		BaseURL:     testBaseURL,
	}
	invites := &InviteService{Store: st, Notifier: mail, BaseURL: testBaseURL}
	tenancy := &TenancyService{Store: st, Sessions: sessions}

	return &fixture{
		Store:       st,
		Mail:        mail,
		Credentials: credentials,
		Sessions:    sessions,
		Reset:       reset,
		Invites:     invites,
		Tenancy:     tenancy,
	}
}
