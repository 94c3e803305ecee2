package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCreateAndValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	session, err := f.Sessions.Create(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.WithinDuration(t, time.Now().UTC().Add(DefaultSessionTTL), session.ExpiresAt, time.Minute)

	got, err := f.Sessions.Validate(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
}

func TestSessionValidateUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.Sessions.Validate(context.Background(), "not-a-session")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionInvalidateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	session, err := f.Sessions.Create(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, f.Sessions.Invalidate(ctx, session.ID))
	_, err = f.Sessions.Validate(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// Second invalidation of the same id must not error.
	assert.NoError(t, f.Sessions.Invalidate(ctx, session.ID))
}

func TestSessionInvalidateAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	bob, err := f.Credentials.Register(ctx, "bob@example.com", "correct horse battery")
	require.NoError(t, err)

	s1, err := f.Sessions.Create(ctx, alice.ID)
	require.NoError(t, err)
	s2, err := f.Sessions.Create(ctx, alice.ID)
	require.NoError(t, err)
	other, err := f.Sessions.Create(ctx, bob.ID)
	require.NoError(t, err)

	require.NoError(t, f.Sessions.InvalidateAll(ctx, alice.ID))

	_, err = f.Sessions.Validate(ctx, s1.ID)
	assert.ErrorIs(t, err, ErrSessionInvalid)
	_, err = f.Sessions.Validate(ctx, s2.ID)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// Another user's sessions are untouched.
	_, err = f.Sessions.Validate(ctx, other.ID)
	assert.NoError(t, err)
}

func TestSessionLazyExpiry(t *testing.T) {
	f := newFixture(t)
	f.Sessions.TTL = time.Millisecond
	ctx := context.Background()

	user, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	session, err := f.Sessions.Create(ctx, user.ID)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = f.Sessions.Validate(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// The expired row was deleted on sight.
	_, err = f.Store.Sessions().GetSessionByID(ctx, session.ID)
	assert.Error(t, err)
}
