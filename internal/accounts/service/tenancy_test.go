package service

import (
	"context"
	"strings"
	"testing"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
	"github.com/kickoffhq/accounts/internal/accounts/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTeamAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	team, err := f.Tenancy.CreateTeamAccount(ctx, user.ID, "  Engineering  ")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountTypeTeam, team.Type)
	assert.Equal(t, "Engineering", team.Name)
	assert.Empty(t, team.OwnerUserID)

	membership, err := f.Store.Memberships().GetMembership(ctx, team.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, membership.Role)
}

func TestAccountNameValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	for _, name := range []string{"short", "     a     ", strings.Repeat("x", 65), ""} {
		_, err := f.Tenancy.CreateTeamAccount(ctx, user.ID, name)
		assert.ErrorIs(t, err, ErrInvalidAccountName, "name %q", name)
	}

	// 6 and 64 characters after trimming are both in bounds.
	_, err = f.Tenancy.CreateTeamAccount(ctx, user.ID, "sixsix")
	assert.NoError(t, err)
	_, err = f.Tenancy.CreateTeamAccount(ctx, user.ID, " "+strings.Repeat("y", 64)+" ")
	assert.NoError(t, err)
}

func TestRenameAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	team, err := f.Tenancy.CreateTeamAccount(ctx, user.ID, "Engineering")
	require.NoError(t, err)

	assert.ErrorIs(t, f.Tenancy.RenameAccount(ctx, team.ID, "tiny"), ErrInvalidAccountName)

	require.NoError(t, f.Tenancy.RenameAccount(ctx, team.ID, "Platform Engineering"))
	got, err := f.Store.Accounts().GetAccountByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineering", got.Name)
}

func TestLeaveIsIdempotentAndKeepsAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	team, err := f.Tenancy.CreateTeamAccount(ctx, user.ID, "Engineering")
	require.NoError(t, err)

	require.NoError(t, f.Tenancy.Leave(ctx, team.ID, user.ID))
	assert.ErrorIs(t, f.Tenancy.RequireMember(ctx, team.ID, user.ID), ErrNotAMember)

	// Leaving again is a no-op, and the account outlives its last member.
	assert.NoError(t, f.Tenancy.Leave(ctx, team.ID, user.ID))
	_, err = f.Store.Accounts().GetAccountByID(ctx, team.ID)
	assert.NoError(t, err)
}

func TestDeleteAccountCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	bob, err := f.Credentials.Register(ctx, "bob@example.com", "correct horse battery")
	require.NoError(t, err)

	team, err := f.Tenancy.CreateTeamAccount(ctx, alice.ID, "Engineering")
	require.NoError(t, err)

	_, token, err := f.Invites.Create(ctx, team.ID, "bob@example.com")
	require.NoError(t, err)
	_, err = f.Invites.Resolve(ctx, team.ID, token, bob.ID, bob.Email)
	require.NoError(t, err)

	invite, _, err := f.Invites.Create(ctx, team.ID, "carol@example.com")
	require.NoError(t, err)

	require.NoError(t, f.Tenancy.DeleteAccount(ctx, team.ID))

	// Memberships and invites are gone with the account; the users remain.
	_, err = f.Store.Memberships().GetMembership(ctx, team.ID, bob.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.Store.Invites().GetInviteByToken(ctx, team.ID, invite.TokenHash)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.Store.Users().GetUserByID(ctx, alice.ID)
	assert.NoError(t, err)
	_, err = f.Store.Users().GetUserByID(ctx, bob.ID)
	assert.NoError(t, err)
}

func TestDeleteUserRemovesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	bob, err := f.Credentials.Register(ctx, "bob@example.com", "correct horse battery")
	require.NoError(t, err)

	team, err := f.Tenancy.CreateTeamAccount(ctx, alice.ID, "Engineering")
	require.NoError(t, err)
	_, token, err := f.Invites.Create(ctx, team.ID, "bob@example.com")
	require.NoError(t, err)
	_, err = f.Invites.Resolve(ctx, team.ID, token, bob.ID, bob.Email)
	require.NoError(t, err)

	session, err := f.Sessions.Create(ctx, bob.ID)
	require.NoError(t, err)

	require.NoError(t, f.Tenancy.DeleteUser(ctx, bob.ID))

	_, err = f.Store.Users().GetUserByID(ctx, bob.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.Store.Accounts().GetPersonalAccount(ctx, bob.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	memberships, err := f.Store.Memberships().ListUserMemberships(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)
	_, err = f.Sessions.Validate(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// The team and its other member are untouched.
	_, err = f.Store.Accounts().GetAccountByID(ctx, team.ID)
	assert.NoError(t, err)
	assert.NoError(t, f.Tenancy.RequireMember(ctx, team.ID, alice.ID))
}

func TestListUserAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	team, err := f.Tenancy.CreateTeamAccount(ctx, alice.ID, "Engineering")
	require.NoError(t, err)

	accounts, err := f.Tenancy.ListUserAccounts(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	byID := map[string]domain.AccountMembership{}
	for _, am := range accounts {
		byID[am.Account.ID] = am
	}
	assert.Equal(t, domain.AccountTypeTeam, byID[team.ID].Account.Type)
	assert.Equal(t, domain.RoleAdmin, byID[team.ID].Membership.Role)
}

func TestGetAccountDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.Credentials.Register(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	bob, err := f.Credentials.Register(ctx, "bob@example.com", "correct horse battery")
	require.NoError(t, err)
	team, err := f.Tenancy.CreateTeamAccount(ctx, alice.ID, "Engineering")
	require.NoError(t, err)

	account, members, err := f.Tenancy.GetAccountDetail(ctx, team.PublicID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, team.ID, account.ID)
	require.Len(t, members, 1)
	assert.Equal(t, alice.ID, members[0].UserID)
	assert.Equal(t, "alice@example.com", members[0].Email)
	assert.Equal(t, domain.RoleAdmin, members[0].Role)

	_, _, err = f.Tenancy.GetAccountDetail(ctx, team.PublicID, bob.ID)
	assert.ErrorIs(t, err, ErrNotAMember)

	_, _, err = f.Tenancy.GetAccountDetail(ctx, "missing", alice.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
