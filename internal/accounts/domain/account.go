package domain

import "time"

// AccountType distinguishes the 1:1 personal account created at registration
// from explicitly created team accounts.
type AccountType string

const (
	AccountTypePersonal AccountType = "personal"
	AccountTypeTeam     AccountType = "team"
)

// Role is the permission level a membership grants within an account.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Account is a tenant: an isolated group of users sharing resources.
type Account struct {
	ID       string
	PublicID string // external-safe identifier, distinct from the internal id
	Type     AccountType
	Name     string
	Avatar   string

	// OwnerUserID links a personal account to the user it was created for.
	// Empty for team accounts. This is a structural link; account names are
	// display data and never used to find the personal account.
	OwnerUserID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership is the join entity granting a User a role within an Account.
// A user holds at most one membership per account.
type Membership struct {
	AccountID string
	UserID    string
	Role      Role
	JoinedAt  time.Time
}

// AccountMembership pairs a membership with its account, as listed for a
// single user.
type AccountMembership struct {
	Account    Account
	Membership Membership
}

// Member is a membership joined with the member's user profile, as listed on
// an account detail view.
type Member struct {
	UserID   string
	Email    string
	Avatar   string
	Role     Role
	JoinedAt time.Time
}
