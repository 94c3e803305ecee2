package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, public_id, type, name, avatar, owner_user_id, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account
	var owner sql.NullString
	err := row.Scan(&a.ID, &a.PublicID, &a.Type, &a.Name, &a.Avatar, &owner, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	if owner.Valid {
		a.OwnerUserID = owner.String
	}
	return a, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	var owner sql.NullString
	if a.OwnerUserID != "" {
		owner = sql.NullString{String: a.OwnerUserID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, public_id, type, name, avatar, owner_user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PublicID, a.Type, a.Name, a.Avatar, owner, a.CreatedAt, a.UpdatedAt)
	return mapConstraint(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByPublicID(ctx context.Context, publicID string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE public_id = ?`, publicID)
	return scanAccount(row)
}

func (r *accountsRepo) GetPersonalAccount(ctx context.Context, ownerUserID string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_user_id = ?`, ownerUserID)
	return scanAccount(row)
}

func (r *accountsRepo) RenameAccount(ctx context.Context, accountID, name string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), accountID)
	return err
}

func (r *accountsRepo) DeleteAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID)
	return err
}
