package sqlite

import (
	"context"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
)

type membershipsRepo struct {
	db dbtx
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (account_id, user_id, role, joined_at)
		 VALUES (?, ?, ?, ?)`,
		m.AccountID, m.UserID, m.Role, m.JoinedAt)
	return mapConstraint(err)
}

func (r *membershipsRepo) GetMembership(ctx context.Context, accountID, userID string) (domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT account_id, user_id, role, joined_at
		 FROM memberships
		 WHERE account_id = ? AND user_id = ?`,
		accountID, userID)

	var m domain.Membership
	if err := row.Scan(&m.AccountID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	return m, nil
}

func (r *membershipsRepo) HasMemberWithEmail(ctx context.Context, accountID, email string) (bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*)
		 FROM memberships m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.account_id = ? AND u.email = ?`,
		accountID, email)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *membershipsRepo) ListUserMemberships(ctx context.Context, userID string) ([]domain.AccountMembership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.public_id, a.type, a.name, a.avatar, a.created_at, a.updated_at,
		        m.role, m.joined_at
		 FROM memberships m
		 JOIN accounts a ON a.id = m.account_id
		 WHERE m.user_id = ?
		 ORDER BY m.joined_at ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AccountMembership
	for rows.Next() {
		var am domain.AccountMembership
		err := rows.Scan(
			&am.Account.ID, &am.Account.PublicID, &am.Account.Type, &am.Account.Name,
			&am.Account.Avatar, &am.Account.CreatedAt, &am.Account.UpdatedAt,
			&am.Membership.Role, &am.Membership.JoinedAt,
		)
		if err != nil {
			return nil, err
		}
		am.Membership.AccountID = am.Account.ID
		am.Membership.UserID = userID
		out = append(out, am)
	}
	return out, rows.Err()
}

func (r *membershipsRepo) ListMembers(ctx context.Context, accountID string) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.user_id, u.email, u.avatar, m.role, m.joined_at
		 FROM memberships m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.account_id = ?
		 ORDER BY m.joined_at ASC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.Avatar, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membershipsRepo) DeleteMembership(ctx context.Context, accountID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE account_id = ? AND user_id = ?`,
		accountID, userID)
	return err
}

func (r *membershipsRepo) DeleteUserMemberships(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM memberships WHERE user_id = ?`, userID)
	return err
}
