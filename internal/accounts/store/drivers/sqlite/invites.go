package sqlite

import (
	"context"
	"time"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
)

type invitesRepo struct {
	db dbtx
}

const inviteColumns = `id, account_id, email, token_hash, status, expires_at, created_at, updated_at`

func scanInvite(row interface{ Scan(...any) error }) (domain.Invite, error) {
	var inv domain.Invite
	err := row.Scan(&inv.ID, &inv.AccountID, &inv.Email, &inv.TokenHash,
		&inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invites (id, account_id, email, token_hash, status, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.AccountID, inv.Email, inv.TokenHash, inv.Status,
		inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt)
	return mapConstraint(err)
}

func (r *invitesRepo) GetInviteByToken(ctx context.Context, accountID, tokenHash string) (domain.Invite, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE account_id = ? AND token_hash = ?`,
		accountID, tokenHash)
	return scanInvite(row)
}

// AcceptInvite is the single conditional write that makes acceptance
// at-most-once: of two racing resolutions, exactly one sees a row still in
// 'pending' and wins.
func (r *invitesRepo) AcceptInvite(ctx context.Context, inviteID string) (bool, error) {
	return r.transition(ctx, inviteID, domain.InviteStatusAccepted)
}

// ExpireInvite lazily marks a past-TTL invite. Conditional on 'pending' so a
// concurrent acceptance is never overwritten.
func (r *invitesRepo) ExpireInvite(ctx context.Context, inviteID string) (bool, error) {
	return r.transition(ctx, inviteID, domain.InviteStatusExpired)
}

func (r *invitesRepo) transition(ctx context.Context, inviteID string, to domain.InviteStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invites SET status = ?, updated_at = ? WHERE id = ? AND status = 'pending'`,
		to, time.Now().UTC(), inviteID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *invitesRepo) ListAccountInvites(ctx context.Context, accountID string) ([]domain.Invite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE account_id = ? ORDER BY created_at DESC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
