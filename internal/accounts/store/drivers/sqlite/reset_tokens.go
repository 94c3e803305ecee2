package sqlite

import (
	"context"

	"github.com/kickoffhq/accounts/internal/accounts/domain"
)

type resetTokensRepo struct {
	db dbtx
}

// UpsertResetToken rotates the user's single token slot. The conflict target
// is the unique user_id column, so rotation is race-free at the storage
// layer without a read-check-write sequence.
func (r *resetTokensRepo) UpsertResetToken(ctx context.Context, t domain.ResetToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reset_tokens (id, user_id, key_hash, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     key_hash = excluded.key_hash,
		     expires_at = excluded.expires_at,
		     updated_at = excluded.updated_at`,
		t.ID, t.UserID, t.KeyHash, t.ExpiresAt, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *resetTokensRepo) GetResetTokenByKey(ctx context.Context, keyHash string) (domain.ResetToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, key_hash, expires_at, created_at, updated_at
		 FROM reset_tokens
		 WHERE key_hash = ?`,
		keyHash)

	var t domain.ResetToken
	err := row.Scan(&t.ID, &t.UserID, &t.KeyHash, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.ResetToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *resetTokensRepo) DeleteResetToken(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE user_id = ?`, userID)
	return err
}
