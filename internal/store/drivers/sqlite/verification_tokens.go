package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
)

type verificationTokensRepo struct {
	q queryer
}

func (r *verificationTokensRepo) CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO verification_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt.UTC(), time.Now().UTC(),
	)
	return mapConflict(err)
}

func (r *verificationTokensRepo) GetVerificationTokenByHash(ctx context.Context, hash string) (domain.VerificationToken, error) {
	var row verificationTokenRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT * FROM verification_tokens WHERE token_hash = ?`, hash)
	if err != nil {
		return domain.VerificationToken{}, mapNotFound(err)
	}
	return mapVerificationToken(row), nil
}

// DeleteVerificationToken removes a token record. Reporting ErrNotFound for
// an already-deleted row is what makes concurrent redemption of the same
// token yield exactly one success.
func (r *verificationTokensRepo) DeleteVerificationToken(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *verificationTokensRepo) DeleteVerificationTokensForUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE user_id = ?`, userID)
	return err
}

func (r *verificationTokensRepo) DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE expires_at <= ?`, now.UTC())
	return err
}
