package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
)

type referralCodesRepo struct {
	q queryer
}

func (r *referralCodesRepo) GetReferralCodeByCode(ctx context.Context, code string) (domain.ReferralCode, error) {
	var row referralCodeRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT * FROM referral_codes WHERE code = ?`, code)
	if err != nil {
		return domain.ReferralCode{}, mapNotFound(err)
	}
	return mapReferralCode(row), nil
}

func (r *referralCodesRepo) GetReferralCodeByID(ctx context.Context, id string) (domain.ReferralCode, error) {
	var row referralCodeRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT * FROM referral_codes WHERE id = ?`, id)
	if err != nil {
		return domain.ReferralCode{}, mapNotFound(err)
	}
	return mapReferralCode(row), nil
}

func (r *referralCodesRepo) CreateReferralCode(ctx context.Context, c domain.ReferralCode) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO referral_codes (id, code, created_by, max_uses, used_count,
			is_active, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.CreatedBy, c.MaxUses, c.UsedCount,
		c.IsActive, mapOptionalTime(c.ExpiresAt), now, now,
	)
	return mapConflict(err)
}

// RedeemReferralCode consumes one use with a single conditional UPDATE.
// The used_count < max_uses predicate is evaluated at write time inside the
// engine, so two racing redemptions of a code with one use left cannot both
// pass: the loser matches zero rows and gets ErrExhausted.
func (r *referralCodesRepo) RedeemReferralCode(ctx context.Context, id string, now time.Time) (domain.ReferralCode, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE referral_codes
		SET used_count = used_count + 1, updated_at = ?
		WHERE id = ?
		  AND is_active = 1
		  AND used_count < max_uses
		  AND (expires_at IS NULL OR expires_at > ?)`,
		now.UTC(), id, now.UTC(),
	)
	if err != nil {
		return domain.ReferralCode{}, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.ReferralCode{}, err
	}
	if n == 0 {
		// Distinguish a missing code from an exhausted/expired/inactive one.
		if _, err := r.GetReferralCodeByID(ctx, id); err != nil {
			return domain.ReferralCode{}, err
		}
		return domain.ReferralCode{}, store.ErrExhausted
	}

	return r.GetReferralCodeByID(ctx, id)
}
