package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/charahub/charahub/internal/domain"
)

type userReferralsRepo struct {
	q queryer
}

func (r *userReferralsRepo) CreateUserReferral(ctx context.Context, ref domain.UserReferral) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO user_referrals (id, referral_code_id, referrer_user_id,
			referred_user_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ref.ID, ref.ReferralCodeID, ref.ReferrerUserID, ref.ReferredUserID,
		time.Now().UTC(),
	)
	return mapConflict(err)
}

func (r *userReferralsRepo) GetUserReferralByReferredUser(ctx context.Context, referredUserID string) (domain.UserReferral, error) {
	var row userReferralRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT * FROM user_referrals WHERE referred_user_id = ?`, referredUserID)
	if err != nil {
		return domain.UserReferral{}, mapNotFound(err)
	}
	return mapUserReferral(row), nil
}
