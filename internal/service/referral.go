package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/idx"
	"github.com/charahub/charahub/pkg/slogx"
)

var (
	ErrCodeNotFound    = errors.New("referral code not found")
	ErrCodeInactive    = errors.New("referral code is no longer active")
	ErrCodeExpired     = errors.New("referral code has expired")
	ErrCodeExhausted   = errors.New("referral code has no uses remaining")
	ErrAlreadyAttached = errors.New("account already has a referral attached")
	ErrSelfReferral    = errors.New("cannot redeem your own referral code")
	ErrInvalidMint     = errors.New("invalid referral mint request")
)

// ReferralService owns the referral-code ledger: validity checks, the
// atomic consumption of uses, and post-hoc attachment for accounts created
// without a code (OAuth sign-ins).
type ReferralService struct {
	Store store.Store
}

// Validate checks a code and returns it when redeemable. Failure reasons
// are checked in a fixed order so the caller can always present the most
// specific one: not found, then inactive, then expired, then exhausted.
func (s *ReferralService) Validate(ctx context.Context, code string) (domain.ReferralCode, error) {
	normalized := domain.NormalizeCode(code)
	if normalized == "" {
		return domain.ReferralCode{}, ErrCodeNotFound
	}

	rc, err := s.Store.ReferralCodes().GetReferralCodeByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ReferralCode{}, ErrCodeNotFound
		}
		return domain.ReferralCode{}, err
	}

	switch {
	case !rc.IsActive:
		return domain.ReferralCode{}, ErrCodeInactive
	case rc.ExpiresAt != nil && rc.ExpiresAt.Before(time.Now()):
		return domain.ReferralCode{}, ErrCodeExpired
	case rc.UsedCount >= rc.MaxUses:
		return domain.ReferralCode{}, ErrCodeExhausted
	}

	return rc, nil
}

// Attach redeems a referral code for an already-existing account, creating
// the attachment record, consuming one use, and approving the account as a
// single transactional unit. An account can only ever attach once.
func (s *ReferralService) Attach(ctx context.Context, accountID, code string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, accountID)
	if err != nil {
		return domain.User{}, err // store.ErrNotFound propagates
	}

	rc, err := s.Validate(ctx, code)
	if err != nil {
		return domain.User{}, err
	}

	if rc.CreatedBy == user.ID {
		return domain.User{}, ErrSelfReferral
	}

	// Friendly pre-check; the unique referred_user_id constraint is what
	// actually guarantees at-most-one under concurrency.
	if _, err := s.Store.UserReferrals().GetUserReferralByReferredUser(ctx, user.ID); err == nil {
		return domain.User{}, ErrAlreadyAttached
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		attachment := domain.UserReferral{
			ID:             idx.New().String(),
			ReferralCodeID: rc.ID,
			ReferrerUserID: rc.CreatedBy,
			ReferredUserID: user.ID,
		}
		if err := tx.UserReferrals().CreateUserReferral(ctx, attachment); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAlreadyAttached
			}
			return err
		}

		if _, err := tx.ReferralCodes().RedeemReferralCode(ctx, rc.ID, time.Now()); err != nil {
			if errors.Is(err, store.ErrExhausted) {
				return ErrCodeExhausted
			}
			return err
		}

		return tx.Users().SetReferral(ctx, user.ID, rc.CreatedBy)
	})
	if err != nil {
		return domain.User{}, err
	}

	log.Info("referral attached",
		slog.String("user_id", user.ID),
		slog.String("code_id", rc.ID),
		slog.String("referrer_id", rc.CreatedBy),
	)

	user.ReferredBy = rc.CreatedBy
	user.IsApproved = true
	return user, nil
}

// Mint creates a new referral code owned by an account. Codes are stored in
// uppercase normal form.
func (s *ReferralService) Mint(
	ctx context.Context,
	createdBy string,
	code string,
	maxUses int,
	expiresAt *time.Time,
) (domain.ReferralCode, error) {
	log := slogx.FromContext(ctx)

	normalized := domain.NormalizeCode(code)
	if normalized == "" || maxUses <= 0 {
		return domain.ReferralCode{}, ErrInvalidMint
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return domain.ReferralCode{}, ErrInvalidMint
	}

	rc := domain.ReferralCode{
		ID:        idx.New().String(),
		Code:      normalized,
		CreatedBy: createdBy,
		MaxUses:   maxUses,
		UsedCount: 0,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}

	if err := s.Store.ReferralCodes().CreateReferralCode(ctx, rc); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.ReferralCode{}, ErrInvalidMint
		}
		log.Error("failed to create referral code", slog.Any("error", err))
		return domain.ReferralCode{}, err
	}

	log.Debug("referral code minted",
		slog.String("code_id", rc.ID),
		slog.String("created_by", createdBy),
		slog.Int("max_uses", maxUses),
	)

	return rc, nil
}
