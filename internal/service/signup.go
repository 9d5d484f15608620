package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/mail"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/cryptox"
	"github.com/charahub/charahub/pkg/idx"
	"github.com/charahub/charahub/pkg/slogx"
)

// ErrUserExists means an account already exists for the signup email.
var ErrUserExists = errors.New("user already exists")

// SignupService composes the credential store, referral ledger, and
// verification token issuer into the account-creation workflow.
//
// Account creation, code redemption, attachment-record creation, and
// approval commit in one store transaction, so a code raced to exhaustion
// rolls the whole signup back instead of stranding an unapproved account.
// Token issuance and email dispatch run after commit and are best-effort.
type SignupService struct {
	Store         store.Store
	Referrals     *ReferralService
	Verifications *VerificationService
	Mailer        mail.Mailer
	BaseURL       string
}

// SignupResult reports a completed signup. EmailSent is false when the
// verification email could not be dispatched; the account still exists and
// stays pending until a token is redeemed.
type SignupResult struct {
	User      domain.User
	EmailSent bool
}

// Signup runs the end-to-end referral-gated account creation workflow.
func (s *SignupService) Signup(
	ctx context.Context,
	email, name, referralCode, password, username string,
) (SignupResult, error) {
	log := slogx.FromContext(ctx)

	// 1. Required fields.
	if email == "" || name == "" || referralCode == "" || password == "" {
		return SignupResult{}, ErrInvalidInput
	}

	// 2. Duplicate email pre-check. This is advisory only; the unique
	// constraint in the store catches the concurrent case at insert time.
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return SignupResult{}, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return SignupResult{}, err
	}

	// 3. Referral code must be redeemable before we do the expensive hash.
	rc, err := s.Referrals.Validate(ctx, referralCode)
	if err != nil {
		return SignupResult{}, err
	}

	// 4. Hash the password. Plaintext never goes past this point.
	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return SignupResult{}, err
	}

	// 5.-6. Create the account and consume the referral atomically.
	newUser := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         name,
		Username:     username,
		PasswordHash: passwordHash,
		IsVerified:   false,
		IsApproved:   true,
		ReferredBy:   rc.CreatedBy,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, newUser); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrUserExists
			}
			return err
		}

		if _, err := tx.ReferralCodes().RedeemReferralCode(ctx, rc.ID, time.Now()); err != nil {
			// The code was raced to exhaustion (or deactivated) between
			// validation and redemption; the rollback discards the account.
			if errors.Is(err, store.ErrExhausted) {
				return ErrCodeExhausted
			}
			if errors.Is(err, store.ErrNotFound) {
				return ErrCodeNotFound
			}
			return err
		}

		attachment := domain.UserReferral{
			ID:             idx.New().String(),
			ReferralCodeID: rc.ID,
			ReferrerUserID: rc.CreatedBy,
			ReferredUserID: newUser.ID,
		}
		return tx.UserReferrals().CreateUserReferral(ctx, attachment)
	})
	if err != nil {
		return SignupResult{}, err
	}

	log.Info("user signed up",
		slog.String("user_id", newUser.ID),
		slog.String("code_id", rc.ID),
		slog.String("referrer_id", rc.CreatedBy),
	)

	// 7.-8. Verification token and email, after commit, best-effort.
	result := SignupResult{User: newUser}

	token, err := s.Verifications.Issue(ctx, newUser.ID)
	if err != nil {
		log.Error("failed to issue verification token; account pending without email",
			slog.String("user_id", newUser.ID),
			slog.Any("error", err),
		)
		return result, nil
	}

	if err := mail.SendVerification(ctx, s.Mailer, newUser.Email, newUser.Name, s.BaseURL, token); err != nil {
		log.Error("verification email dispatch failed",
			slog.String("user_id", newUser.ID),
			slog.Any("error", err),
		)
		return result, nil
	}

	result.EmailSent = true
	return result, nil
}
