package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/cryptox"
	"github.com/charahub/charahub/pkg/idx"
	"github.com/charahub/charahub/pkg/slogx"
)

var (
	ErrTokenNotFound = errors.New("verification token not found")
	ErrTokenExpired  = errors.New("verification token expired")
)

// VerificationService issues and redeems single-use email verification
// tokens. Only the SHA-256 fingerprint of a token is ever stored.
type VerificationService struct {
	Store store.Store
}

// Issue creates a fresh verification token for an account and returns the
// raw token for embedding in the verification link. Re-issuing replaces any
// pending token for the account rather than accumulating duplicates.
func (s *VerificationService) Issue(ctx context.Context, userID string) (string, error) {
	log := slogx.FromContext(ctx)

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate verification token", slog.Any("error", err))
		return "", err
	}

	token := domain.VerificationToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: time.Now().UTC().Add(domain.VerificationTokenTTL),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.VerificationTokens().DeleteVerificationTokensForUser(ctx, userID); err != nil {
			return err
		}
		return tx.VerificationTokens().CreateVerificationToken(ctx, token)
	})
	if err != nil {
		log.Error("failed to store verification token",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return "", err
	}

	return raw, nil
}

// Redeem exchanges a raw token for verified status exactly once: the owning
// account's is_verified flag and the token deletion commit atomically, so a
// replay (or a concurrent duplicate) observes ErrTokenNotFound.
func (s *VerificationService) Redeem(ctx context.Context, rawToken string) (string, error) {
	log := slogx.FromContext(ctx)

	if rawToken == "" {
		return "", ErrTokenNotFound
	}
	fingerprint := cryptox.FingerprintToken(rawToken)

	token, err := s.Store.VerificationTokens().GetVerificationTokenByHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", err
	}

	if token.Expired(time.Now()) {
		// Dead token; drop it so the unique hash can never resurface.
		_ = s.Store.VerificationTokens().DeleteVerificationToken(ctx, token.ID)
		return "", ErrTokenExpired
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetVerified(ctx, token.UserID); err != nil {
			return err
		}
		if err := tx.VerificationTokens().DeleteVerificationToken(ctx, token.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Lost the race against a concurrent redemption.
				return ErrTokenNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Info("email verified", slog.String("user_id", token.UserID))
	return token.UserID, nil
}
