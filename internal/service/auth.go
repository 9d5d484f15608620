package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/cryptox"
	"github.com/charahub/charahub/pkg/jwtx"
	"github.com/charahub/charahub/pkg/slogx"
)

var (
	ErrInvalidInput = errors.New("missing or malformed input")

	// ErrUnknownEmail means no account exists for the address; the signin
	// endpoint turns this into the needs-signup response.
	ErrUnknownEmail = errors.New("no account for email")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthService handles password sign-in and session minting.
type AuthService struct {
	Store    store.Store
	Sessions *jwtx.Signer
}

// SignIn verifies email+password and returns the account with a session
// token. The email lookup is exact-match; near misses report the same
// ErrUnknownEmail as any other absent address.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (domain.User, string, error) {
	log := slogx.FromContext(ctx)

	if email == "" || password == "" {
		return domain.User{}, "", ErrInvalidInput
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, "", ErrUnknownEmail
		}
		log.Error("failed to load user for signin", slog.Any("error", err))
		return domain.User{}, "", err
	}

	// OAuth-created accounts have no password credential; a password
	// attempt against them fails like any wrong password.
	if user.PasswordHash == "" {
		return domain.User{}, "", ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Warn("signin password mismatch", slog.String("user_id", user.ID))
			return domain.User{}, "", ErrInvalidCredentials
		}
		log.Error("password verification failed", slog.Any("error", err))
		return domain.User{}, "", err
	}

	session, err := s.Sessions.Sign(user.ID, user.Email, user.Name, user.IsVerified, user.IsApproved)
	if err != nil {
		log.Error("failed to mint session", slog.Any("error", err))
		return domain.User{}, "", err
	}

	log.Info("user signed in", slog.String("user_id", user.ID))
	return user, session, nil
}
