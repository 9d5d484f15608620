package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/pkg/idx"
)

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	signer := newTestSigner(t)
	svc := &AuthService{Store: st, Sessions: signer}

	user := seedUser(t, st, "member@example.com", "correct horse battery")

	t.Run("valid credentials mint a session", func(t *testing.T) {
		got, session, err := svc.SignIn(ctx, user.Email, "correct horse battery")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
		require.NotEmpty(t, session)

		claims, err := signer.Verify(session)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.Subject)
		require.Equal(t, user.Email, claims.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.SignIn(ctx, user.Email, "incorrect horse")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email signals needs-signup", func(t *testing.T) {
		_, _, err := svc.SignIn(ctx, "nobody@example.com", "whatever-pass")
		require.ErrorIs(t, err, ErrUnknownEmail)
	})

	t.Run("near-miss email is still unknown", func(t *testing.T) {
		_, _, err := svc.SignIn(ctx, "Member@example.com", "correct horse battery")
		require.ErrorIs(t, err, ErrUnknownEmail)
	})

	t.Run("passwordless account rejects password signin", func(t *testing.T) {
		oauthUser := domain.User{
			ID:         idx.New().String(),
			Email:      "oauth@example.com",
			Name:       "OAuth User",
			IsVerified: true,
		}
		require.NoError(t, st.Users().CreateUser(ctx, oauthUser))

		_, _, err := svc.SignIn(ctx, oauthUser.Email, "any-password-at-all")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, _, err := svc.SignIn(ctx, "", "pass")
		require.ErrorIs(t, err, ErrInvalidInput)
		_, _, err = svc.SignIn(ctx, "a@b.c", "")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}
