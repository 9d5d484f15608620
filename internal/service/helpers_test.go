package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/internal/store/drivers/sqlite"
	"github.com/charahub/charahub/pkg/cryptox"
	"github.com/charahub/charahub/pkg/idx"
	"github.com/charahub/charahub/pkg/jwtx"
)

// newTestStore opens a migrated throwaway database. A file under t.TempDir
// rather than :memory: so every pooled connection sees the same database.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"

	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSigner(t *testing.T) *jwtx.Signer {
	t.Helper()
	return jwtx.NewSigner("test-session-secret-test-session", "charahub-test", time.Hour)
}

func seedUser(t *testing.T, st store.Store, email, password string) domain.User {
	t.Helper()

	u := domain.User{
		ID:         idx.New().String(),
		Email:      email,
		Name:       "Seeded User",
		IsVerified: false,
		IsApproved: true,
	}
	if password != "" {
		hash, err := cryptox.HashPassword(password)
		require.NoError(t, err)
		u.PasswordHash = hash
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func seedCode(t *testing.T, st store.Store, createdBy, code string, maxUses int) domain.ReferralCode {
	t.Helper()

	rc := domain.ReferralCode{
		ID:        idx.New().String(),
		Code:      domain.NormalizeCode(code),
		CreatedBy: createdBy,
		MaxUses:   maxUses,
		IsActive:  true,
	}
	require.NoError(t, st.ReferralCodes().CreateReferralCode(context.Background(), rc))
	return rc
}

func seedCharacter(t *testing.T, st store.Store, ownerID, name, visibility string) domain.Character {
	t.Helper()

	c := domain.Character{
		ID:         idx.New().String(),
		OwnerID:    ownerID,
		Name:       name,
		Visibility: visibility,
	}
	require.NoError(t, st.Characters().CreateCharacter(context.Background(), c))
	return c
}
