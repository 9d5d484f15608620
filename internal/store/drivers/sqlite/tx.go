package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/charahub/charahub/internal/store"
)

type txStore struct {
	tx *sqlx.Tx
}

func newTx(tx *sqlx.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // caller commits/rollbacks; outer DB stays open

// Ping is a no-op for transactions; the connection already exists.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed.
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return sql.ErrTxDone } // migrations run before any tx

func (t *txStore) Users() store.Users                           { return &usersRepo{q: t.tx} }
func (t *txStore) ReferralCodes() store.ReferralCodes           { return &referralCodesRepo{q: t.tx} }
func (t *txStore) UserReferrals() store.UserReferrals           { return &userReferralsRepo{q: t.tx} }
func (t *txStore) VerificationTokens() store.VerificationTokens { return &verificationTokensRepo{q: t.tx} }
func (t *txStore) Characters() store.Characters                 { return &charactersRepo{q: t.tx} }
func (t *txStore) Social() store.Social                         { return &socialRepo{q: t.tx} }
