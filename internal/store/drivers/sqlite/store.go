package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	sqlitelib "modernc.org/sqlite"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
)

// Store is the SQLite-backed implementation of store.Store.
type Store struct {
	db  *sqlx.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs; the attachment and redemption invariants depend on them.
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a transaction, automatically handling
// commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	wrapped := newTx(tx)

	// Rollback is a no-op after a successful commit.
	defer func() {
		_ = wrapped.Rollback()
	}()

	if err := fn(wrapped); err != nil {
		return err
	}

	return wrapped.Commit()
}

func (s *Store) Users() store.Users                           { return &usersRepo{q: s.db} }
func (s *Store) ReferralCodes() store.ReferralCodes           { return &referralCodesRepo{q: s.db} }
func (s *Store) UserReferrals() store.UserReferrals           { return &userReferralsRepo{q: s.db} }
func (s *Store) VerificationTokens() store.VerificationTokens { return &verificationTokensRepo{q: s.db} }
func (s *Store) Characters() store.Characters                 { return &charactersRepo{q: s.db} }
func (s *Store) Social() store.Social                         { return &socialRepo{q: s.db} }

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx so the repos work
// inside and outside transactions.
type queryer interface {
	sqlx.ExtContext
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConflict translates SQLite unique-constraint violations to
// store.ErrAlreadyExists. Duplicate emails and duplicate attachment records
// are caught here rather than by check-then-insert.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	var serr *sqlitelib.Error
	if errors.As(err, &serr) {
		// SQLITE_CONSTRAINT_UNIQUE (2067) and SQLITE_CONSTRAINT_PRIMARYKEY (1555)
		if serr.Code() == 2067 || serr.Code() == 1555 {
			return store.ErrAlreadyExists
		}
	}
	return err
}

type userRow struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	Name         string         `db:"name"`
	Username     sql.NullString `db:"username"`
	PasswordHash string         `db:"password_hash"`
	IsVerified   bool           `db:"is_verified"`
	IsApproved   bool           `db:"is_approved"`
	ReferredBy   sql.NullString `db:"referred_by"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func mapUser(row userRow) domain.User {
	return domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		Username:     mapNullString(row.Username),
		PasswordHash: row.PasswordHash,
		IsVerified:   row.IsVerified,
		IsApproved:   row.IsApproved,
		ReferredBy:   mapNullString(row.ReferredBy),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

type referralCodeRow struct {
	ID        string       `db:"id"`
	Code      string       `db:"code"`
	CreatedBy string       `db:"created_by"`
	MaxUses   int          `db:"max_uses"`
	UsedCount int          `db:"used_count"`
	IsActive  bool         `db:"is_active"`
	ExpiresAt sql.NullTime `db:"expires_at"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func mapReferralCode(row referralCodeRow) domain.ReferralCode {
	return domain.ReferralCode{
		ID:        row.ID,
		Code:      row.Code,
		CreatedBy: row.CreatedBy,
		MaxUses:   row.MaxUses,
		UsedCount: row.UsedCount,
		IsActive:  row.IsActive,
		ExpiresAt: mapNullTimePtr(row.ExpiresAt),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

type userReferralRow struct {
	ID             string    `db:"id"`
	ReferralCodeID string    `db:"referral_code_id"`
	ReferrerUserID string    `db:"referrer_user_id"`
	ReferredUserID string    `db:"referred_user_id"`
	CreatedAt      time.Time `db:"created_at"`
}

func mapUserReferral(row userReferralRow) domain.UserReferral {
	return domain.UserReferral(row)
}

type verificationTokenRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func mapVerificationToken(row verificationTokenRow) domain.VerificationToken {
	return domain.VerificationToken(row)
}

type characterRow struct {
	ID         string    `db:"id"`
	OwnerID    string    `db:"owner_id"`
	Name       string    `db:"name"`
	Tagline    string    `db:"tagline"`
	Bio        string    `db:"bio"`
	Species    string    `db:"species"`
	ImageID    string    `db:"image_id"`
	Visibility string    `db:"visibility"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func mapCharacter(row characterRow) domain.Character {
	return domain.Character(row)
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
