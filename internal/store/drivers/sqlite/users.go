package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
)

type usersRepo struct {
	q queryer
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT * FROM users WHERE email = ?`, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, name, username, password_hash,
			is_verified, is_approved, referred_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, mapStringNull(u.Username), u.PasswordHash,
		u.IsVerified, u.IsApproved, mapStringNull(u.ReferredBy), now, now,
	)
	return mapConflict(err)
}

func (r *usersRepo) SetVerified(ctx context.Context, userID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET is_verified = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) SetReferral(ctx context.Context, userID, referrerID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET referred_by = ?, is_approved = 1, updated_at = ? WHERE id = ?`,
		referrerID, time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
