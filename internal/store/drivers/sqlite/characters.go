package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
)

type charactersRepo struct {
	q queryer
}

func (r *charactersRepo) GetCharacterByID(ctx context.Context, id string) (domain.Character, error) {
	var row characterRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT * FROM characters WHERE id = ?`, id)
	if err != nil {
		return domain.Character{}, mapNotFound(err)
	}
	return mapCharacter(row), nil
}

func (r *charactersRepo) CreateCharacter(ctx context.Context, c domain.Character) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO characters (id, owner_id, name, tagline, bio, species,
			image_id, visibility, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Tagline, c.Bio, c.Species,
		c.ImageID, c.Visibility, now, now,
	)
	return mapConflict(err)
}

func (r *charactersRepo) UpdateCharacter(ctx context.Context, c domain.Character) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE characters
		SET name = ?, tagline = ?, bio = ?, species = ?, image_id = ?,
			visibility = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Tagline, c.Bio, c.Species, c.ImageID,
		c.Visibility, time.Now().UTC(), c.ID,
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

func (r *charactersRepo) DeleteCharacter(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
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

func (r *charactersRepo) ListCharactersByOwner(ctx context.Context, ownerID string) ([]domain.Character, error) {
	var rows []characterRow
	err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT * FROM characters WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Character, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapCharacter(row))
	}
	return out, nil
}

func (r *charactersRepo) ListPublicCharacters(ctx context.Context, limit, offset int) ([]domain.Character, error) {
	var rows []characterRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT * FROM characters
		WHERE visibility = 'public'
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Character, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapCharacter(row))
	}
	return out, nil
}
