package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
)

type socialRepo struct {
	q queryer
}

func (r *socialRepo) CreateFollow(ctx context.Context, f domain.Follow) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO follows (id, follower_id, followee_id, created_at)
		VALUES (?, ?, ?, ?)`,
		f.ID, f.FollowerID, f.FolloweeID, time.Now().UTC(),
	)
	return mapConflict(err)
}

func (r *socialRepo) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID)
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

func (r *socialRepo) CreateFavorite(ctx context.Context, f domain.Favorite) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO favorites (id, user_id, character_id, created_at)
		VALUES (?, ?, ?, ?)`,
		f.ID, f.UserID, f.CharacterID, time.Now().UTC(),
	)
	return mapConflict(err)
}

func (r *socialRepo) DeleteFavorite(ctx context.Context, userID, characterID string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND character_id = ?`,
		userID, characterID)
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

type characterRankRow struct {
	CharacterID string `db:"character_id"`
	Name        string `db:"name"`
	OwnerID     string `db:"owner_id"`
	OwnerName   string `db:"owner_name"`
	Favorites   int    `db:"favorites"`
}

func (r *socialRepo) TopCharactersByFavorites(ctx context.Context, limit int) ([]domain.CharacterRank, error) {
	var rows []characterRankRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT c.id AS character_id, c.name AS name, c.owner_id AS owner_id,
			u.name AS owner_name, COUNT(f.id) AS favorites
		FROM characters c
		JOIN users u ON u.id = c.owner_id
		LEFT JOIN favorites f ON f.character_id = c.id
		WHERE c.visibility = 'public'
		GROUP BY c.id
		ORDER BY favorites DESC, c.created_at ASC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CharacterRank, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CharacterRank{
			CharacterID: row.CharacterID,
			Name:        row.Name,
			OwnerID:     row.OwnerID,
			OwnerName:   row.OwnerName,
			Favorites:   row.Favorites,
		})
	}
	return out, nil
}

type creatorRankRow struct {
	UserID    string `db:"user_id"`
	Name      string `db:"name"`
	Followers int    `db:"followers"`
}

func (r *socialRepo) TopCreatorsByFollowers(ctx context.Context, limit int) ([]domain.CreatorRank, error) {
	var rows []creatorRankRow
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT u.id AS user_id, u.name AS name, COUNT(f.id) AS followers
		FROM users u
		LEFT JOIN follows f ON f.followee_id = u.id
		GROUP BY u.id
		HAVING followers > 0
		ORDER BY followers DESC, u.created_at ASC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CreatorRank, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CreatorRank{
			UserID:    row.UserID,
			Name:      row.Name,
			Followers: row.Followers,
		})
	}
	return out, nil
}
