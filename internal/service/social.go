package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/idx"
	"github.com/charahub/charahub/pkg/slogx"
)

// ErrSelfFollow means a user tried to follow themselves.
var ErrSelfFollow = errors.New("cannot follow yourself")

// SocialService maintains the follow and favourite edges. Both operations
// are idempotent: repeating one is a no-op rather than an error, so clients
// can retry freely.
type SocialService struct {
	Store store.Store
}

// Follow makes followerID follow followeeID.
func (s *SocialService) Follow(ctx context.Context, followerID, followeeID string) error {
	log := slogx.FromContext(ctx)

	if followerID == followeeID {
		return ErrSelfFollow
	}

	if _, err := s.Store.Users().GetUserByID(ctx, followeeID); err != nil {
		return err // store.ErrNotFound propagates
	}

	err := s.Store.Social().CreateFollow(ctx, domain.Follow{
		ID:         idx.New().String(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil // already following
		}
		return err
	}

	log.Debug("follow created",
		slog.String("follower_id", followerID),
		slog.String("followee_id", followeeID),
	)
	return nil
}

// Unfollow removes the follow edge; removing an absent edge is a no-op.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	err := s.Store.Social().DeleteFollow(ctx, followerID, followeeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Favorite marks characterID as a favourite of userID. The character must
// be visible to the user.
func (s *SocialService) Favorite(ctx context.Context, userID, characterID string) error {
	log := slogx.FromContext(ctx)

	c, err := s.Store.Characters().GetCharacterByID(ctx, characterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCharacterNotFound
		}
		return err
	}
	if c.Visibility == domain.VisibilityUnlisted && c.OwnerID != userID {
		return ErrCharacterNotFound
	}

	err = s.Store.Social().CreateFavorite(ctx, domain.Favorite{
		ID:          idx.New().String(),
		UserID:      userID,
		CharacterID: characterID,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil // already a favourite
		}
		return err
	}

	log.Debug("favorite created",
		slog.String("user_id", userID),
		slog.String("character_id", characterID),
	)
	return nil
}

// Unfavorite removes the favourite edge; removing an absent edge is a no-op.
func (s *SocialService) Unfavorite(ctx context.Context, userID, characterID string) error {
	err := s.Store.Social().DeleteFavorite(ctx, userID, characterID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
