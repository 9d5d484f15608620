package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/idx"
)

func TestFollow(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	alice := seedUser(t, st, "alice@example.com", "")
	bob := seedUser(t, st, "bob@example.com", "")
	svc := &SocialService{Store: st}

	t.Run("follow then repeat is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Follow(ctx, alice.ID, bob.ID))
		require.NoError(t, svc.Follow(ctx, alice.ID, bob.ID))

		ranks, err := st.Social().TopCreatorsByFollowers(ctx, 10)
		require.NoError(t, err)
		require.Len(t, ranks, 1)
		require.Equal(t, bob.ID, ranks[0].UserID)
		require.Equal(t, 1, ranks[0].Followers)
	})

	t.Run("self follow is rejected", func(t *testing.T) {
		require.ErrorIs(t, svc.Follow(ctx, alice.ID, alice.ID), ErrSelfFollow)
	})

	t.Run("following a ghost fails", func(t *testing.T) {
		require.ErrorIs(t, svc.Follow(ctx, alice.ID, idx.New().String()), store.ErrNotFound)
	})

	t.Run("unfollow is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Unfollow(ctx, alice.ID, bob.ID))
		require.NoError(t, svc.Unfollow(ctx, alice.ID, bob.ID))

		ranks, err := st.Social().TopCreatorsByFollowers(ctx, 10)
		require.NoError(t, err)
		require.Empty(t, ranks)
	})
}

func TestFavorite(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	artist := seedUser(t, st, "artist@example.com", "")
	fan := seedUser(t, st, "fan@example.com", "")
	public := seedCharacter(t, st, artist.ID, "Ember", domain.VisibilityPublic)
	hidden := seedCharacter(t, st, artist.ID, "Shade", domain.VisibilityUnlisted)
	svc := &SocialService{Store: st}

	t.Run("favorite then repeat is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Favorite(ctx, fan.ID, public.ID))
		require.NoError(t, svc.Favorite(ctx, fan.ID, public.ID))

		ranks, err := st.Social().TopCharactersByFavorites(ctx, 10)
		require.NoError(t, err)
		require.Len(t, ranks, 1)
		require.Equal(t, public.ID, ranks[0].CharacterID)
		require.Equal(t, 1, ranks[0].Favorites)
	})

	t.Run("unlisted characters cannot be favorited by others", func(t *testing.T) {
		require.ErrorIs(t, svc.Favorite(ctx, fan.ID, hidden.ID), ErrCharacterNotFound)
		// The owner still can.
		require.NoError(t, svc.Favorite(ctx, artist.ID, hidden.ID))
	})

	t.Run("unfavorite is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Unfavorite(ctx, fan.ID, public.ID))
		require.NoError(t, svc.Unfavorite(ctx, fan.ID, public.ID))
	})
}
