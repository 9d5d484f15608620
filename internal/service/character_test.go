package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charahub/charahub/internal/domain"
)

func TestCharacterCRUD(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	owner := seedUser(t, st, "artist@example.com", "")
	other := seedUser(t, st, "visitor@example.com", "")
	svc := &CharacterService{Store: st}

	t.Run("create defaults to public", func(t *testing.T) {
		c, err := svc.Create(ctx, owner.ID, CharacterInput{
			Name:    "  Ember  ",
			Tagline: "a fox with opinions",
			Species: "fox",
		})
		require.NoError(t, err)
		require.Equal(t, "Ember", c.Name)
		require.Equal(t, domain.VisibilityPublic, c.Visibility)
		require.Equal(t, owner.ID, c.OwnerID)
	})

	t.Run("create rejects bad input", func(t *testing.T) {
		_, err := svc.Create(ctx, owner.ID, CharacterInput{Name: "   "})
		require.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Create(ctx, owner.ID, CharacterInput{Name: "X", Visibility: "secret"})
		require.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Create(ctx, owner.ID, CharacterInput{Name: strings.Repeat("n", maxCharacterName+1)})
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unlisted characters hide from other viewers", func(t *testing.T) {
		c, err := svc.Create(ctx, owner.ID, CharacterInput{
			Name:       "Shade",
			Visibility: domain.VisibilityUnlisted,
		})
		require.NoError(t, err)

		got, err := svc.Get(ctx, c.ID, owner.ID)
		require.NoError(t, err)
		require.Equal(t, c.ID, got.ID)

		_, err = svc.Get(ctx, c.ID, other.ID)
		require.ErrorIs(t, err, ErrCharacterNotFound)

		_, err = svc.Get(ctx, c.ID, "")
		require.ErrorIs(t, err, ErrCharacterNotFound)
	})

	t.Run("update enforces ownership", func(t *testing.T) {
		c, err := svc.Create(ctx, owner.ID, CharacterInput{Name: "Patch"})
		require.NoError(t, err)

		_, err = svc.Update(ctx, c.ID, other.ID, CharacterInput{Name: "Stolen"})
		require.ErrorIs(t, err, ErrNotOwner)

		updated, err := svc.Update(ctx, c.ID, owner.ID, CharacterInput{
			Name:       "Patchwork",
			Visibility: domain.VisibilityUnlisted,
		})
		require.NoError(t, err)
		require.Equal(t, "Patchwork", updated.Name)
		require.Equal(t, domain.VisibilityUnlisted, updated.Visibility)
	})

	t.Run("delete enforces ownership", func(t *testing.T) {
		c, err := svc.Create(ctx, owner.ID, CharacterInput{Name: "Doomed"})
		require.NoError(t, err)

		require.ErrorIs(t, svc.Delete(ctx, c.ID, other.ID), ErrNotOwner)
		require.NoError(t, svc.Delete(ctx, c.ID, owner.ID))
		require.ErrorIs(t, svc.Delete(ctx, c.ID, owner.ID), ErrCharacterNotFound)
	})

	t.Run("owner listing includes unlisted, visitor listing does not", func(t *testing.T) {
		st := newTestStore(t)
		owner := seedUser(t, st, "artist@example.com", "")
		svc := &CharacterService{Store: st}

		_, err := svc.Create(ctx, owner.ID, CharacterInput{Name: "Public One"})
		require.NoError(t, err)
		_, err = svc.Create(ctx, owner.ID, CharacterInput{
			Name:       "Hidden One",
			Visibility: domain.VisibilityUnlisted,
		})
		require.NoError(t, err)

		mine, err := svc.ListByOwner(ctx, owner.ID, owner.ID)
		require.NoError(t, err)
		require.Len(t, mine, 2)

		theirs, err := svc.ListByOwner(ctx, owner.ID, "someone-else")
		require.NoError(t, err)
		require.Len(t, theirs, 1)
		require.Equal(t, "Public One", theirs[0].Name)
	})
}

func TestCharacterListPublic(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	owner := seedUser(t, st, "artist@example.com", "")
	svc := &CharacterService{Store: st}

	seedCharacter(t, st, owner.ID, "A", domain.VisibilityPublic)
	seedCharacter(t, st, owner.ID, "B", domain.VisibilityPublic)
	seedCharacter(t, st, owner.ID, "C", domain.VisibilityUnlisted)

	page, err := svc.ListPublic(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	for _, c := range page {
		require.Equal(t, domain.VisibilityPublic, c.Visibility)
	}

	// Out-of-range paging parameters fall back to sane defaults.
	page, err = svc.ListPublic(ctx, -5, -3)
	require.NoError(t, err)
	require.Len(t, page, 2)
}
