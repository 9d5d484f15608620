package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/idx"
	"github.com/charahub/charahub/pkg/slogx"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrNotOwner          = errors.New("character is owned by another user")
)

const (
	maxCharacterName = 80
	maxTagline       = 160
	maxBio           = 4000
)

// CharacterService owns the original-character profiles: CRUD plus the
// ownership checks that keep one user from editing another's creation.
type CharacterService struct {
	Store store.Store
}

// CharacterInput carries the caller-editable fields of a profile.
type CharacterInput struct {
	Name       string
	Tagline    string
	Bio        string
	Species    string
	ImageID    string
	Visibility string
}

func (in *CharacterInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Tagline = strings.TrimSpace(in.Tagline)
	in.Species = strings.TrimSpace(in.Species)
	if in.Visibility == "" {
		in.Visibility = domain.VisibilityPublic
	}

	switch {
	case in.Name == "" || len(in.Name) > maxCharacterName:
		return ErrInvalidInput
	case len(in.Tagline) > maxTagline:
		return ErrInvalidInput
	case len(in.Bio) > maxBio:
		return ErrInvalidInput
	case !domain.ValidVisibility(in.Visibility):
		return ErrInvalidInput
	}
	return nil
}

// Create registers a new character owned by ownerID.
func (s *CharacterService) Create(ctx context.Context, ownerID string, in CharacterInput) (domain.Character, error) {
	log := slogx.FromContext(ctx)

	if err := in.normalize(); err != nil {
		return domain.Character{}, err
	}

	c := domain.Character{
		ID:         idx.New().String(),
		OwnerID:    ownerID,
		Name:       in.Name,
		Tagline:    in.Tagline,
		Bio:        in.Bio,
		Species:    in.Species,
		ImageID:    in.ImageID,
		Visibility: in.Visibility,
	}
	if err := s.Store.Characters().CreateCharacter(ctx, c); err != nil {
		log.Error("failed to create character", slog.Any("error", err))
		return domain.Character{}, err
	}

	log.Info("character created",
		slog.String("character_id", c.ID),
		slog.String("owner_id", ownerID),
	)
	return c, nil
}

// Get returns a character. Unlisted characters are only visible to their
// owner; viewerID may be empty for anonymous reads.
func (s *CharacterService) Get(ctx context.Context, id, viewerID string) (domain.Character, error) {
	c, err := s.Store.Characters().GetCharacterByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Character{}, ErrCharacterNotFound
		}
		return domain.Character{}, err
	}

	if c.Visibility == domain.VisibilityUnlisted && c.OwnerID != viewerID {
		// Hidden profiles are indistinguishable from absent ones.
		return domain.Character{}, ErrCharacterNotFound
	}
	return c, nil
}

// Update replaces the editable fields of a character. Only the owner may
// update.
func (s *CharacterService) Update(ctx context.Context, id, callerID string, in CharacterInput) (domain.Character, error) {
	log := slogx.FromContext(ctx)

	if err := in.normalize(); err != nil {
		return domain.Character{}, err
	}

	c, err := s.Store.Characters().GetCharacterByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Character{}, ErrCharacterNotFound
		}
		return domain.Character{}, err
	}
	if c.OwnerID != callerID {
		return domain.Character{}, ErrNotOwner
	}

	c.Name = in.Name
	c.Tagline = in.Tagline
	c.Bio = in.Bio
	c.Species = in.Species
	c.ImageID = in.ImageID
	c.Visibility = in.Visibility

	if err := s.Store.Characters().UpdateCharacter(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Character{}, ErrCharacterNotFound
		}
		log.Error("failed to update character", slog.Any("error", err))
		return domain.Character{}, err
	}

	return c, nil
}

// Delete removes a character. Only the owner may delete.
func (s *CharacterService) Delete(ctx context.Context, id, callerID string) error {
	log := slogx.FromContext(ctx)

	c, err := s.Store.Characters().GetCharacterByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCharacterNotFound
		}
		return err
	}
	if c.OwnerID != callerID {
		return ErrNotOwner
	}

	if err := s.Store.Characters().DeleteCharacter(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCharacterNotFound
		}
		return err
	}

	log.Info("character deleted",
		slog.String("character_id", id),
		slog.String("owner_id", callerID),
	)
	return nil
}

// ListByOwner returns all characters owned by ownerID, including unlisted
// ones when the viewer is the owner.
func (s *CharacterService) ListByOwner(ctx context.Context, ownerID, viewerID string) ([]domain.Character, error) {
	all, err := s.Store.Characters().ListCharactersByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if ownerID == viewerID {
		return all, nil
	}

	visible := make([]domain.Character, 0, len(all))
	for _, c := range all {
		if c.Visibility == domain.VisibilityPublic {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// ListPublic returns a page of the public gallery, newest first.
func (s *CharacterService) ListPublic(ctx context.Context, limit, offset int) ([]domain.Character, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.Characters().ListPublicCharacters(ctx, limit, offset)
}
