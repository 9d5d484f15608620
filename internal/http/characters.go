package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/pkg/httpx"
	"github.com/charahub/charahub/pkg/slogx"
)

type CharactersHandler struct {
	CharacterService *service.CharacterService
}

type characterRequest struct {
	Name       string `json:"name" validate:"required,max=80"`
	Tagline    string `json:"tagline" validate:"max=160"`
	Bio        string `json:"bio" validate:"max=4000"`
	Species    string `json:"species" validate:"max=60"`
	ImageID    string `json:"imageId" validate:"max=64"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=public unlisted"`
}

func (req characterRequest) toInput() service.CharacterInput {
	return service.CharacterInput{
		Name:       req.Name,
		Tagline:    req.Tagline,
		Bio:        req.Bio,
		Species:    req.Species,
		ImageID:    req.ImageID,
		Visibility: req.Visibility,
	}
}

type characterResponse struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	Name       string    `json:"name"`
	Tagline    string    `json:"tagline,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Species    string    `json:"species,omitempty"`
	ImageID    string    `json:"imageId,omitempty"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toCharacterResponse(c domain.Character) characterResponse {
	return characterResponse{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		Name:       c.Name,
		Tagline:    c.Tagline,
		Bio:        c.Bio,
		Species:    c.Species,
		ImageID:    c.ImageID,
		Visibility: c.Visibility,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toCharacterResponses(cs []domain.Character) []characterResponse {
	out := make([]characterResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCharacterResponse(c))
	}
	return out
}

func (h *CharactersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	var req characterRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "a character name is required")
		return
	}

	c, err := h.CharacterService.Create(ctx, userID, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid character profile")
			return
		}
		log.Error("character create failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toCharacterResponse(c))
}

// HandleList serves the public gallery, or a single owner's characters when
// ?owner= is present.
func (h *CharactersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	viewerID := httpx.UserIDFromContext(ctx)

	if owner := r.URL.Query().Get("owner"); owner != "" {
		list, err := h.CharacterService.ListByOwner(ctx, owner, viewerID)
		if err != nil {
			log.Error("character owner listing failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"characters": toCharacterResponses(list)})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.CharacterService.ListPublic(ctx, limit, offset)
	if err != nil {
		log.Error("character listing failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"characters": toCharacterResponses(list)})
}

func (h *CharactersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	c, err := h.CharacterService.Get(ctx, r.PathValue("id"), httpx.UserIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, service.ErrCharacterNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "character not found")
			return
		}
		log.Error("character get failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toCharacterResponse(c))
}

func (h *CharactersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	var req characterRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid character profile")
		return
	}

	c, err := h.CharacterService.Update(ctx, r.PathValue("id"), userID, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			httpx.WriteError(w, http.StatusBadRequest, "invalid character profile")
		case errors.Is(err, service.ErrCharacterNotFound):
			httpx.WriteError(w, http.StatusNotFound, "character not found")
		case errors.Is(err, service.ErrNotOwner):
			httpx.WriteError(w, http.StatusForbidden, "only the owner may edit a character")
		default:
			log.Error("character update failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toCharacterResponse(c))
}

func (h *CharactersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	if err := h.CharacterService.Delete(ctx, r.PathValue("id"), userID); err != nil {
		switch {
		case errors.Is(err, service.ErrCharacterNotFound):
			httpx.WriteError(w, http.StatusNotFound, "character not found")
		case errors.Is(err, service.ErrNotOwner):
			httpx.WriteError(w, http.StatusForbidden, "only the owner may delete a character")
		default:
			log.Error("character delete failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
