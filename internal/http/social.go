package http

import (
	"errors"
	"net/http"

	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/httpx"
	"github.com/charahub/charahub/pkg/slogx"
)

type SocialHandler struct {
	SocialService *service.SocialService
}

func (h *SocialHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	err := h.SocialService.Follow(ctx, userID, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFollow):
			httpx.WriteError(w, http.StatusBadRequest, "cannot follow yourself")
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "user not found")
		default:
			log.Error("follow failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *SocialHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	if err := h.SocialService.Unfollow(ctx, userID, r.PathValue("id")); err != nil {
		log.Error("unfollow failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *SocialHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	err := h.SocialService.Favorite(ctx, userID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrCharacterNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "character not found")
			return
		}
		log.Error("favorite failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *SocialHandler) HandleUnfavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)

	if err := h.SocialService.Unfavorite(ctx, userID, r.PathValue("id")); err != nil {
		log.Error("unfavorite failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
