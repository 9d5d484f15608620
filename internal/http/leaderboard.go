package http

import (
	"net/http"

	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/pkg/httpx"
	"github.com/charahub/charahub/pkg/slogx"
)

type LeaderboardHandler struct {
	LeaderboardService *service.LeaderboardService
}

func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	lb, err := h.LeaderboardService.Get(ctx)
	if err != nil {
		log.Error("leaderboard fetch failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lb)
}
