package http

import (
	"errors"
	"net/http"

	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/pkg/httpx"
	"github.com/charahub/charahub/pkg/slogx"
)

// VerifyHandler consumes email verification links. Success redirects the
// browser to the dashboard; every failure is a 400 so the token state is
// never leaked to probes.
type VerifyHandler struct {
	VerificationService *service.VerificationService

	// RedirectURL is where a verified browser lands, e.g.
	// https://charahub.example/dashboard?verified=1
	RedirectURL string
}

func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "verification token is required")
		return
	}

	if _, err := h.VerificationService.Redeem(ctx, token); err != nil {
		switch {
		case errors.Is(err, service.ErrTokenNotFound):
			httpx.WriteError(w, http.StatusBadRequest, "verification token is invalid")
		case errors.Is(err, service.ErrTokenExpired):
			httpx.WriteError(w, http.StatusBadRequest, "verification token has expired")
		default:
			log.Error("verification redeem failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	http.Redirect(w, r, h.RedirectURL, http.StatusSeeOther)
}
