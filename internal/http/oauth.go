package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/pkg/cryptox"
	"github.com/charahub/charahub/pkg/httpx"
	"github.com/charahub/charahub/pkg/slogx"
)

const oauthStateCookie = "charahub_oauth_state"

// OAuthHandler drives the browser through the provider's authorization-code
// flow. State is a random value round-tripped through a short-lived cookie.
type OAuthHandler struct {
	OAuthService *service.OAuthService

	// PublicBaseURL is the externally visible origin used to build the
	// callback redirect URI.
	PublicBaseURL string
}

func (h *OAuthHandler) redirectURI(provider string) string {
	return h.PublicBaseURL + "/auth/oauth/" + provider + "/callback"
}

// HandleStart redirects to the provider consent page.
func (h *OAuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	consentURL, err := h.OAuthService.AuthCodeURL(provider, state, h.redirectURI(provider))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "unknown oauth provider")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/oauth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, consentURL, http.StatusFound)
}

// HandleCallback finishes the flow and answers with a session token.
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	provider := r.PathValue("provider")

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		httpx.WriteError(w, http.StatusBadRequest, "oauth state mismatch")
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Path:   "/auth/oauth",
		MaxAge: -1,
	})

	user, session, err := h.OAuthService.HandleCallback(ctx, provider, r.URL.Query().Get("code"), h.redirectURI(provider))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownProvider):
			httpx.WriteError(w, http.StatusNotFound, "unknown oauth provider")
		case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrOAuthExchange):
			httpx.WriteError(w, http.StatusBadRequest, "oauth sign-in failed")
		default:
			log.Error("oauth callback failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, signInResponse{
		Success: true,
		User: signInUser{
			ID:       user.ID,
			Email:    user.Email,
			Name:     user.Name,
			Verified: user.IsVerified,
			Approved: user.IsApproved,
		},
		Token: session,
	})
}
