package http

import (
	"errors"
	"net/http"

	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/pkg/httpx"
	"github.com/charahub/charahub/pkg/slogx"
)

type SignInHandler struct {
	AuthService *service.AuthService
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signInResponse struct {
	Success bool       `json:"success"`
	User    signInUser `json:"user"`
	Token   string     `json:"token"`
}

type signInUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
	Approved bool   `json:"approved"`
}

func (h *SignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, session, err := h.AuthService.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			httpx.WriteError(w, http.StatusBadRequest, "email and password are required")
		case errors.Is(err, service.ErrUnknownEmail):
			// The frontend uses this to route to the signup flow.
			httpx.WriteJSON(w, http.StatusNotFound, map[string]any{
				"success":     false,
				"needsSignup": true,
			})
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			log.Error("signin failed", "err", err)
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
