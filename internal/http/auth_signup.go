package http

import (
	"errors"
	"net/http"

	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/pkg/httpx"
	"github.com/charahub/charahub/pkg/slogx"
)

type SignupHandler struct {
	SignupService *service.SignupService
}

type signupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"required,max=100"`
	ReferralCode string `json:"referralCode" validate:"required"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	Username     string `json:"username" validate:"omitempty,alphanum,max=32"`
}

type signupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "email, name, referralCode and password are required")
		return
	}

	res, err := h.SignupService.Signup(ctx, req.Email, req.Name, req.ReferralCode, req.Password, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			httpx.WriteError(w, http.StatusBadRequest, "email, name, referralCode and password are required")
		case errors.Is(err, service.ErrUserExists):
			httpx.WriteError(w, http.StatusBadRequest, "an account already exists for this email")
		case errors.Is(err, service.ErrCodeNotFound):
			httpx.WriteError(w, http.StatusBadRequest, "referral code not found")
		case errors.Is(err, service.ErrCodeInactive):
			httpx.WriteError(w, http.StatusBadRequest, "referral code is no longer active")
		case errors.Is(err, service.ErrCodeExpired):
			httpx.WriteError(w, http.StatusBadRequest, "referral code has expired")
		case errors.Is(err, service.ErrCodeExhausted):
			httpx.WriteError(w, http.StatusBadRequest, "referral code has no uses remaining")
		default:
			log.Error("signup failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	msg := "Account created. Check your email to verify your address."
	if !res.EmailSent {
		msg = "Account created, but the verification email could not be sent. Request a new one from the sign-in page."
	}

	httpx.WriteJSON(w, http.StatusOK, signupResponse{Success: true, Message: msg})
}
