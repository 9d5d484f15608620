package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/httpx"
	"github.com/charahub/charahub/pkg/slogx"
)

type ReferralHandler struct {
	ReferralService *service.ReferralService
}

type referralCodeRequest struct {
	ReferralCode string `json:"referralCode" validate:"required,max=64"`
}

// HandleValidate reports whether a code is currently redeemable without
// consuming a use. Invalid codes answer with the most specific reason.
func (h *ReferralHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req referralCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "referralCode is required")
		return
	}

	rc, err := h.ReferralService.Validate(ctx, req.ReferralCode)
	if err != nil {
		status := http.StatusBadRequest
		var reason string
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			status = http.StatusNotFound
			reason = "referral code not found"
		case errors.Is(err, service.ErrCodeInactive):
			reason = "referral code is no longer active"
		case errors.Is(err, service.ErrCodeExpired):
			reason = "referral code has expired"
		case errors.Is(err, service.ErrCodeExhausted):
			reason = "referral code has no uses remaining"
		default:
			log.Error("referral validation failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}
		httpx.WriteJSON(w, status, map[string]any{"valid": false, "error": reason})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"valid":      true,
		"referralId": rc.ID,
		"remaining":  rc.Remaining(),
	})
}

// HandleAttach redeems a code for the authenticated account, approving it.
func (h *ReferralHandler) HandleAttach(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req referralCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "referralCode is required")
		return
	}

	if _, err := h.ReferralService.Attach(ctx, userID, req.ReferralCode); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "account not found")
		case errors.Is(err, service.ErrCodeNotFound):
			httpx.WriteError(w, http.StatusNotFound, "referral code not found")
		case errors.Is(err, service.ErrCodeInactive):
			httpx.WriteError(w, http.StatusBadRequest, "referral code is no longer active")
		case errors.Is(err, service.ErrCodeExpired):
			httpx.WriteError(w, http.StatusBadRequest, "referral code has expired")
		case errors.Is(err, service.ErrCodeExhausted):
			httpx.WriteError(w, http.StatusBadRequest, "referral code has no uses remaining")
		case errors.Is(err, service.ErrAlreadyAttached):
			httpx.WriteError(w, http.StatusBadRequest, "a referral is already attached to this account")
		case errors.Is(err, service.ErrSelfReferral):
			httpx.WriteError(w, http.StatusBadRequest, "cannot redeem your own referral code")
		default:
			log.Error("referral attach failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"approved": true,
	})
}

type referralMintRequest struct {
	Code      string     `json:"code" validate:"required,max=64"`
	MaxUses   int        `json:"maxUses" validate:"required,gt=0,lte=10000"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// HandleMint creates a new referral code owned by the authenticated account.
func (h *ReferralHandler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req referralMintRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "code and a positive maxUses are required")
		return
	}

	rc, err := h.ReferralService.Mint(ctx, userID, req.Code, req.MaxUses, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMint) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid referral code request")
			return
		}
		log.Error("referral mint failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"referralId": rc.ID,
		"code":       rc.Code,
		"maxUses":    rc.MaxUses,
	})
}
