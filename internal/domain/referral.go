package domain

import (
	"strings"
	"time"
)

// ReferralCode is a shared invitation token limiting how many new accounts
// may be approved under it. Codes compare case-insensitively; Code always
// holds the uppercase normal form.
//
// Invariant: 0 <= UsedCount <= MaxUses, and UsedCount only moves up.
type ReferralCode struct {
	ID        string
	Code      string
	CreatedBy string
	MaxUses   int
	UsedCount int
	IsActive  bool
	ExpiresAt *time.Time // nil means no expiry
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Remaining reports how many uses the code has left.
func (c ReferralCode) Remaining() int {
	if c.UsedCount >= c.MaxUses {
		return 0
	}
	return c.MaxUses - c.UsedCount
}

// UserReferral records that a referred account consumed one use of a code.
// At most one such record ever exists per ReferredUserID.
type UserReferral struct {
	ID             string
	ReferralCodeID string
	ReferrerUserID string
	ReferredUserID string
	CreatedAt      time.Time
}

// NormalizeCode uppercases and trims a referral code for comparison and
// storage lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
