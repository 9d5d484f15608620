package domain

import "time"

// VerificationTokenTTL is how long an email verification token stays valid.
const VerificationTokenTTL = 24 * time.Hour

// VerificationToken is a pending email verification. Only the SHA-256
// fingerprint of the opaque token is stored; the raw token is embedded in
// the verification link and never persisted.
type VerificationToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given time.
func (t VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
