package domain

import "time"

// User is the account identity record. Email is the exact-match login key.
// PasswordHash is empty for OAuth-created accounts.
type User struct {
	ID           string
	Email        string
	Name         string
	Username     string // optional, "" when unset
	PasswordHash string // bcrypt encoded; never logged, never serialized
	IsVerified   bool   // flipped once by verification-token redemption
	IsApproved   bool   // flipped once by referral attachment
	ReferredBy   string // account id of the referrer, "" until attached
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
