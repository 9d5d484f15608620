package store

import (
	"context"
	"errors"
	"time"

	"github.com/charahub/charahub/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrExhausted is returned by RedeemReferralCode when the conditional
	// increment finds no remaining uses.
	ErrExhausted = errors.New("store: referral code exhausted")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users
	ReferralCodes() ReferralCodes
	UserReferrals() UserReferrals
	VerificationTokens() VerificationTokens
	Characters() Characters
	Social() Social

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// only sanctioned way to run multi-step mutations atomically.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store. Nested WithTx is not supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail does an exact-match lookup; callers must surface a
	// generic not-found and never whether a near-miss exists.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. The unique email constraint is
	// enforced here, at the store layer, so concurrent duplicate signups
	// surface ErrAlreadyExists instead of racing a prior existence check.
	CreateUser(ctx context.Context, u domain.User) error

	// SetVerified flips is_verified and bumps updated_at.
	SetVerified(ctx context.Context, userID string) error

	// SetReferral records referred_by and flips is_approved in one write.
	SetReferral(ctx context.Context, userID, referrerID string) error
}

type ReferralCodes interface {
	// GetReferralCodeByCode looks up a code by its uppercase-normalized
	// textual form.
	GetReferralCodeByCode(ctx context.Context, code string) (domain.ReferralCode, error)

	// GetReferralCodeByID returns a code by id.
	GetReferralCodeByID(ctx context.Context, id string) (domain.ReferralCode, error)

	// CreateReferralCode inserts a new code (admin/bootstrap tooling).
	CreateReferralCode(ctx context.Context, c domain.ReferralCode) error

	// RedeemReferralCode consumes one use with a single conditional
	// UPDATE ... SET used_count = used_count + 1
	// WHERE used_count < max_uses AND is_active, returning ErrExhausted
	// when the ceiling was already reached. Under concurrent redemption of
	// a code with one use left exactly one caller wins.
	RedeemReferralCode(ctx context.Context, id string, now time.Time) (domain.ReferralCode, error)
}

type UserReferrals interface {
	// CreateUserReferral inserts the attachment record. The unique
	// referred_user_id constraint guarantees at most one attachment per
	// account, ever; a second insert surfaces ErrAlreadyExists.
	CreateUserReferral(ctx context.Context, r domain.UserReferral) error

	// GetUserReferralByReferredUser returns the attachment for an account.
	GetUserReferralByReferredUser(ctx context.Context, referredUserID string) (domain.UserReferral, error)
}

type VerificationTokens interface {
	// CreateVerificationToken stores a pending verification (token_hash is
	// the SHA-256 fingerprint of the opaque token).
	CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error

	// GetVerificationTokenByHash fetches a token record by fingerprint.
	GetVerificationTokenByHash(ctx context.Context, hash string) (domain.VerificationToken, error)

	// DeleteVerificationToken removes a token; ErrNotFound when it was
	// already consumed, which is what makes redemption single-use.
	DeleteVerificationToken(ctx context.Context, id string) error

	// DeleteVerificationTokensForUser clears pending verifications before
	// issuing a replacement token.
	DeleteVerificationTokensForUser(ctx context.Context, userID string) error

	// DeleteExpiredVerificationTokens is housekeeping.
	DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) error
}

type Characters interface {
	GetCharacterByID(ctx context.Context, id string) (domain.Character, error)
	CreateCharacter(ctx context.Context, c domain.Character) error
	UpdateCharacter(ctx context.Context, c domain.Character) error
	DeleteCharacter(ctx context.Context, id string) error

	// ListCharactersByOwner returns all characters owned by a user,
	// newest first.
	ListCharactersByOwner(ctx context.Context, ownerID string) ([]domain.Character, error)

	// ListPublicCharacters returns public characters, newest first.
	ListPublicCharacters(ctx context.Context, limit, offset int) ([]domain.Character, error)
}

type Social interface {
	// CreateFollow inserts a follow edge; ErrAlreadyExists on a duplicate
	// pair.
	CreateFollow(ctx context.Context, f domain.Follow) error
	DeleteFollow(ctx context.Context, followerID, followeeID string) error

	// CreateFavorite inserts a favourite edge; ErrAlreadyExists on a
	// duplicate pair.
	CreateFavorite(ctx context.Context, f domain.Favorite) error
	DeleteFavorite(ctx context.Context, userID, characterID string) error

	// TopCharactersByFavorites ranks public characters by favourite count.
	TopCharactersByFavorites(ctx context.Context, limit int) ([]domain.CharacterRank, error)

	// TopCreatorsByFollowers ranks users by follower count.
	TopCreatorsByFollowers(ctx context.Context, limit int) ([]domain.CreatorRank, error)
}
