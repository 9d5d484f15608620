package domain

import "time"

// Character visibility states.
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
)

// Character is an original-character profile owned by a user. ImageID
// references an asset in the external image CDN.
type Character struct {
	ID         string
	OwnerID    string
	Name       string
	Tagline    string
	Bio        string
	Species    string
	ImageID    string
	Visibility string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidVisibility reports whether v is a known visibility state.
func ValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityUnlisted
}
