package domain

import "time"

// Follow records that FollowerID follows FolloweeID. The pair is unique.
type Follow struct {
	ID         string
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}

// Favorite records that UserID favourited CharacterID. The pair is unique.
type Favorite struct {
	ID          string
	UserID      string
	CharacterID string
	CreatedAt   time.Time
}

// CharacterRank is a leaderboard row for characters by favourite count.
type CharacterRank struct {
	CharacterID string `json:"characterId"`
	Name        string `json:"name"`
	OwnerID     string `json:"ownerId"`
	OwnerName   string `json:"ownerName"`
	Favorites   int    `json:"favorites"`
}

// CreatorRank is a leaderboard row for creators by follower count.
type CreatorRank struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Followers int    `json:"followers"`
}

// Leaderboard is the discovery feed payload.
type Leaderboard struct {
	TopCharacters []CharacterRank `json:"topCharacters"`
	TopCreators   []CreatorRank   `json:"topCreators"`
	GeneratedAt   time.Time       `json:"generatedAt"`
}
