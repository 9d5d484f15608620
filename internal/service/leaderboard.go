package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/slogx"
)

const (
	leaderboardCacheKey = "charahub:leaderboard:v1"
	leaderboardSize     = 10
)

// DefaultLeaderboardTTL bounds how stale the cached leaderboard may be.
const DefaultLeaderboardTTL = time.Minute

// LeaderboardService serves the discovery feed: top characters by favourite
// count and top creators by follower count. Results are cached in Redis when
// a client is configured; without one every request recomputes from SQL.
type LeaderboardService struct {
	Store store.Store
	Redis *redis.Client
	TTL   time.Duration
}

func (s *LeaderboardService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultLeaderboardTTL
}

// Get returns the current leaderboard, preferring the cached copy.
func (s *LeaderboardService) Get(ctx context.Context) (domain.Leaderboard, error) {
	log := slogx.FromContext(ctx)

	if s.Redis != nil {
		raw, err := s.Redis.Get(ctx, leaderboardCacheKey).Bytes()
		if err == nil {
			var lb domain.Leaderboard
			if err := json.Unmarshal(raw, &lb); err == nil {
				return lb, nil
			}
			// Corrupt cache entry; fall through and recompute.
			log.Warn("discarding unparsable leaderboard cache entry")
		} else if err != redis.Nil {
			// Redis being down must not take the endpoint with it.
			log.Warn("leaderboard cache read failed", slog.Any("error", err))
		}
	}

	lb, err := s.compute(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	if s.Redis != nil {
		if raw, err := json.Marshal(lb); err == nil {
			if err := s.Redis.Set(ctx, leaderboardCacheKey, raw, s.ttl()).Err(); err != nil {
				log.Warn("leaderboard cache write failed", slog.Any("error", err))
			}
		}
	}

	return lb, nil
}

// Invalidate drops the cached leaderboard so the next read recomputes.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, leaderboardCacheKey).Err(); err != nil {
		slogx.FromContext(ctx).Warn("leaderboard cache invalidation failed", slog.Any("error", err))
	}
}

func (s *LeaderboardService) compute(ctx context.Context) (domain.Leaderboard, error) {
	characters, err := s.Store.Social().TopCharactersByFavorites(ctx, leaderboardSize)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	creators, err := s.Store.Social().TopCreatorsByFollowers(ctx, leaderboardSize)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	return domain.Leaderboard{
		TopCharacters: characters,
		TopCreators:   creators,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}
