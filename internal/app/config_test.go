package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults apply with only the secret set", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")

		cfg, err := LoadConfig(context.Background())
		require.NoError(t, err)
		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, "dev", cfg.Env)
		require.Equal(t, "charahub.db", cfg.DatabaseFile)
		require.Equal(t, 24*time.Hour, cfg.SessionTTL)
		require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	})

	t.Run("missing secret is rejected", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "")

		_, err := LoadConfig(context.Background())
		require.Error(t, err)
	})

	t.Run("short secret is rejected", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "too-short")

		_, err := LoadConfig(context.Background())
		require.Error(t, err)
	})

	t.Run("overrides are honored", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("PORT", "9090")
		t.Setenv("SESSION_TTL", "1h")
		t.Setenv("REDIS_ADDR", "localhost:6379")

		cfg, err := LoadConfig(context.Background())
		require.NoError(t, err)
		require.Equal(t, 9090, cfg.Port)
		require.Equal(t, time.Hour, cfg.SessionTTL)
		require.Equal(t, "localhost:6379", cfg.RedisAddr)
	})
}
