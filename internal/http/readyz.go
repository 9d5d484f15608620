package http

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/httpx"
)

// ReadyzHandler is the readiness probe: checks the database and, when
// configured, the Redis cache. A degraded cache does not fail readiness
// because the leaderboard falls back to SQL.
func ReadyzHandler(startTime time.Time, version string, st store.Store, cache *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &healthChecks{Database: "ok"}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if cache != nil {
			checks.Cache = "ok"
			if err := cache.Ping(r.Context()).Err(); err != nil {
				checks.Cache = "error: " + err.Error()
				if status == "ok" {
					status = "degraded"
				}
			}
		}

		httpx.WriteJSON(w, code, healthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
