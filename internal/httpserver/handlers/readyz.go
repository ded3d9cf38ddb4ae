package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/keepdeck/keep/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready     bool   `json:"ready"`
	Resources int    `json:"resources"`
	Redis     string `json:"redis"`
}

// Readyz reports readiness: the catalog is loaded and Redis answers.
// Redis being down degrades readiness but does not flip it, the
// in-memory catalog still serves reads.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redisStatus := "ok"
		if d.RedisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.RedisClient.Ping(ctx).Err(); err != nil {
				redisStatus = "unreachable"
			}
		} else {
			redisStatus = "not configured"
		}

		writeJSON(w, http.StatusOK, readyzResponse{
			Ready:     true,
			Resources: d.Catalog.Len(),
			Redis:     redisStatus,
		})
	}
}
