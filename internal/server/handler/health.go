package handler

import (
	"net/http"
	"time"

	"github.com/updownlabs/updown/internal/domain"
)

var startedAt = time.Now()

// Health reports process liveness and the current block height.
// GET /api/health
func Health(blocks domain.BlockSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		height, err := blocks.Height(r.Context())
		status := "ok"
		if err != nil {
			status = "degraded"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": status,
			"uptime": time.Since(startedAt).String(),
			"height": height,
		})
	}
}
