package api

import (
	"context"
	"net/http"
	"time"

	"github.com/phrazzld/taskcal/internal/api/shared"
	"github.com/phrazzld/taskcal/internal/feedcache"
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string          `json:"status"`
	Database string          `json:"database"`
	Cache    feedcache.Stats `json:"cache"`
}

// HealthHandler reports service health.
type HealthHandler struct {
	db    Pinger
	stats func() feedcache.Stats
}

// NewHealthHandler creates a HealthHandler. stats may be nil.
func NewHealthHandler(db Pinger, stats func() feedcache.Stats) *HealthHandler {
	return &HealthHandler{db: db, stats: stats}
}

// Health handles GET /health. It answers 503 when the database cannot be
// reached.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "ok"}
	if h.stats != nil {
		resp.Cache = h.stats()
	}

	status := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	shared.RespondWithJSON(w, r, status, resp)
}
