package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version,omitempty"`
	Database    string `json:"database"`
	Simulations int    `json:"simulations"`
}

// Health reports liveness. A failing database degrades the status but
// still answers 200, since force evaluation works without it.
func Health(version string, db Pinger, worlds interface{ Len() int }) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Version: version, Database: "disabled"}
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				resp.Status = "degraded"
				resp.Database = "unreachable"
			} else {
				resp.Database = "ok"
			}
		}
		if worlds != nil {
			resp.Simulations = worlds.Len()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
