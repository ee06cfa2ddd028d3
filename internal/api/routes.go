package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/api/handlers"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/cache"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/gravity"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/middleware"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/simulation"
)

// Deps are the collaborators of the HTTP API. Cache, Snapshots, DB and
// RateLimiter are optional.
type Deps struct {
	Context      context.Context // runners started over the API stop with it
	Gravity      *gravity.Service
	Registry     *simulation.Registry
	Hub          *handlers.Hub
	Cache        cache.Cache
	CacheTTL     time.Duration
	Snapshots    handlers.SnapshotReader
	DB           handlers.Pinger
	RateLimiter  *middleware.RateLimiter
	CORSOrigins  []string
	MaxBodyBytes int64
	Version      string
}

// NewRouter registers every route and wraps the router in the middleware
// chain.
func NewRouter(d Deps) http.Handler {
	if d.Context == nil {
		d.Context = context.Background()
	}
	r := mux.NewRouter()
	r.Use(middleware.RequestMetrics)

	var worlds interface{ Len() int }
	if d.Registry != nil {
		worlds = d.Registry
	}
	r.HandleFunc("/health", handlers.Health(d.Version, d.DB, worlds)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/forces", handlers.NewForcesHandler(d.Gravity, d.Cache, d.CacheTTL)).Methods(http.MethodPost)
	api.Handle("/tree", handlers.NewTreeHandler(d.Gravity)).Methods(http.MethodPost)

	sims := handlers.NewSimulationHandler(d.Context, d.Gravity, d.Registry, d.Hub, d.Snapshots)
	api.HandleFunc("/simulations", sims.Create).Methods(http.MethodPost)
	api.Handle("/simulations", middleware.ETag(http.HandlerFunc(sims.List))).Methods(http.MethodGet)
	api.Handle("/simulations/{id}", middleware.ETag(http.HandlerFunc(sims.Get))).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}", sims.Delete).Methods(http.MethodDelete)
	api.Handle("/simulations/{id}/snapshots", middleware.ETag(http.HandlerFunc(sims.Snapshots))).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}/stream", sims.Stream).Methods(http.MethodGet)

	var h http.Handler = r
	h = middleware.LimitBody(d.MaxBodyBytes)(h)
	h = middleware.Compress(h)
	if d.RateLimiter != nil {
		h = d.RateLimiter.Limit(h)
	}
	h = middleware.CORS(d.CORSOrigins)(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.RecoverWithSentry(h)
	h = middleware.RequestID(h)
	return h
}
