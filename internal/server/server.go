package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/api"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/api/handlers"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/cache"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/config"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/gravity"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/metrics"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/middleware"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/simulation"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/store"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg       *config.Config
	store     *store.Store // nil without DATABASE_URL
	cache     *cache.LRUCache
	hub       *handlers.Hub
	registry  *simulation.Registry
	collector *metrics.Collector
	limiter   *middleware.RateLimiter
	handler   http.Handler

	// simulations created over HTTP run under life, not the request context
	life     context.Context
	stopLife context.CancelFunc
}

// InitStore opens the snapshot store and creates its table. An empty
// DATABASE_URL disables persistence and returns nil.
func InitStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// NewServer wires the solver, simulations and HTTP API. st may be nil.
func NewServer(cfg *config.Config, st *store.Store) (*Server, error) {
	opts, err := cfg.SolverOptions()
	if err != nil {
		return nil, fmt.Errorf("solver options: %w", err)
	}
	svc, err := gravity.NewService(opts, cfg.MaxBodies)
	if err != nil {
		return nil, err
	}

	c, err := cache.NewLRU(int64(cfg.CacheMaxMB), int64(cfg.CacheMaxEntries), cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	s := &Server{cfg: cfg, store: st, cache: c, hub: handlers.NewHub()}
	s.life, s.stopLife = context.WithCancel(context.Background())

	base := simulation.RunnerConfig{
		Interval:      cfg.SimTick,
		SnapshotEvery: int64(cfg.SnapshotEvery),
		Publisher:     s.hub,
	}
	// interfaces stay nil without a store; a typed nil would be called
	var (
		snapshots handlers.SnapshotReader
		pinger    handlers.Pinger
		counter   metrics.SnapshotCounter
	)
	if st != nil {
		base.Saver = st
		snapshots, pinger, counter = st, st, st
	}
	s.registry = simulation.NewRegistry(cfg.SimMaxWorlds, base)
	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	s.collector = metrics.NewCollector(s.registry, counter, interval)

	if cfg.EnableRateLimit {
		s.limiter = middleware.NewRateLimiter(
			cfg.RateLimitGlobal, cfg.RateLimitGlobalBurst,
			cfg.RateLimitPerIP, cfg.RateLimitPerIPBurst,
			"/health", "/metrics",
		)
	}

	s.handler = api.NewRouter(api.Deps{
		Context:      s.life,
		Gravity:      svc,
		Registry:     s.registry,
		Hub:          s.hub,
		Cache:        c,
		CacheTTL:     cfg.CacheTTL,
		Snapshots:    snapshots,
		DB:           pinger,
		RateLimiter:  s.limiter,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Version:      cfg.ServiceVersion,
	})
	return s, nil
}

// Handler returns the HTTP handler. Simulations started through it only run
// while Serve is active.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the simulation registry.
func (s *Server) Registry() *simulation.Registry {
	return s.registry
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully: the listener closes, running simulations stop and background
// loops exit.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// the hub outlives ctx so stopped runners can still send end messages
	bg, stopBg := context.WithCancel(context.Background())
	defer stopBg()
	go s.hub.Run(bg)
	go s.collector.Start(bg)

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	s.registry.StopAll()
	s.stopLife()

	if errors.Is(serveErr, http.ErrServerClosed) {
		return nil
	}
	return serveErr
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Close releases the cache, the rate limiter and the store.
func (s *Server) Close() error {
	s.stopLife()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.cache.Close()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
