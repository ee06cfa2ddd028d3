package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	HTTPAddr string
	Env      string
	// Barnes-Hut solver settings
	Theta           float64 // accuracy parameter, 0 = exact
	GravityConstant float64 // interaction constant G
	MaxTreeDepth    int     // deepest level a single insertion may create
	CollisionPolicy string  // merge or reject
	BoundsMode      string  // enclosing or compat
	RetainCells     bool    // keep per-node cells (tree dumps show them)
	ForceWorkers    int     // goroutines per force batch
	MaxBodies       int     // largest accepted batch
	// Simulation settings
	SimTick         time.Duration // wall time between simulation steps
	SimMaxWorlds    int           // concurrently running simulations
	SnapshotEvery   int           // persist every n-th step, 0 disables
	MetricsInterval time.Duration // gauge sampling period
	DatabaseURL     string
	// Response cache
	CacheMaxMB      int
	CacheMaxEntries int
	CacheTTL        time.Duration
	// Security settings
	RateLimitGlobal      float64  // requests per second globally
	RateLimitGlobalBurst int      // burst size for global rate limit
	RateLimitPerIP       float64  // requests per second per IP
	RateLimitPerIPBurst  int      // burst size for per-IP rate limit
	EnableRateLimit      bool     // enable rate limiting middleware
	CORSAllowedOrigins   []string // allowed CORS origins
	MaxBodyBytes         int64    // largest accepted request body
	// Observability settings
	LogLevel          string  // log level: debug, info, warn, error
	OTELEnabled       bool    // enable OpenTelemetry tracing
	OTELEndpoint      string  // OpenTelemetry collector endpoint
	OTELSampleRate    float64 // trace sampling rate (0.0 to 1.0)
	SentryDSN         string  // Sentry DSN for error reporting
	SentryEnvironment string  // Sentry environment (dev, staging, production)
	SentryRelease     string  // Sentry release version
	SentrySampleRate  float64 // Sentry error sampling rate (0.0 to 1.0)
	ServiceVersion    string
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	cached = &Config{
		HTTPAddr: utils.GetEnv("HTTP_ADDR", ":8080"),
		Env:      utils.GetEnv("ENV", "development"),

		Theta:           utils.GetEnvAsFloat("THETA", barneshut.DefaultTheta),
		GravityConstant: utils.GetEnvAsFloat("GRAVITY_CONSTANT", barneshut.G),
		MaxTreeDepth:    utils.GetEnvAsInt("MAX_TREE_DEPTH", barneshut.DefaultMaxDepth),
		CollisionPolicy: strings.ToLower(utils.GetEnv("COLLISION_POLICY", "merge")),
		BoundsMode:      strings.ToLower(utils.GetEnv("BOUNDS_MODE", "enclosing")),
		RetainCells:     utils.GetEnvAsBool("RETAIN_CELLS", false),
		ForceWorkers:    utils.GetEnvAsInt("FORCE_WORKERS", runtime.GOMAXPROCS(0)),
		MaxBodies:       utils.GetEnvAsInt("MAX_BODIES", 100000),

		SimTick:         utils.GetEnvAsMillis("SIM_TICK_MS", 50),
		SimMaxWorlds:    utils.GetEnvAsInt("SIM_MAX_WORLDS", 16),
		SnapshotEvery:   utils.GetEnvAsInt("SNAPSHOT_EVERY", 100),
		MetricsInterval: time.Duration(utils.GetEnvAsInt("METRICS_INTERVAL_SEC", 30)) * time.Second,
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),

		CacheMaxMB:      utils.GetEnvAsInt("CACHE_MAX_MB", 128),
		CacheMaxEntries: utils.GetEnvAsInt("CACHE_MAX_ENTRIES", 2048),
		CacheTTL:        time.Duration(utils.GetEnvAsInt("CACHE_TTL_SEC", 300)) * time.Second,

		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 100.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 200),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 10.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 20),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),
		CORSAllowedOrigins:   utils.GetEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}, ","),
		MaxBodyBytes:         int64(utils.GetEnvAsInt("MAX_BODY_BYTES", 10<<20)),

		LogLevel:          strings.ToLower(utils.GetEnv("LOG_LEVEL", "info")),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment: strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:     strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
		SentrySampleRate:  utils.GetEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
		ServiceVersion:    utils.GetEnv("SERVICE_VERSION", "dev"),
	}
	if cached.SentryEnvironment == "" {
		cached.SentryEnvironment = cached.Env
	}
	if cached.SentryRelease == "" {
		cached.SentryRelease = cached.ServiceVersion
	}
	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }

// SolverOptions converts the solver settings into barneshut options and
// validates them.
func (c *Config) SolverOptions() (barneshut.Options, error) {
	collision, err := barneshut.ParseCollisionPolicy(c.CollisionPolicy)
	if err != nil {
		return barneshut.Options{}, fmt.Errorf("COLLISION_POLICY: %w", err)
	}
	bounds, err := barneshut.ParseBoundsMode(c.BoundsMode)
	if err != nil {
		return barneshut.Options{}, fmt.Errorf("BOUNDS_MODE: %w", err)
	}
	opts := barneshut.Options{
		Theta:       c.Theta,
		G:           c.GravityConstant,
		MaxDepth:    c.MaxTreeDepth,
		Collision:   collision,
		Bounds:      bounds,
		RetainCells: c.RetainCells,
		Workers:     c.ForceWorkers,
	}
	if err := opts.Validate(); err != nil {
		return barneshut.Options{}, err
	}
	return opts, nil
}
