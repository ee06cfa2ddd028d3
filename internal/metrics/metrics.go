package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tree construction metrics
	TreeBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barneshut_tree_builds_total",
			Help: "Total number of quadtree builds",
		},
		[]string{"status"}, // status: success, invalid, degenerate
	)

	TreeBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "barneshut_tree_build_duration_seconds",
			Help:    "Duration of quadtree construction in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	TreeNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "barneshut_tree_nodes",
			Help:    "Number of nodes in built quadtrees",
			Buckets: prometheus.ExponentialBuckets(4, 4, 10),
		},
	)

	TreeDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "barneshut_tree_depth",
			Help:    "Deepest level of built quadtrees",
			Buckets: []float64{2, 4, 8, 12, 16, 24, 32, 48, 64},
		},
	)

	MergedBodiesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "barneshut_merged_bodies_total",
			Help: "Bodies folded into an existing leaf because they could not be separated",
		},
	)

	// Force evaluation metrics
	ForceBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barneshut_force_batch_duration_seconds",
			Help:    "Duration of force evaluation for one batch of bodies",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method"}, // method: barnes-hut, direct
	)

	ForceBatchBodies = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "barneshut_force_batch_bodies",
			Help:    "Number of bodies per force batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	// Simulation metrics
	SimulationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulations_active",
			Help: "Number of running simulations",
		},
	)

	SimulationStepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulation_steps_total",
			Help: "Total number of integration steps across all simulations",
		},
	)

	SimulationStepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulation_step_errors_total",
			Help: "Total number of integration steps that failed",
		},
	)

	SnapshotsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulation_snapshots_saved_total",
			Help: "Total number of simulation snapshot writes",
		},
		[]string{"status"},
	)

	SnapshotsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simulation_snapshots_stored",
			Help: "Number of snapshots in the database",
		},
	)

	// Database operation metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	DBOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operation_errors_total",
			Help: "Total number of database operation errors",
		},
		[]string{"operation"},
	)

	// API cache metrics
	APICacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_hits_total",
			Help: "Total number of API cache hits",
		},
		[]string{"endpoint"},
	)

	APICacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_misses_total",
			Help: "Total number of API cache misses",
		},
		[]string{"endpoint"},
	)

	// API request metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Metrics collection error tracking
	MetricsCollectionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metrics_collection_errors_total",
			Help: "Total number of errors during metrics collection",
		},
		[]string{"collector"}, // collector: simulations, snapshots
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket frames sent to clients",
		},
	)

	WebSocketMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Frames dropped because a client could not keep up",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_trips_total",
			Help: "Total number of times a circuit breaker opened",
		},
		[]string{"name"},
	)
)
