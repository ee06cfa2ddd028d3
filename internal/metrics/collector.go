package metrics

import (
	"context"
	"time"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
)

// WorldCounter reports the number of running simulations.
type WorldCounter interface {
	Len() int
}

// SnapshotCounter reports the number of stored snapshots.
type SnapshotCounter interface {
	CountSnapshots(ctx context.Context) (int64, error)
}

// Collector periodically samples gauges that are cheaper to poll than to
// maintain on every change.
type Collector struct {
	worlds    WorldCounter
	snapshots SnapshotCounter // nil when persistence is disabled
	interval  time.Duration
	stop      chan struct{}
}

// NewCollector creates a new metrics collector. snapshots may be nil.
func NewCollector(worlds WorldCounter, snapshots SnapshotCounter, interval time.Duration) *Collector {
	return &Collector{
		worlds:    worlds,
		snapshots: snapshots,
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect(ctx)

	for {
		select {
		case <-ticker.C:
			c.collect(ctx)
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector
func (c *Collector) Stop() {
	close(c.stop)
}

func (c *Collector) collect(ctx context.Context) {
	SimulationsActive.Set(float64(c.worlds.Len()))

	if c.snapshots == nil {
		return
	}
	n, err := c.snapshots.CountSnapshots(ctx)
	if err != nil {
		logger.WithComponent("metrics").Warn("counting snapshots failed", "error", err)
		MetricsCollectionErrors.WithLabelValues("snapshots").Inc()
		SnapshotsStored.Set(-1) // stale
		return
	}
	SnapshotsStored.Set(float64(n))
}
