package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeWorlds int

func (f fakeWorlds) Len() int { return int(f) }

type fakeSnapshots struct {
	n   int64
	err error
}

func (f fakeSnapshots) CountSnapshots(context.Context) (int64, error) { return f.n, f.err }

func TestCollectorCollect(t *testing.T) {
	c := NewCollector(fakeWorlds(3), fakeSnapshots{n: 42}, time.Minute)
	c.collect(context.Background())

	if got := testutil.ToFloat64(SimulationsActive); got != 3 {
		t.Errorf("simulations_active = %f, want 3", got)
	}
	if got := testutil.ToFloat64(SnapshotsStored); got != 42 {
		t.Errorf("simulation_snapshots_stored = %f, want 42", got)
	}
}

func TestCollectorMarksStaleOnError(t *testing.T) {
	before := testutil.ToFloat64(MetricsCollectionErrors.WithLabelValues("snapshots"))

	c := NewCollector(fakeWorlds(0), fakeSnapshots{err: errors.New("connection refused")}, time.Minute)
	c.collect(context.Background())

	if got := testutil.ToFloat64(SnapshotsStored); got != -1 {
		t.Errorf("expected stale marker -1, got %f", got)
	}
	if got := testutil.ToFloat64(MetricsCollectionErrors.WithLabelValues("snapshots")); got != before+1 {
		t.Errorf("expected error counter to grow by 1, got %f -> %f", before, got)
	}
}

func TestCollectorWithoutStore(t *testing.T) {
	c := NewCollector(fakeWorlds(5), nil, time.Minute)
	c.collect(context.Background())
	if got := testutil.ToFloat64(SimulationsActive); got != 5 {
		t.Errorf("simulations_active = %f, want 5", got)
	}
}

func TestCollectorStops(t *testing.T) {
	c := NewCollector(fakeWorlds(1), nil, 10*time.Millisecond)
	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()
	c.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestCollectorContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCollector(fakeWorlds(1), nil, 10*time.Millisecond)
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector ignored context cancellation")
	}
}
