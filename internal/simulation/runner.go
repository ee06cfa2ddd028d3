package simulation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/errorreporting"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/logger"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/metrics"
)

// SnapshotSaver persists frames.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, frame Frame) error
}

// Publisher receives every frame a runner produces. Publish must not block.
type Publisher interface {
	Publish(frame Frame)
}

// Finisher is implemented by publishers that want to know when a runner
// stops. err is the failed step's error, or nil.
type Finisher interface {
	Finish(id string, err error)
}

// Runner steps a world on a fixed interval until its context is cancelled,
// MaxSteps is reached, or a step fails.
type Runner struct {
	world         *World
	interval      time.Duration
	maxSteps      int64
	snapshotEvery int64
	saver         SnapshotSaver
	publisher     Publisher
	log           *slog.Logger

	done chan struct{}
}

// RunnerConfig configures a Runner. Zero SnapshotEvery or a nil Saver
// disable snapshots; zero MaxSteps runs until stopped.
type RunnerConfig struct {
	Interval      time.Duration
	MaxSteps      int64
	SnapshotEvery int64
	Saver         SnapshotSaver
	Publisher     Publisher
}

func NewRunner(world *World, cfg RunnerConfig) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = 50 * time.Millisecond
	}
	return &Runner{
		world:         world,
		interval:      cfg.Interval,
		maxSteps:      cfg.MaxSteps,
		snapshotEvery: cfg.SnapshotEvery,
		saver:         cfg.Saver,
		publisher:     cfg.Publisher,
		log:           logger.WithSimulation("runner", world.ID().String()),
		done:          make(chan struct{}),
	}
}

// Done is closed when Start returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Start blocks until the runner stops.
func (r *Runner) Start(ctx context.Context) {
	defer close(r.done)
	if f, ok := r.publisher.(Finisher); ok {
		defer func() { f.Finish(r.world.ID().String(), r.world.Err()) }()
	}
	ctx = logger.ContextWithSimulation(ctx, r.world.ID().String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("simulation started", "bodies", r.world.Len(), "dt", r.world.dt)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("simulation stopped", "step", r.world.Frame().Step)
			return
		case <-ticker.C:
			if !r.tick(ctx) {
				return
			}
		}
	}
}

// tick advances one step and reports whether the runner should continue.
func (r *Runner) tick(ctx context.Context) bool {
	if err := r.world.Step(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		frame := r.world.Frame()
		metrics.SimulationStepErrors.Inc()
		r.log.Error("simulation step failed", "step", frame.Step+1, "error", err)
		errorreporting.CaptureSimulationError(err, frame.ID, frame.Step+1, len(frame.Bodies))
		return false
	}
	metrics.SimulationStepsTotal.Inc()

	frame := r.world.Frame()
	if r.publisher != nil {
		r.publisher.Publish(frame)
	}
	if r.saver != nil && r.snapshotEvery > 0 && frame.Step%r.snapshotEvery == 0 {
		r.save(ctx, frame)
	}
	if r.maxSteps > 0 && frame.Step >= r.maxSteps {
		r.log.Info("simulation reached step limit", "step", frame.Step)
		if r.saver != nil && (r.snapshotEvery <= 0 || frame.Step%r.snapshotEvery != 0) {
			r.save(ctx, frame)
		}
		return false
	}
	return true
}

func (r *Runner) save(ctx context.Context, frame Frame) {
	if err := r.saver.SaveSnapshot(ctx, frame); err != nil {
		metrics.SnapshotsSaved.WithLabelValues("error").Inc()
		logger.ErrorContext(ctx, "failed to save snapshot", "step", frame.Step, "error", err)
		return
	}
	metrics.SnapshotsSaved.WithLabelValues("success").Inc()
}
