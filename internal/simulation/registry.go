package simulation

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/metrics"
)

var (
	ErrNotFound = errors.New("simulation: not found")
	ErrLimit    = errors.New("simulation: too many simulations")
)

// State is the lifecycle state of a registered world.
type State string

const (
	StateRunning  State = "running"
	StateFinished State = "finished"
	StateFailed   State = "failed"
)

// Summary describes a registered world without its bodies.
type Summary struct {
	ID     string  `json:"id"`
	State  State   `json:"state"`
	Step   int64   `json:"step"`
	Time   float64 `json:"time"`
	Bodies int     `json:"bodies"`
	Error  string  `json:"error,omitempty"`
}

type entry struct {
	world  *World
	runner *Runner
	cancel context.CancelFunc
}

func (e *entry) summary() Summary {
	f := e.world.Frame()
	s := Summary{ID: f.ID, State: StateRunning, Step: f.Step, Time: f.Time, Bodies: len(f.Bodies)}
	select {
	case <-e.runner.Done():
		s.State = StateFinished
		if err := e.world.Err(); err != nil {
			s.State = StateFailed
			s.Error = err.Error()
		}
	default:
	}
	return s
}

// Registry owns the running worlds. Finished and failed worlds stay
// registered until Stop removes them.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	max     int
	base    RunnerConfig
}

// NewRegistry returns a registry holding at most max worlds (zero means no
// limit). base supplies the interval, snapshot and publishing settings of
// every runner it starts.
func NewRegistry(max int, base RunnerConfig) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		max:     max,
		base:    base,
	}
}

// Start registers w and steps it in a new goroutine. maxSteps of zero runs
// until Stop.
func (r *Registry) Start(ctx context.Context, w *World, maxSteps int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.entries) >= r.max {
		return ErrLimit
	}

	cfg := r.base
	cfg.MaxSteps = maxSteps
	runner := NewRunner(w, cfg)
	ctx, cancel := context.WithCancel(ctx)
	r.entries[w.ID().String()] = &entry{world: w, runner: runner, cancel: cancel}
	metrics.SimulationsActive.Set(float64(len(r.entries)))

	go runner.Start(ctx)
	return nil
}

// Get returns the world registered under id.
func (r *Registry) Get(id string) (*World, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.world, true
}

// Summary returns the summary of one world.
func (r *Registry) Summary(id string) (Summary, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return Summary{}, ErrNotFound
	}
	return e.summary(), nil
}

// List returns summaries ordered by id.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stop cancels the world's runner, waits for it and unregisters it.
func (r *Registry) Stop(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		metrics.SimulationsActive.Set(float64(len(r.entries)))
	}
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.cancel()
	<-e.runner.Done()
	return nil
}

// StopAll stops every registered world.
func (r *Registry) StopAll() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	for _, id := range ids {
		_ = r.Stop(id)
	}
}

// Len returns the number of registered worlds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Limit returns the maximum number of worlds, zero meaning unlimited.
func (r *Registry) Limit() int {
	return r.max
}
