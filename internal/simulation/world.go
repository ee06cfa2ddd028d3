package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/gravity"
)

// ErrInvalidStep is returned for a non-positive or non-finite time step.
var ErrInvalidStep = errors.New("simulation: invalid time step")

// Particle is a body with a velocity.
type Particle struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
	M  float64 `json:"m"`
}

// Frame is the state of a world after a step.
type Frame struct {
	ID     string          `json:"id"`
	Step   int64           `json:"step"`
	Time   float64         `json:"time"`
	Bodies []Particle      `json:"bodies"`
	Stats  barneshut.Stats `json:"stats"`
}

// World integrates a set of particles under mutual gravity. Only one
// goroutine may call Step; Frame and Summary may be called concurrently.
type World struct {
	id     uuid.UUID
	dt     float64
	solver *barneshut.Solver

	// scratch, owned by the stepping goroutine
	bodies []barneshut.Body
	forces []r2.Vec

	mu        sync.RWMutex
	particles []Particle
	step      int64
	time      float64
	stats     barneshut.Stats
	err       error
}

// NewWorld copies particles into a new world advancing dt per step.
func NewWorld(particles []Particle, dt float64, opts barneshut.Options) (*World, error) {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidStep, dt)
	}
	if len(particles) == 0 {
		return nil, barneshut.ErrNoBodies
	}
	for i, p := range particles {
		if math.IsNaN(p.VX) || math.IsInf(p.VX, 0) || math.IsNaN(p.VY) || math.IsInf(p.VY, 0) {
			return nil, fmt.Errorf("%w: particle %d has non-finite velocity", barneshut.ErrInvalidBody, i)
		}
	}
	solver, err := barneshut.NewSolver(opts)
	if err != nil {
		return nil, err
	}
	w := &World{
		id:        uuid.New(),
		dt:        dt,
		solver:    solver,
		particles: append([]Particle(nil), particles...),
		bodies:    make([]barneshut.Body, len(particles)),
	}
	for i, p := range w.particles {
		w.bodies[i] = barneshut.Body{X: p.X, Y: p.Y, M: p.M}
	}
	if err := barneshut.ValidateBodies(w.bodies); err != nil {
		return nil, err
	}
	return w, nil
}

// ID returns the world's identifier.
func (w *World) ID() uuid.UUID {
	return w.id
}

// Len returns the number of particles.
func (w *World) Len() int {
	return len(w.bodies)
}

// Dt returns the time step.
func (w *World) Dt() float64 {
	return w.dt
}

// Options returns the solver options the world was created with.
func (w *World) Options() barneshut.Options {
	return w.solver.Options()
}

// SetTheta switches the solver to a new accuracy parameter. Like Step, it
// must only be called from the stepping goroutine.
func (w *World) SetTheta(theta float64) error {
	opts := w.solver.Options()
	opts.Theta = theta
	solver, err := barneshut.NewSolver(opts)
	if err != nil {
		return err
	}
	w.solver = solver
	return nil
}

// Step advances the world by one time step using semi-implicit Euler:
// velocities are updated from the current forces first, positions from the
// new velocities. Massless particles feel no force and drift.
//
// A failed step leaves the world unchanged and is remembered in Err.
func (w *World) Step(ctx context.Context) error {
	w.mu.RLock()
	for i, p := range w.particles {
		w.bodies[i] = barneshut.Body{X: p.X, Y: p.Y, M: p.M}
	}
	w.mu.RUnlock()

	forces, stats, err := gravity.Run(ctx, w.solver, w.bodies, w.forces)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			w.mu.Lock()
			w.err = err
			w.mu.Unlock()
		}
		return err
	}
	w.forces = forces

	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.particles {
		p := &w.particles[i]
		if p.M > 0 {
			p.VX += forces[i].X / p.M * w.dt
			p.VY += forces[i].Y / p.M * w.dt
		}
		p.X += p.VX * w.dt
		p.Y += p.VY * w.dt
	}
	w.step++
	w.time += w.dt
	w.stats = stats
	return nil
}

// Frame returns a copy of the current state.
func (w *World) Frame() Frame {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Frame{
		ID:     w.id.String(),
		Step:   w.step,
		Time:   w.time,
		Bodies: append([]Particle(nil), w.particles...),
		Stats:  w.stats,
	}
}

// Err returns the error of the step that stopped the world, if any.
func (w *World) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.err
}

// Momentum returns the total linear momentum.
func (w *World) Momentum() r2.Vec {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var p r2.Vec
	for _, q := range w.particles {
		p = r2.Add(p, r2.Vec{X: q.M * q.VX, Y: q.M * q.VY})
	}
	return p
}
