package barneshut

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

// Solver computes Barnes-Hut forces for successive batches of bodies.
// Each batch gets a freshly built tree; the node storage is reused.
//
// A Solver must not be used by several goroutines at once. The force phase
// of one call fans out over Options.Workers goroutines sharing the tree.
type Solver struct {
	opts Options
	tree *Tree
}

// NewSolver validates opts and returns a solver.
func NewSolver(opts Options) (*Solver, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Solver{opts: opts}, nil
}

// Options returns the solver's configuration.
func (s *Solver) Options() Options {
	return s.opts
}

// Tree returns the tree of the last Build, or nil before the first one.
// A failed Build leaves it empty.
func (s *Solver) Tree() *Tree {
	return s.tree
}

// Build validates bodies and rebuilds the tree over them.
func (s *Solver) Build(bodies []Body) (*Tree, error) {
	if err := ValidateBodies(bodies); err != nil {
		return nil, err
	}
	cell, err := BoundingCell(bodies, s.opts.Bounds)
	if err != nil {
		return nil, err
	}
	if s.tree == nil {
		s.tree = New(cell, s.opts)
	} else {
		s.tree.Reset(cell)
	}
	if err := s.tree.InsertAll(bodies); err != nil {
		s.tree.Reset(cell)
		return nil, err
	}
	return s.tree, nil
}

// Forces builds a tree over bodies and returns the force on each body, in
// input order.
func (s *Solver) Forces(bodies []Body) ([]r2.Vec, error) {
	tree, err := s.Build(bodies)
	if err != nil {
		return nil, err
	}
	forces := make([]r2.Vec, len(bodies))
	s.forces(tree, bodies, forces)
	return forces, nil
}

// Evaluate computes the force on each body against the tree of the last
// Build and stores it in out, which is grown when too short. The bodies need
// not be the ones the tree was built from. After a failed Build the tree is
// empty and every force is zero.
func (s *Solver) Evaluate(bodies []Body, out []r2.Vec) []r2.Vec {
	if s.tree == nil {
		panic("barneshut: Evaluate called before Build")
	}
	if cap(out) < len(bodies) {
		out = make([]r2.Vec, len(bodies))
	}
	out = out[:len(bodies)]
	s.forces(s.tree, bodies, out)
	return out
}

func (s *Solver) forces(tree *Tree, bodies []Body, out []r2.Vec) {
	workers := s.opts.Workers
	if workers > len(bodies) {
		workers = len(bodies)
	}
	if workers <= 1 {
		forceRange(tree, bodies, out, s.opts.Theta, s.opts.G)
		return
	}

	chunk := (len(bodies) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(bodies); start += chunk {
		end := start + chunk
		if end > len(bodies) {
			end = len(bodies)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			forceRange(tree, bodies[start:end], out[start:end], s.opts.Theta, s.opts.G)
		}(start, end)
	}
	wg.Wait()
}

// forceRange writes the force on bodies[i] to out[i] reusing one walker.
func forceRange(tree *Tree, bodies []Body, out []r2.Vec, theta, g float64) {
	w := tree.Walker(0, 0, theta)
	for i, b := range bodies {
		w.Reset(b.X, b.Y)
		out[i] = tree.forceOn(w, b, g)
	}
}

// Forces is a convenience wrapper building a one-off Solver.
func Forces(bodies []Body, opts Options) ([]r2.Vec, error) {
	s, err := NewSolver(opts)
	if err != nil {
		return nil, err
	}
	return s.Forces(bodies)
}
