// Package gravity wraps the Barnes-Hut solver for request-scoped batches:
// per-request option overrides, size limits, tracing spans and metrics.
package gravity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/metrics"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/tracing"
)

// Method selects how forces are evaluated.
type Method string

const (
	MethodBarnesHut Method = "barnes-hut"
	MethodDirect    Method = "direct"
)

// ParseMethod accepts "", "barnes-hut", "barneshut", "bh" and "direct".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "barnes-hut", "barneshut", "bh":
		return MethodBarnesHut, nil
	case "direct":
		return MethodDirect, nil
	}
	return "", fmt.Errorf("%w: unknown method %q", barneshut.ErrInvalidOptions, s)
}

// TooManyBodiesError is returned for batches above the configured limit.
type TooManyBodiesError struct {
	Count, Limit int
}

func (e *TooManyBodiesError) Error() string {
	return fmt.Sprintf("gravity: %d bodies exceed the limit of %d", e.Count, e.Limit)
}

// Request is one batch with optional overrides of the service defaults.
type Request struct {
	Bodies []barneshut.Body
	Theta  *float64
	G      *float64
	Method string
	Bounds string
}

// Result holds one force per input body, in input order.
type Result struct {
	Forces []r2.Vec
	Stats  barneshut.Stats // zero for the direct method
	Method Method
}

// Service evaluates independent batches. It is safe for concurrent use:
// every call gets its own solver.
type Service struct {
	base      barneshut.Options
	maxBodies int
}

// NewService validates the default options. maxBodies <= 0 means unlimited.
func NewService(base barneshut.Options, maxBodies int) (*Service, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return &Service{base: base, maxBodies: maxBodies}, nil
}

// Defaults returns the options used when a request overrides nothing.
func (s *Service) Defaults() barneshut.Options {
	return s.base
}

// MaxBodies returns the batch size limit, 0 when unlimited.
func (s *Service) MaxBodies() int {
	return s.maxBodies
}

// Options merges the overrides of req into the service defaults.
func (s *Service) Options(req Request) (barneshut.Options, error) {
	opts := s.base
	if req.Theta != nil {
		opts.Theta = *req.Theta
	}
	if req.G != nil {
		opts.G = *req.G
	}
	if req.Bounds != "" {
		mode, err := barneshut.ParseBoundsMode(req.Bounds)
		if err != nil {
			return opts, err
		}
		opts.Bounds = mode
	}
	return opts, opts.Validate()
}

// CheckSize rejects batches above the configured limit.
func (s *Service) CheckSize(n int) error {
	if s.maxBodies > 0 && n > s.maxBodies {
		return &TooManyBodiesError{Count: n, Limit: s.maxBodies}
	}
	return nil
}

// Forces evaluates one batch.
func (s *Service) Forces(ctx context.Context, req Request) (Result, error) {
	method, err := ParseMethod(req.Method)
	if err != nil {
		return Result{}, err
	}
	opts, err := s.Options(req)
	if err != nil {
		return Result{}, err
	}
	if err := s.CheckSize(len(req.Bodies)); err != nil {
		return Result{}, err
	}

	if method == MethodDirect {
		forces, err := Direct(ctx, req.Bodies, opts.G)
		return Result{Forces: forces, Method: method}, err
	}

	solver, err := barneshut.NewSolver(opts)
	if err != nil {
		return Result{}, err
	}
	forces, stats, err := Run(ctx, solver, req.Bodies, nil)
	if err != nil {
		return Result{}, err
	}
	return Result{Forces: forces, Stats: stats, Method: method}, nil
}

// Tree builds the quadtree of one batch for inspection. Cells are retained
// so dumps show every node's region.
func (s *Service) Tree(ctx context.Context, req Request) (*barneshut.Tree, error) {
	opts, err := s.Options(req)
	if err != nil {
		return nil, err
	}
	if err := s.CheckSize(len(req.Bodies)); err != nil {
		return nil, err
	}
	opts.RetainCells = true
	solver, err := barneshut.NewSolver(opts)
	if err != nil {
		return nil, err
	}
	tree, _, err := build(ctx, solver, req.Bodies)
	return tree, err
}

// Run builds solver's tree over bodies and evaluates the force on each of
// them, recording spans and metrics for both phases. out is reused when large
// enough.
func Run(ctx context.Context, solver *barneshut.Solver, bodies []barneshut.Body, out []r2.Vec) ([]r2.Vec, barneshut.Stats, error) {
	_, stats, err := build(ctx, solver, bodies)
	if err != nil {
		return nil, barneshut.Stats{}, err
	}

	_, span := tracing.StartBatchSpan(ctx, "barneshut.forces", len(bodies), solver.Options().Theta)
	start := time.Now()
	out = solver.Evaluate(bodies, out)
	metrics.ForceBatchDuration.WithLabelValues(string(MethodBarnesHut)).Observe(time.Since(start).Seconds())
	metrics.ForceBatchBodies.Observe(float64(len(bodies)))
	tracing.EndSpan(span, nil)

	return out, stats, nil
}

func build(ctx context.Context, solver *barneshut.Solver, bodies []barneshut.Body) (*barneshut.Tree, barneshut.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, barneshut.Stats{}, err
	}
	_, span := tracing.StartBatchSpan(ctx, "barneshut.build", len(bodies), solver.Options().Theta)
	start := time.Now()
	tree, err := solver.Build(bodies)
	metrics.TreeBuildDuration.Observe(time.Since(start).Seconds())
	tracing.EndSpan(span, err)
	if err != nil {
		metrics.TreeBuildsTotal.WithLabelValues(buildStatus(err)).Inc()
		return nil, barneshut.Stats{}, err
	}

	stats := tree.Stats()
	metrics.TreeBuildsTotal.WithLabelValues("success").Inc()
	metrics.TreeNodes.Observe(float64(stats.Nodes))
	metrics.TreeDepth.Observe(float64(stats.Depth))
	if stats.Merged > 0 {
		metrics.MergedBodiesTotal.Add(float64(stats.Merged))
	}
	return tree, stats, nil
}

func buildStatus(err error) string {
	switch {
	case errors.Is(err, barneshut.ErrDegenerateInsert):
		return "degenerate"
	case errors.Is(err, barneshut.ErrNoBodies), errors.Is(err, barneshut.ErrInvalidBody):
		return "invalid"
	}
	return "error"
}

// Direct evaluates the exact pairwise sum after the same validation the tree
// path applies.
func Direct(ctx context.Context, bodies []barneshut.Body, g float64) ([]r2.Vec, error) {
	if len(bodies) == 0 {
		return nil, barneshut.ErrNoBodies
	}
	if err := barneshut.ValidateBodies(bodies); err != nil {
		return nil, err
	}
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return nil, fmt.Errorf("%w: interaction constant must be finite, got %g", barneshut.ErrInvalidOptions, g)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span := tracing.StartBatchSpan(ctx, "barneshut.direct", len(bodies), 0)
	start := time.Now()
	forces := barneshut.DirectForces(bodies, g)
	metrics.ForceBatchDuration.WithLabelValues(string(MethodDirect)).Observe(time.Since(start).Seconds())
	metrics.ForceBatchBodies.Observe(float64(len(bodies)))
	tracing.EndSpan(span, nil)
	return forces, nil
}
