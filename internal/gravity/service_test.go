package gravity

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/metrics"
)

func ring(n int) []barneshut.Body {
	rng := rand.New(rand.NewSource(int64(n)))
	bodies := make([]barneshut.Body, n)
	for i := range bodies {
		a := 2 * math.Pi * float64(i) / float64(n)
		r := 10 + rng.Float64()
		bodies[i] = barneshut.Body{X: r * math.Cos(a), Y: r * math.Sin(a), M: 1 + rng.Float64()}
	}
	return bodies
}

func newService(t *testing.T, maxBodies int) *Service {
	t.Helper()
	opts := barneshut.DefaultOptions()
	opts.G = 1
	s, err := NewService(opts, maxBodies)
	require.NoError(t, err)
	return s
}

func ptr(v float64) *float64 { return &v }

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"", MethodBarnesHut, false},
		{"Barnes-Hut", MethodBarnesHut, false},
		{"bh", MethodBarnesHut, false},
		{"direct", MethodDirect, false},
		{"fmm", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, barneshut.ErrInvalidOptions)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestForcesBarnesHutAgainstDirect(t *testing.T) {
	s := newService(t, 0)
	bodies := ring(200)

	bh, err := s.Forces(context.Background(), Request{Bodies: bodies, Theta: ptr(0)})
	require.NoError(t, err)
	require.Equal(t, MethodBarnesHut, bh.Method)
	require.Equal(t, 200, bh.Stats.Inserted)

	direct, err := s.Forces(context.Background(), Request{Bodies: bodies, Method: "direct"})
	require.NoError(t, err)
	require.Equal(t, barneshut.Stats{}, direct.Stats)

	for i := range bodies {
		require.InDelta(t, direct.Forces[i].X, bh.Forces[i].X, 1e-9)
		require.InDelta(t, direct.Forces[i].Y, bh.Forces[i].Y, 1e-9)
	}
}

func TestOptionsOverrides(t *testing.T) {
	s := newService(t, 0)

	opts, err := s.Options(Request{Theta: ptr(0.3), G: ptr(2), Bounds: "compat"})
	require.NoError(t, err)
	require.Equal(t, 0.3, opts.Theta)
	require.Equal(t, 2.0, opts.G)
	require.Equal(t, barneshut.BoundsCompat, opts.Bounds)
	require.Equal(t, 1.0, s.Defaults().G, "overrides must not leak into defaults")

	_, err = s.Options(Request{Theta: ptr(-1)})
	require.ErrorIs(t, err, barneshut.ErrInvalidOptions)
	_, err = s.Options(Request{Bounds: "loose"})
	require.ErrorIs(t, err, barneshut.ErrInvalidOptions)
}

func TestForcesErrors(t *testing.T) {
	s := newService(t, 3)
	ctx := context.Background()

	_, err := s.Forces(ctx, Request{})
	require.ErrorIs(t, err, barneshut.ErrNoBodies)

	_, err = s.Forces(ctx, Request{Bodies: ring(4)})
	var tooMany *TooManyBodiesError
	require.True(t, errors.As(err, &tooMany))
	require.Equal(t, 4, tooMany.Count)
	require.Equal(t, 3, tooMany.Limit)

	_, err = s.Forces(ctx, Request{Bodies: []barneshut.Body{{X: math.NaN(), M: 1}}, Method: "direct"})
	require.ErrorIs(t, err, barneshut.ErrInvalidBody)

	_, err = s.Forces(ctx, Request{Bodies: ring(2), Method: "magic"})
	require.ErrorIs(t, err, barneshut.ErrInvalidOptions)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Forces(cancelled, Request{Bodies: ring(2)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTreeRetainsCells(t *testing.T) {
	s := newService(t, 0)
	tree, err := s.Tree(context.Background(), Request{Bodies: ring(16)})
	require.NoError(t, err)
	require.NotNil(t, tree.Root().Cell)
	require.Len(t, tree.Leaves(), 16)
}

func TestBuildMetrics(t *testing.T) {
	opts := barneshut.DefaultOptions()
	opts.Collision = barneshut.CollisionReject
	s, err := NewService(opts, 0)
	require.NoError(t, err)

	degenerate := metrics.TreeBuildsTotal.WithLabelValues("degenerate")
	before := testutil.ToFloat64(degenerate)

	_, err = s.Forces(context.Background(), Request{Bodies: []barneshut.Body{{X: 5, Y: 5, M: 2}, {X: 5, Y: 5, M: 3}}})
	require.ErrorIs(t, err, barneshut.ErrDegenerateInsert)
	require.Equal(t, before+1, testutil.ToFloat64(degenerate))
}

func TestRunReusesBuffer(t *testing.T) {
	solver, err := barneshut.NewSolver(barneshut.DefaultOptions())
	require.NoError(t, err)

	bodies := ring(32)
	first, stats, err := Run(context.Background(), solver, bodies, nil)
	require.NoError(t, err)
	require.Equal(t, 32, stats.Inserted)

	second, _, err := Run(context.Background(), solver, bodies, first)
	require.NoError(t, err)
	require.Equal(t, &first[0], &second[0])
}
