package barneshut

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestSingleBodySelfForceIsZero(t *testing.T) {
	body := Body{X: 3, Y: 4, M: 10}
	tree := mustBuild([]Body{body}, DefaultOptions())

	effective := tree.EffectiveBodies(body.X, body.Y, DefaultTheta)
	require.Len(t, effective, 1)
	require.True(t, effective[0].Leaf)
	require.Equal(t, 10.0, effective[0].M)

	f := tree.ForceOn(body, DefaultTheta, 1)
	if f.X != 0 || f.Y != 0 {
		t.Errorf("force on self should be zero, got (%g,%g)", f.X, f.Y)
	}
}

func TestEmptyTreeWalk(t *testing.T) {
	tree := New(NewCell(0, 0, 10), DefaultOptions())
	effective := tree.EffectiveBodies(1, 1, 0.5)
	require.Len(t, effective, 1)
	require.Equal(t, 0.0, effective[0].M)

	f := tree.ForceOn(Body{X: 1, Y: 1, M: 1}, 0.5, 1)
	require.Equal(t, r2.Vec{}, f)
}

func TestTwoBodiesAttract(t *testing.T) {
	bodies := []Body{{X: 0, Y: 0, M: 1}, {X: 2, Y: 0, M: 4}}
	tree := mustBuild(bodies, DefaultOptions())

	f0 := tree.ForceOn(bodies[0], DefaultTheta, 1)
	f1 := tree.ForceOn(bodies[1], DefaultTheta, 1)

	// |F| = m1*m2/d² = 4/4 = 1, pointing at the other body.
	require.InDelta(t, 1, f0.X, 1e-12)
	require.InDelta(t, -1, f1.X, 1e-12)
	require.Equal(t, 0.0, f0.Y)
	require.Equal(t, 0.0, f1.Y)
}

func TestInteractionConstantScales(t *testing.T) {
	bodies := randomBodies(50, 11)
	tree := mustBuild(bodies, DefaultOptions())
	for _, b := range bodies[:10] {
		unit := tree.ForceOn(b, 0.5, 1)
		grav := tree.ForceOn(b, 0.5, G)
		require.InDelta(t, unit.X*G, grav.X, 1e-12*math.Abs(unit.X*G)+1e-30)
		require.InDelta(t, unit.Y*G, grav.Y, 1e-12*math.Abs(unit.Y*G)+1e-30)
	}
}

func TestMasslessQueryFeelsNothing(t *testing.T) {
	bodies := randomBodies(30, 12)
	tree := mustBuild(bodies, DefaultOptions())
	f := tree.ForceOn(Body{X: 1, Y: 1, M: 0}, 0.5, 1)
	require.Equal(t, r2.Vec{}, f)
}

func TestThetaMonotonicity(t *testing.T) {
	bodies := randomBodies(800, 13)
	tree := mustBuild(bodies, DefaultOptions())
	exact := DirectForces(bodies, 1)

	thetas := []float64{2, 1.5, 1, 0.7, 0.5, 0.3, 0.1, 0}
	for _, q := range []int{0, 17, 400, 799} {
		b := bodies[q]
		prevCount := 0
		for _, theta := range thetas {
			n := len(tree.EffectiveBodies(b.X, b.Y, theta))
			if n < prevCount {
				t.Errorf("body %d: theta=%g yielded %d effective bodies, fewer than %d", q, theta, n, prevCount)
			}
			prevCount = n
		}
	}

	// Error against the exact sum shrinks as theta goes to zero.
	errAt := func(theta float64) float64 {
		approx := make([]r2.Vec, len(bodies))
		for i, b := range bodies {
			approx[i] = tree.ForceOn(b, theta, 1)
		}
		return normalizedError(approx, exact)
	}
	coarse, fine, zero := errAt(1.0), errAt(0.3), errAt(0)
	if !(fine <= coarse) {
		t.Errorf("expected error at theta=0.3 (%g) <= theta=1 (%g)", fine, coarse)
	}
	if zero > 1e-9 {
		t.Errorf("expected theta=0 to match the direct sum, max relative error %g", zero)
	}
	if coarse > 0.35 {
		t.Errorf("theta=1 error unexpectedly large: %g", coarse)
	}
}

func TestTraversalTotality(t *testing.T) {
	bodies := randomBodies(300, 14)
	tree := mustBuild(bodies, DefaultOptions())
	_, _, total := centroid(bodies)

	for _, b := range []Body{bodies[0], bodies[150], bodies[299]} {
		var seen float64
		leaves := 0
		for _, e := range tree.EffectiveBodies(b.X, b.Y, 0) {
			require.True(t, e.Leaf, "theta=0 must expand every internal node")
			leaves++
			if e.X == b.X && e.Y == b.Y {
				continue
			}
			seen += e.M
		}
		require.Equal(t, len(bodies), leaves)
		require.InDelta(t, total-b.M, seen, 1e-9*total)
	}
}

func TestWalkerReset(t *testing.T) {
	bodies := randomBodies(100, 15)
	tree := mustBuild(bodies, DefaultOptions())

	w := tree.Walker(bodies[0].X, bodies[0].Y, 0.5)
	first := 0
	for _, ok := w.Next(); ok; _, ok = w.Next() {
		first++
	}
	if _, ok := w.Next(); ok {
		t.Fatal("exhausted walker should stay exhausted")
	}

	w.Reset(bodies[0].X, bodies[0].Y)
	second := 0
	for _, ok := w.Next(); ok; _, ok = w.Next() {
		second++
	}
	require.Equal(t, first, second)
}

func TestEffectiveSizesMatchDepth(t *testing.T) {
	bodies := randomBodies(64, 16)
	tree := mustBuild(bodies, DefaultOptions())
	root := tree.Cell().Size
	for _, e := range tree.EffectiveBodies(0, 0, 0.8) {
		levels := math.Log2(root / e.Size)
		require.InDelta(t, math.Round(levels), levels, 1e-9)
	}
}
