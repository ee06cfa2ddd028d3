package barneshut

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// randomBodies returns n bodies on a disc of radius 100 with masses in [0.5, 5).
func randomBodies(n int, seed int64) []Body {
	rng := rand.New(rand.NewSource(seed))
	bodies := make([]Body, n)
	for i := range bodies {
		r := 100 * math.Sqrt(rng.Float64())
		a := 2 * math.Pi * rng.Float64()
		bodies[i] = Body{
			X: r * math.Cos(a),
			Y: r * math.Sin(a),
			M: 0.5 + 4.5*rng.Float64(),
		}
	}
	return bodies
}

// diagonalBodies is the 1..9 diagonal with the fifth point removed.
func diagonalBodies() []Body {
	var bodies []Body
	for i := 1; i <= 9; i++ {
		if i == 5 {
			continue
		}
		bodies = append(bodies, Body{X: float64(i), Y: float64(i), M: 1})
	}
	return bodies
}

// centroid returns the mass-weighted center and total mass of bodies.
func centroid(bodies []Body) (x, y, m float64) {
	for _, b := range bodies {
		x += b.X * b.M
		y += b.Y * b.M
		m += b.M
	}
	if m == 0 {
		return 0, 0, 0
	}
	return x / m, y / m, m
}

func mustBuild(bodies []Body, opts Options) *Tree {
	cell, err := BoundingCell(bodies, opts.Bounds)
	if err != nil {
		panic(err)
	}
	tree, err := Build(bodies, cell, opts)
	if err != nil {
		panic(err)
	}
	return tree
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// normalizedError returns the largest force deviation relative to the mean
// exact force magnitude. Unlike a per-body relative error it stays meaningful
// for bodies whose net force nearly cancels.
func normalizedError(approx, exact []r2.Vec) float64 {
	mean := 0.0
	for _, f := range exact {
		mean += r2.Norm(f)
	}
	mean /= float64(len(exact))
	worst := 0.0
	for i := range approx {
		worst = math.Max(worst, r2.Norm(r2.Sub(approx[i], exact[i])))
	}
	return worst / mean
}
