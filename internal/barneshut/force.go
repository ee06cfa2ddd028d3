package barneshut

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pairwise returns the force exerted on a body of mass m1 at p1 by a body of
// mass m2 at p2: g·m1·m2/|r|³·r with r = p2 - p1. Coincident bodies exert no
// force on each other.
func Pairwise(p1 r2.Vec, m1 float64, p2 r2.Vec, m2, g float64) r2.Vec {
	r := r2.Sub(p2, p1)
	d := r2.Norm(r)
	if d == 0 {
		return r2.Vec{}
	}
	return r2.Scale(g*(m1*m2)/(d*d*d), r)
}

// ForceOn sums the forces acting on b from the effective bodies of a θ walk.
// Effective bodies at b's own position are skipped.
func (t *Tree) ForceOn(b Body, theta, g float64) r2.Vec {
	return t.forceOn(t.Walker(b.X, b.Y, theta), b, g)
}

func (t *Tree) forceOn(w *Walker, b Body, g float64) r2.Vec {
	var total r2.Vec
	if b.M == 0 {
		return total
	}
	p := b.Pos()
	for e, ok := w.Next(); ok; e, ok = w.Next() {
		total = r2.Add(total, Pairwise(p, b.M, r2.Vec{X: e.X, Y: e.Y}, e.M, g))
	}
	return total
}

// DirectForces computes the exact force on every body by summing over all
// pairs. It is O(N²) and exists to check the approximation.
func DirectForces(bodies []Body, g float64) []r2.Vec {
	forces := make([]r2.Vec, len(bodies))
	for i, a := range bodies {
		if a.M == 0 {
			continue
		}
		pa := a.Pos()
		for j, b := range bodies {
			if i == j || b.M == 0 {
				continue
			}
			forces[i] = r2.Add(forces[i], Pairwise(pa, a.M, b.Pos(), b.M, g))
		}
	}
	return forces
}

// RelativeError returns |approx - exact| / |exact|, or |approx| when exact is zero.
func RelativeError(approx, exact r2.Vec) float64 {
	diff := r2.Norm(r2.Sub(approx, exact))
	ref := r2.Norm(exact)
	if ref == 0 {
		return diff
	}
	return diff / ref
}

// MaxRelativeError returns the largest RelativeError over paired slices.
func MaxRelativeError(approx, exact []r2.Vec) float64 {
	worst := 0.0
	for i := range approx {
		worst = math.Max(worst, RelativeError(approx[i], exact[i]))
	}
	return worst
}
