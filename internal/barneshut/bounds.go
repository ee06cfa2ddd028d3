package barneshut

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Body is a point mass. Bodies with zero mass never enter a tree.
type Body struct {
	X, Y float64
	M    float64
}

// Pos returns the body's position as a vector.
func (b Body) Pos() r2.Vec {
	return r2.Vec{X: b.X, Y: b.Y}
}

// ValidateBodies checks that every body has a finite position and a finite,
// non-negative mass.
func ValidateBodies(bodies []Body) error {
	for i, b := range bodies {
		if !finite(b.X) || !finite(b.Y) {
			return fmt.Errorf("%w: body %d has non-finite position (%g, %g)", ErrInvalidBody, i, b.X, b.Y)
		}
		if !finite(b.M) || b.M < 0 {
			return fmt.Errorf("%w: body %d has mass %g", ErrInvalidBody, i, b.M)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// BoundingCell returns the root cell a tree over bodies should be built on.
// It returns ErrNoBodies for an empty slice.
func BoundingCell(bodies []Body, mode BoundsMode) (Cell, error) {
	if len(bodies) == 0 {
		return Cell{}, ErrNoBodies
	}

	minX, maxX := bodies[0].X, bodies[0].X
	minY, maxY := bodies[0].Y, bodies[0].Y
	for _, b := range bodies[1:] {
		if b.X < minX {
			minX = b.X
		}
		if b.X > maxX {
			maxX = b.X
		}
		if b.Y < minY {
			minY = b.Y
		}
		if b.Y > maxY {
			maxY = b.Y
		}
	}

	var size float64
	switch mode {
	case BoundsCompat:
		size = math.Max(maxX, maxY) - math.Min(minX, minY)
	default:
		size = math.Max(maxX-minX, maxY-minY)
	}
	return NewCell(minX, minY, size), nil
}
