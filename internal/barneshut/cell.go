package barneshut

import "fmt"

// Quadrant numbering used for both geometric subdivision and child slots.
//
//	---------
//	| 2 | 3 |
//	---------
//	| 0 | 1 |
//	---------
const (
	LowerLeft  = 0
	LowerRight = 1
	UpperLeft  = 2
	UpperRight = 3
)

// Cell is a square region of the plane described by its lower-left origin
// and side length. Cells only exist while a tree is being built.
type Cell struct {
	X, Y float64
	Size float64
}

// NewCell creates a cell with origin (x, y) and side length size.
func NewCell(x, y, size float64) Cell {
	return Cell{X: x, Y: y, Size: size}
}

// CenterX returns the x coordinate of the cell's center.
func (c Cell) CenterX() float64 {
	return c.X + c.Size/2
}

// CenterY returns the y coordinate of the cell's center.
func (c Cell) CenterY() float64 {
	return c.Y + c.Size/2
}

// Quadrant returns the quadrant (x, y) falls in relative to the cell's center.
// Points outside the cell still map to one of the four quadrants.
func (c Cell) Quadrant(x, y float64) int {
	q := 0
	if x >= c.CenterX() {
		q |= 1
	}
	if y >= c.CenterY() {
		q |= 2
	}
	return q
}

// Child returns the half-sized sub-cell for quadrant q.
// It panics if q is not one of the four quadrants.
func (c Cell) Child(q int) Cell {
	half := c.Size / 2
	switch q {
	case LowerLeft:
		return NewCell(c.X, c.Y, half)
	case LowerRight:
		return NewCell(c.CenterX(), c.Y, half)
	case UpperLeft:
		return NewCell(c.X, c.CenterY(), half)
	case UpperRight:
		return NewCell(c.CenterX(), c.CenterY(), half)
	}
	panic(fmt.Sprintf("barneshut: invalid quadrant %d, expected one of\n"+
		"---------\n"+
		"| 2 | 3 |\n"+
		"---------\n"+
		"| 0 | 1 |\n"+
		"---------", q))
}

func (c Cell) String() string {
	return fmt.Sprintf("Cell(x: %g, y: %g, size: %g)", c.X, c.Y, c.Size)
}
