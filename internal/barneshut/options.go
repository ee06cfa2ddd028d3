package barneshut

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultTheta is the accuracy parameter used when none is configured.
	DefaultTheta = 1.0

	// G is the gravitational constant in SI units.
	G = 6.67430e-11

	// DefaultMaxDepth bounds how deep the split chain of a single insertion
	// may reach. Float64 halving stops being meaningful long before 1024.
	DefaultMaxDepth = 64
)

// CollisionPolicy decides what happens when two bodies cannot be separated
// before the depth limit is reached (coincident or nearly coincident bodies).
type CollisionPolicy int

const (
	// CollisionMerge folds the new body into the existing leaf, which then
	// represents a co-located aggregate.
	CollisionMerge CollisionPolicy = iota
	// CollisionReject leaves the tree untouched and returns ErrDegenerateInsert.
	CollisionReject
)

func (p CollisionPolicy) String() string {
	switch p {
	case CollisionMerge:
		return "merge"
	case CollisionReject:
		return "reject"
	}
	return fmt.Sprintf("CollisionPolicy(%d)", int(p))
}

// ParseCollisionPolicy parses "merge" or "reject".
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "merge":
		return CollisionMerge, nil
	case "reject":
		return CollisionReject, nil
	}
	return CollisionMerge, fmt.Errorf("%w: unknown collision policy %q", ErrInvalidOptions, s)
}

// BoundsMode selects how the root cell is derived from a body set.
type BoundsMode int

const (
	// BoundsEnclosing yields the smallest square anchored at the minimum
	// corner that contains every body.
	BoundsEnclosing BoundsMode = iota
	// BoundsCompat reproduces max(maxX, maxY) - min(minX, minY) as the side
	// length. It always encloses the bodies but is oversized when the body set
	// sits far from the axis of its smaller minimum.
	BoundsCompat
)

func (m BoundsMode) String() string {
	switch m {
	case BoundsEnclosing:
		return "enclosing"
	case BoundsCompat:
		return "compat"
	}
	return fmt.Sprintf("BoundsMode(%d)", int(m))
}

// ParseBoundsMode parses "enclosing" or "compat".
func ParseBoundsMode(s string) (BoundsMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "enclosing":
		return BoundsEnclosing, nil
	case "compat":
		return BoundsCompat, nil
	}
	return BoundsEnclosing, fmt.Errorf("%w: unknown bounds mode %q", ErrInvalidOptions, s)
}

// Options configures tree construction and force evaluation.
type Options struct {
	Theta       float64         // accuracy; 0 expands every node
	G           float64         // interaction constant
	MaxDepth    int             // deepest level an insertion may create
	Collision   CollisionPolicy // behaviour at MaxDepth
	Bounds      BoundsMode      // root cell derivation
	RetainCells bool            // keep each node's Cell for inspection
	Workers     int             // force workers; <= 1 runs serially
}

// DefaultOptions returns gravity with θ = 1 and serial evaluation.
func DefaultOptions() Options {
	return Options{
		Theta:     DefaultTheta,
		G:         G,
		MaxDepth:  DefaultMaxDepth,
		Collision: CollisionMerge,
		Bounds:    BoundsEnclosing,
	}
}

// Validate reports the first option that cannot be used.
func (o Options) Validate() error {
	if math.IsNaN(o.Theta) || math.IsInf(o.Theta, 0) || o.Theta < 0 {
		return fmt.Errorf("%w: theta must be a finite value >= 0, got %g", ErrInvalidOptions, o.Theta)
	}
	if math.IsNaN(o.G) || math.IsInf(o.G, 0) {
		return fmt.Errorf("%w: interaction constant must be finite, got %g", ErrInvalidOptions, o.G)
	}
	if o.MaxDepth < 1 || o.MaxDepth > maxDepthLimit {
		return fmt.Errorf("%w: max depth must be in [1, %d], got %d", ErrInvalidOptions, maxDepthLimit, o.MaxDepth)
	}
	if o.Collision != CollisionMerge && o.Collision != CollisionReject {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, o.Collision)
	}
	if o.Bounds != BoundsEnclosing && o.Bounds != BoundsCompat {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, o.Bounds)
	}
	return nil
}

// maxDepthLimit keeps node depth representable in the node's uint16 field
// and the size table small.
const maxDepthLimit = 1024
