package barneshut

import "errors"

var (
	// ErrNoBodies is returned when a bounding cell is requested for an empty body set.
	ErrNoBodies = errors.New("barneshut: no bodies")

	// ErrInvalidBody marks a body with a non-finite coordinate or a negative
	// or non-finite mass.
	ErrInvalidBody = errors.New("barneshut: invalid body")

	// ErrDegenerateInsert is returned under CollisionReject when two bodies
	// cannot be separated within the configured depth.
	ErrDegenerateInsert = errors.New("barneshut: degenerate insertion")

	// ErrInvalidOptions marks unusable Options.
	ErrInvalidOptions = errors.New("barneshut: invalid options")
)
