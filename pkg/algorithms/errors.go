package algorithms

import "errors"

var (
	// ErrSearchTimeout is returned when a search is cancelled, exceeds its
	// deadline or pops more frontier entries than allowed
	ErrSearchTimeout = errors.New("path search timed out")

	// ErrRoutingStalled is returned when hybrid routing exceeds its hop bound
	ErrRoutingStalled = errors.New("routing stalled before reaching destination")

	ErrNegativeWeight   = errors.New("weights must be non-negative numbers")
	ErrInvalidAntParams = errors.New("invalid ant colony parameters")
)
