package causal

import (
	"errors"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrEmptySpec indicates a specification with no nodes
	ErrEmptySpec = errors.New("specification has no nodes")

	// ErrNonContiguousNodes indicates node ids that are not 0..N-1
	ErrNonContiguousNodes = errors.New("node ids must be contiguous from zero")

	// ErrParentOutOfRange indicates a link parent outside the node set
	ErrParentOutOfRange = errors.New("link parent is not a declared node")

	// ErrPositiveLag indicates a link lag greater than zero
	ErrPositiveLag = errors.New("link lag must be zero or negative")

	// ErrNonFiniteCoeff indicates a NaN or infinite structural coefficient
	ErrNonFiniteCoeff = errors.New("link coefficient must be finite")

	// ErrEtaOutOfRange indicates a dependency strength outside [0, 1]
	ErrEtaOutOfRange = errors.New("link strength must lie within [0, 1]")

	// ErrMixedKinds indicates a link whose kind differs from the requested one
	ErrMixedKinds = errors.New("links must share a single kind")

	// ErrMissingFunc indicates a structural link without a transform where
	// one is required
	ErrMissingFunc = errors.New("structural link requires a transform")

	// ErrUnexpectedFunc indicates a transform on a link family that cannot
	// apply one
	ErrUnexpectedFunc = errors.New("link family does not accept transforms")

	// ErrTauMaxTooSmall indicates a graph horizon below the largest link lag
	ErrTauMaxTooSmall = errors.New("tau max is smaller than the largest link lag")
)
