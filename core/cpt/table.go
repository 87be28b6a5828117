package cpt

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrParentCount indicates a parent configuration of the wrong arity
	ErrParentCount = errors.New("parent configuration has wrong arity")

	// ErrCategoryRange indicates a parent category outside its axis
	ErrCategoryRange = errors.New("parent category out of range")

	// ErrEtaCount indicates an eta vector whose length differs from the
	// parent count
	ErrEtaCount = errors.New("eta count must equal parent count")

	// ErrStrengthRange indicates an eta outside [0, 1]
	ErrStrengthRange = errors.New("eta must lie within [0, 1]")

	// ErrStateCount indicates an alphabet with fewer than two categories
	ErrStateCount = errors.New("at least two categories required")
)

// =============================================================================
// Stochastic Vectors
// =============================================================================

// StochasticVector draws n uniform variates and normalizes them into a
// probability distribution over n categories.
func StochasticVector(rng *rand.Rand, n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = rng.Float64()
	}
	floats.Scale(1/floats.Sum(w), w)
	return w
}

// =============================================================================
// Conditional Tables
// =============================================================================

// Table is a dense conditional probability tensor: one axis per parent,
// each with its own category count, plus a trailing child axis. The backing
// slice is row-major, so the child distribution for a parent configuration
// is a contiguous segment.
type Table struct {
	parentDims  []int
	childStates int
	probs       []float64
}

func newTable(parentDims []int, childStates int) *Table {
	size := childStates
	for _, d := range parentDims {
		size *= d
	}
	return &Table{
		parentDims:  append([]int(nil), parentDims...),
		childStates: childStates,
		probs:       make([]float64, size),
	}
}

// ParentDims returns the category count of each parent axis
func (t *Table) ParentDims() []int {
	return append([]int(nil), t.parentDims...)
}

// ChildStates returns the number of child categories
func (t *Table) ChildStates() int {
	return t.childStates
}

// Cond returns the child distribution for a parent configuration. The
// returned slice is a view into the table; callers must not mutate it.
func (t *Table) Cond(parents []int) ([]float64, error) {
	base, err := t.offset(parents)
	if err != nil {
		return nil, err
	}
	return t.probs[base : base+t.childStates], nil
}

// offset flattens a parent configuration into the row-major base index of
// its child segment.
func (t *Table) offset(parents []int) (int, error) {
	if len(parents) != len(t.parentDims) {
		return 0, fmt.Errorf("got %d parents, want %d: %w",
			len(parents), len(t.parentDims), ErrParentCount)
	}
	base := 0
	for i, p := range parents {
		if p < 0 || p >= t.parentDims[i] {
			return 0, fmt.Errorf("axis %d category %d of %d: %w",
				i, p, t.parentDims[i], ErrCategoryRange)
		}
		base = base*t.parentDims[i] + p
	}
	return base * t.childStates, nil
}

// Random fills every parent configuration, in row-major order, with a fresh
// stochastic vector over the child categories. Parent axes may carry
// different category counts.
func Random(rng *rand.Rand, parentDims []int, childStates int) *Table {
	t := newTable(parentDims, childStates)
	configs := len(t.probs) / childStates
	for c := 0; c < configs; c++ {
		copy(t.probs[c*childStates:(c+1)*childStates], StochasticVector(rng, childStates))
	}
	return t
}
