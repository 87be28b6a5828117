package causal

import (
	"fmt"
	"math"
)

// =============================================================================
// Validation
// =============================================================================

// Validate checks the structural integrity of a link specification against
// the expected kind: node ids form the contiguous set 0..N-1, every parent
// is a declared node, every lag is non-positive, and the kind-specific
// parameter is well formed. The first violation is returned wrapped around
// its sentinel with the offending node, parent, and lag.
func (l Links) Validate(kind Kind) error {
	n := len(l)
	if n == 0 {
		return ErrEmptySpec
	}
	for j := 0; j < n; j++ {
		nodeLinks, ok := l[j]
		if !ok {
			return fmt.Errorf("missing node %d of 0..%d: %w", j, n-1, ErrNonContiguousNodes)
		}
		for _, link := range nodeLinks {
			if err := validateLink(j, link, kind, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateLink(node int, link Link, kind Kind, n int) error {
	if link.Kind != kind {
		return fmt.Errorf("node %d: link kind %s, want %s: %w",
			node, link.Kind, kind, ErrMixedKinds)
	}
	if link.Parent < 0 || link.Parent >= n {
		return fmt.Errorf("node %d: parent %d outside 0..%d: %w",
			node, link.Parent, n-1, ErrParentOutOfRange)
	}
	if link.Lag > 0 {
		return fmt.Errorf("node %d: parent %d lag %d: %w",
			node, link.Parent, link.Lag, ErrPositiveLag)
	}
	return validateLinkParams(node, link, kind)
}

func validateLinkParams(node int, link Link, kind Kind) error {
	switch kind {
	case KindStructural:
		if math.IsNaN(link.Coeff) || math.IsInf(link.Coeff, 0) {
			return fmt.Errorf("node %d: parent %d lag %d coeff %v: %w",
				node, link.Parent, link.Lag, link.Coeff, ErrNonFiniteCoeff)
		}
	case KindStrength:
		if math.IsNaN(link.Eta) || link.Eta < 0 || link.Eta > 1 {
			return fmt.Errorf("node %d: parent %d lag %d eta %v: %w",
				node, link.Parent, link.Lag, link.Eta, ErrEtaOutOfRange)
		}
	}
	return nil
}

// RequireFuncs checks that every structural link carries a transform. The
// continuous simulator calls this; a nil transform there has no meaning.
func (l Links) RequireFuncs() error {
	for j := 0; j < len(l); j++ {
		for _, link := range l[j] {
			if link.Kind == KindStructural && link.Fn == nil {
				return fmt.Errorf("node %d: parent %d lag %d: %w",
					j, link.Parent, link.Lag, ErrMissingFunc)
			}
		}
	}
	return nil
}

// RejectFuncs checks that no link carries a transform. The linear VAR has
// no step at which one could apply.
func (l Links) RejectFuncs() error {
	for j := 0; j < len(l); j++ {
		for _, link := range l[j] {
			if link.Fn != nil {
				return fmt.Errorf("node %d: parent %d lag %d: %w",
					j, link.Parent, link.Lag, ErrUnexpectedFunc)
			}
		}
	}
	return nil
}
