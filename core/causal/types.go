package causal

import (
	"math"
)

// =============================================================================
// Link Kinds
// =============================================================================

// Kind identifies which family of link a specification carries. A link set
// must be homogeneous: the continuous simulator consumes structural links,
// the strength-parameterized discrete sampler consumes strength links, and
// the uniform discrete sampler consumes graph-only links.
type Kind int

const (
	// KindStructural is a weighted link with a scalar transform
	KindStructural Kind = iota
	// KindStrength is a link carrying a dependency strength in [0, 1]
	KindStrength
	// KindGraphOnly is a bare (parent, lag) link with no parameters
	KindGraphOnly
)

// String returns the string representation of a link kind
func (k Kind) String() string {
	if name, ok := kindStrings()[k]; ok {
		return name
	}
	return "unknown"
}

type kindStringMap map[Kind]string

func kindStrings() kindStringMap {
	return kindStringMap{
		KindStructural: "structural",
		KindStrength:   "strength",
		KindGraphOnly:  "graph_only",
	}
}

// =============================================================================
// Transforms
// =============================================================================

// Func is a scalar transform applied to a parent value before its weighted
// contribution enters a child. Structural links in the continuous simulator
// require one; the linear VAR permits none.
type Func func(float64) float64

// Linear is the identity transform
func Linear(x float64) float64 {
	return x
}

// Abs folds the parent value to its magnitude
func Abs(x float64) float64 {
	return math.Abs(x)
}

// Sine is a bounded periodic transform
func Sine(x float64) float64 {
	return math.Sin(x)
}

// Ridge is the localized nonlinearity x + 5x^2 exp(-x^2/20): near linear
// far from the origin, sharply bent close to it.
func Ridge(x float64) float64 {
	return x + 5*x*x*math.Exp(-x*x/20)
}

// =============================================================================
// Links
// =============================================================================

// Link is a single causal dependency: Parent influences the owning node at
// the given non-positive Lag. Which parameter fields are meaningful depends
// on Kind; the constructors below set them consistently.
type Link struct {
	Parent int
	Lag    int
	Kind   Kind
	Coeff  float64
	Fn     Func
	Eta    float64
}

// Structural creates a weighted link with a transform. A nil fn is allowed
// only for the linear VAR family; the continuous simulator rejects it.
func Structural(parent, lag int, coeff float64, fn Func) Link {
	return Link{
		Parent: parent,
		Lag:    lag,
		Kind:   KindStructural,
		Coeff:  coeff,
		Fn:     fn,
	}
}

// Strength creates a link whose dependency strength eta lies in [0, 1]
func Strength(parent, lag int, eta float64) Link {
	return Link{
		Parent: parent,
		Lag:    lag,
		Kind:   KindStrength,
		Eta:    eta,
	}
}

// GraphOnly creates a bare structural edge with no parameters
func GraphOnly(parent, lag int) Link {
	return Link{
		Parent: parent,
		Lag:    lag,
		Kind:   KindGraphOnly,
	}
}

// weight is the link's effect size under its own kind. Graph-only links
// always count as effective.
func (l Link) weight() float64 {
	switch l.Kind {
	case KindStructural:
		return l.Coeff
	case KindStrength:
		return l.Eta
	default:
		return 1
	}
}

// Links maps each node id to its ordered causal links. Node ids must form
// the contiguous set 0..N-1; the per-node slice order is meaningful and is
// preserved by every consumer (conditional table axes follow it).
type Links map[int][]Link

// NumNodes returns the number of declared nodes
func (l Links) NumNodes() int {
	return len(l)
}

// Ref is a (node, lag) reference reported by the helper accessors
type Ref struct {
	Node int
	Lag  int
}
