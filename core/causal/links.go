package causal

import (
	"fmt"

	"github.com/adalundhe/causalgen/core/dag"
)

// =============================================================================
// Lag Bounds
// =============================================================================

// LagBounds returns the smallest and largest absolute lag across all links.
// Structural links with a zero coefficient are ignored; strength and
// graph-only links always count because their lags shape conditional table
// indexing regardless of effect size. A specification with no links
// reports (0, 0).
func (l Links) LagBounds() (min, max int) {
	seen := false
	for j := 0; j < len(l); j++ {
		for _, link := range l[j] {
			if link.Kind == KindStructural && link.Coeff == 0 {
				continue
			}
			lag := -link.Lag
			if !seen || lag < min {
				min = lag
			}
			if lag > max {
				max = lag
			}
			seen = true
		}
	}
	return min, max
}

// =============================================================================
// Parent and Child Sets
// =============================================================================

// ParentSets returns, per node, the (parent, lag) references with nonzero
// effect: structural links need a nonzero coefficient, strength links a
// nonzero eta, graph-only links always qualify. Lag-zero references are
// dropped when excludeContemporaneous is set. Every node id keys the result
// even when its slice is empty.
func (l Links) ParentSets(excludeContemporaneous bool) map[int][]Ref {
	parents := make(map[int][]Ref, len(l))
	for j := 0; j < len(l); j++ {
		parents[j] = []Ref{}
		for _, link := range l[j] {
			if link.weight() == 0 {
				continue
			}
			if excludeContemporaneous && link.Lag == 0 {
				continue
			}
			parents[j] = append(parents[j], Ref{Node: link.Parent, Lag: link.Lag})
		}
	}
	return parents
}

// ChildSets inverts ParentSets: for each node, the (child, lag) pairs it
// feeds, with lags reported as absolute values.
func (l Links) ChildSets() map[int][]Ref {
	parents := l.ParentSets(false)
	children := make(map[int][]Ref, len(l))
	for j := 0; j < len(l); j++ {
		children[j] = []Ref{}
	}
	for j := 0; j < len(l); j++ {
		for _, parent := range parents[j] {
			children[parent.Node] = append(children[parent.Node], Ref{Node: j, Lag: -parent.Lag})
		}
	}
	return children
}

// =============================================================================
// Graph Marks
// =============================================================================

// GraphMarks renders the specification as a dense (N, N, tauMax+1) array of
// arrow marks: marks[i][j][lag] is "-->" when i drives j at that lag, the
// lag-zero plane additionally carries the mirrored "<--", and absent links
// are empty strings. A negative tauMax means "use the largest lag in the
// specification"; a tauMax below that largest lag is an error, a larger one
// pads with empty planes.
func (l Links) GraphMarks(tauMax int) ([][][]string, error) {
	n := len(l)
	_, maxLag := l.LagBounds()
	if tauMax < 0 {
		tauMax = maxLag
	} else if maxLag > tauMax {
		return nil, fmt.Errorf("tau max %d, largest lag %d: %w", tauMax, maxLag, ErrTauMaxTooSmall)
	}

	marks := newMarkArray(n, tauMax+1)
	for j := 0; j < n; j++ {
		for _, link := range l[j] {
			if link.weight() == 0 {
				continue
			}
			lag := -link.Lag
			marks[link.Parent][j][lag] = "-->"
			if lag == 0 {
				marks[j][link.Parent][0] = "<--"
			}
		}
	}
	return marks, nil
}

func newMarkArray(n, planes int) [][][]string {
	marks := make([][][]string, n)
	for i := range marks {
		marks[i] = make([][]string, n)
		for j := range marks[i] {
			marks[i][j] = make([]string, planes)
		}
	}
	return marks
}

// =============================================================================
// Contemporaneous Graph
// =============================================================================

// ContemporaneousGraph builds the dependency graph over lag-zero links.
// Self references are excluded; every declared lag-zero edge participates
// regardless of effect size, since even a zero-weight edge constrains the
// evaluation order the simulators follow.
func (l Links) ContemporaneousGraph() (*dag.Graph, error) {
	g := dag.New(len(l))
	for j := 0; j < len(l); j++ {
		for _, link := range l[j] {
			if link.Lag != 0 || link.Parent == j {
				continue
			}
			if err := g.AddEdge(link.Parent, j); err != nil {
				return nil, fmt.Errorf("node %d: %w", j, err)
			}
		}
	}
	return g, nil
}
