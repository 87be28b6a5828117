package dag_test

import (
	"math/rand/v2"
	"testing"

	"github.com/adalundhe/causalgen/core/dag"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomForwardGraph builds a graph whose edges all point from lower to
// higher ids, which is acyclic by construction.
func randomForwardGraph(n int, seed uint64, density float64) (*dag.Graph, [][2]int) {
	rng := rand.New(rand.NewPCG(seed, seed))
	g := dag.New(n)
	var edges [][2]int
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if rng.Float64() < density {
				_ = g.AddEdge(u, v)
				edges = append(edges, [2]int{u, v})
			}
		}
	}
	return g, edges
}

func TestGraph_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("forward-edge graphs are acyclic and fully ordered", prop.ForAll(
		func(n int, seed uint64) bool {
			g, _ := randomForwardGraph(n, seed, 0.3)
			if g.IsCyclic() {
				return false
			}
			order := g.TopologicalOrder()
			if len(order) != n {
				return false
			}
			seen := make(map[int]bool, n)
			for _, node := range order {
				if node < 0 || node >= n || seen[node] {
					return false
				}
				seen[node] = true
			}
			return true
		},
		gen.IntRange(1, 40),
		gen.UInt64(),
	))

	properties.Property("order places every parent before its child", prop.ForAll(
		func(n int, seed uint64) bool {
			g, edges := randomForwardGraph(n, seed, 0.4)
			order := g.TopologicalOrder()
			pos := make(map[int]int, len(order))
			for i, node := range order {
				pos[node] = i
			}
			for _, e := range edges {
				if pos[e[0]] >= pos[e[1]] {
					return false
				}
			}
			return true
		},
		gen.IntRange(2, 40),
		gen.UInt64(),
	))

	properties.Property("closing a chain into a ring is detected", prop.ForAll(
		func(n int) bool {
			g := dag.New(n)
			for u := 0; u < n-1; u++ {
				_ = g.AddEdge(u, u+1)
			}
			if g.IsCyclic() {
				return false
			}
			_ = g.AddEdge(n-1, 0)
			return g.IsCyclic()
		},
		gen.IntRange(2, 60),
	))

	properties.TestingRun(t)
}
