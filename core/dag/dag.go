package dag

import (
	"fmt"
)

// =============================================================================
// Graph
// =============================================================================

// Graph is a directed graph over a fixed set of integer node ids 0..n-1.
// It captures the contemporaneous (lag zero) dependencies between variables
// and answers the two questions every simulator asks before sampling: does
// the structure contain a cycle, and in which order must nodes be evaluated.
type Graph struct {
	n   int
	adj [][]int
}

// New creates a graph with n nodes and no edges
func New(n int) *Graph {
	return &Graph{
		n:   n,
		adj: make([][]int, n),
	}
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return g.n
}

// AddEdge adds the directed edge parent -> child. Edges are stored in
// insertion order, which fixes the traversal order of the DFS below.
func (g *Graph) AddEdge(parent, child int) error {
	if parent < 0 || parent >= g.n {
		return fmt.Errorf("parent %d: %w", parent, ErrNodeOutOfRange)
	}
	if child < 0 || child >= g.n {
		return fmt.Errorf("child %d: %w", child, ErrNodeOutOfRange)
	}
	g.adj[parent] = append(g.adj[parent], child)
	return nil
}

// Neighbors returns the children of a node in insertion order
func (g *Graph) Neighbors(node int) []int {
	if node < 0 || node >= g.n {
		return nil
	}
	out := make([]int, len(g.adj[node]))
	copy(out, g.adj[node])
	return out
}

// =============================================================================
// Cycle Detection
// =============================================================================

// frame is one level of the explicit DFS stack. next is the index of the
// neighbor to explore when the frame resumes.
type frame struct {
	node int
	next int
}

// IsCyclic reports whether the graph contains a directed cycle. The search
// is depth first over every unvisited root with an explicit frame stack, so
// node count never translates into call-stack depth. A gray neighbor is a
// back edge and therefore a cycle; self edges count.
func (g *Graph) IsCyclic() bool {
	colors := make([]visitColor, g.n)
	for root := 0; root < g.n; root++ {
		if colors[root] != colorWhite {
			continue
		}
		if g.cycleFrom(root, colors) {
			return true
		}
	}
	return false
}

func (g *Graph) cycleFrom(root int, colors []visitColor) bool {
	stack := []frame{{node: root}}
	colors[root] = colorGray

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(g.adj[top.node]) {
			child := g.adj[top.node][top.next]
			top.next++
			switch colors[child] {
			case colorGray:
				return true
			case colorWhite:
				colors[child] = colorGray
				stack = append(stack, frame{node: child})
			}
			continue
		}
		colors[top.node] = colorBlack
		stack = stack[:len(stack)-1]
	}
	return false
}

// =============================================================================
// Topological Order
// =============================================================================

// TopologicalOrder returns the nodes in dependency order: every edge
// parent -> child places the parent before the child. The order is the
// reverse of DFS finish order with roots visited in ascending id, which
// makes it deterministic for a given edge insertion sequence. Only
// meaningful on acyclic graphs; callers check IsCyclic first.
func (g *Graph) TopologicalOrder() []int {
	visited := make([]bool, g.n)
	order := make([]int, 0, g.n)

	for root := 0; root < g.n; root++ {
		if visited[root] {
			continue
		}
		order = g.finishOrderFrom(root, visited, order)
	}

	reverseInts(order)
	return order
}

// finishOrderFrom appends nodes reachable from root in DFS finish order,
// using an explicit stack in place of recursion.
func (g *Graph) finishOrderFrom(root int, visited []bool, order []int) []int {
	stack := []frame{{node: root}}
	visited[root] = true

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(g.adj[top.node]) {
			child := g.adj[top.node][top.next]
			top.next++
			if !visited[child] {
				visited[child] = true
				stack = append(stack, frame{node: child})
			}
			continue
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}
	return order
}

// Order validates acyclicity and returns the topological order
func (g *Graph) Order() ([]int, error) {
	if g.n == 0 {
		return nil, ErrEmptyGraph
	}
	if g.IsCyclic() {
		return nil, ErrCyclicDependency
	}
	return g.TopologicalOrder(), nil
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
