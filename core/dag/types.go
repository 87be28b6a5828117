package dag

import (
	"errors"
)

// =============================================================================
// Visit Colors
// =============================================================================

// visitColor tracks the DFS state of a node during traversal
type visitColor uint8

const (
	// colorWhite marks a node not yet visited
	colorWhite visitColor = iota
	// colorGray marks a node on the active DFS path
	colorGray
	// colorBlack marks a fully explored node
	colorBlack
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrCyclicDependency indicates the graph contains a directed cycle
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrNodeOutOfRange indicates an edge endpoint outside the node set
	ErrNodeOutOfRange = errors.New("node id out of range")

	// ErrEmptyGraph indicates the graph has no nodes
	ErrEmptyGraph = errors.New("graph has no nodes")
)
