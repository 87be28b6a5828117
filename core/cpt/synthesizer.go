package cpt

import (
	"fmt"
	"math"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// =============================================================================
// Memoizing Synthesizer
// =============================================================================

// Synthesizer caches synthesized tables by their construction parameters.
// Networks routinely repeat the same (parent count, alphabet, strengths)
// combination across nodes, and table construction is exponential in the
// parent count. Tables are read-only after construction and safe to share.
type Synthesizer struct {
	cache *lru.Cache[string, *Table]
}

// NewSynthesizer creates a synthesizer memoizing up to size tables
func NewSynthesizer(size int) (*Synthesizer, error) {
	cache, err := lru.New[string, *Table](size)
	if err != nil {
		return nil, fmt.Errorf("table cache: %w", err)
	}
	return &Synthesizer{cache: cache}, nil
}

// Table returns the memoized table for the parameters, synthesizing on miss
func (s *Synthesizer) Table(nparents, states int, etas []float64) (*Table, error) {
	key := tableKey(nparents, states, etas)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}
	table, err := Synthesize(nparents, states, etas)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, table)
	return table, nil
}

// Len returns the number of memoized tables
func (s *Synthesizer) Len() int {
	return s.cache.Len()
}

// tableKey encodes the parameters exactly, using the bit patterns of the
// etas so that distinct floats never collide.
func tableKey(nparents, states int, etas []float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d", nparents, states)
	for _, eta := range etas {
		fmt.Fprintf(&b, "/%016x", math.Float64bits(eta))
	}
	return b.String()
}
