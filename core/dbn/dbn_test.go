package dbn_test

import (
	"testing"

	"github.com/adalundhe/causalgen/core/causal"
	"github.com/adalundhe/causalgen/core/dag"
	"github.com/adalundhe/causalgen/core/dbn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate_SingleNode(t *testing.T) {
	links := causal.Links{0: {}}
	data, err := dbn.Simulate(links, dbn.Config{
		Categories: map[int]int{0: 2},
		Steps:      50,
		Seed:       7,
	})
	require.NoError(t, err)

	require.Len(t, data, 50)
	for _, row := range data {
		require.Len(t, row, 1)
		assert.Contains(t, []int{0, 1}, row[0])
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	links := causal.Links{
		0: {},
		1: {causal.GraphOnly(0, -1)},
	}
	cfg := dbn.Config{
		Categories: map[int]int{0: 3, 1: 3},
		Steps:      80,
		Seed:       99,
	}

	first, err := dbn.Simulate(links, cfg)
	require.NoError(t, err)
	second, err := dbn.Simulate(links, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSimulate_SeedsDiffer(t *testing.T) {
	links := causal.Links{0: {}}
	run := func(seed uint64) [][]int {
		data, err := dbn.Simulate(links, dbn.Config{
			Categories: map[int]int{0: 2},
			Steps:      200,
			Seed:       seed,
		})
		require.NoError(t, err)
		return data
	}

	assert.NotEqual(t, run(1), run(2))
}

func TestSimulate_HeterogeneousCategories(t *testing.T) {
	links := causal.Links{
		0: {},
		1: {causal.GraphOnly(0, -1), causal.GraphOnly(1, -1)},
	}
	data, err := dbn.Simulate(links, dbn.Config{
		Categories: map[int]int{0: 2, 1: 4},
		Steps:      60,
		Seed:       3,
	})
	require.NoError(t, err)

	for _, row := range data {
		assert.Less(t, row[0], 2)
		assert.GreaterOrEqual(t, row[0], 0)
		assert.Less(t, row[1], 4)
		assert.GreaterOrEqual(t, row[1], 0)
	}
}

func TestSimulate_ContemporaneousCycle(t *testing.T) {
	links := causal.Links{
		0: {causal.GraphOnly(1, 0)},
		1: {causal.GraphOnly(0, 0)},
	}

	_, err := dbn.Simulate(links, dbn.Config{
		Categories: map[int]int{0: 2, 1: 2},
		Steps:      10,
		Seed:       1,
	})
	assert.ErrorIs(t, err, dag.ErrCyclicDependency)
}

func TestSimulate_ContemporaneousSelfLinkRejected(t *testing.T) {
	// A lag-0 self link would condition a node's table on its own cell
	// before that cell is populated.
	links := causal.Links{
		0: {causal.GraphOnly(0, 0)},
	}

	_, err := dbn.Simulate(links, dbn.Config{
		Categories: map[int]int{0: 2},
		Steps:      10,
		Seed:       1,
	})
	assert.ErrorIs(t, err, dbn.ErrContemporaneousSelfLink)
}

func TestSimulateStrength_ContemporaneousSelfLinkRejected(t *testing.T) {
	links := causal.Links{
		0: {},
		1: {causal.Strength(1, 0, 0.5)},
	}

	_, err := dbn.SimulateStrength(links, dbn.StrengthConfig{
		Categories: map[int]int{0: 2, 1: 2},
		Steps:      10,
		Alphabet:   2,
		TableSeed:  1,
		SampleSeed: 2,
	})
	assert.ErrorIs(t, err, dbn.ErrContemporaneousSelfLink)
}

func TestSimulate_ConfigErrors(t *testing.T) {
	links := causal.Links{0: {}}

	_, err := dbn.Simulate(links, dbn.Config{Categories: map[int]int{0: 2}, Steps: 0, Seed: 1})
	assert.ErrorIs(t, err, dbn.ErrNonPositiveSteps)

	_, err = dbn.Simulate(links, dbn.Config{Categories: map[int]int{}, Steps: 10, Seed: 1})
	assert.ErrorIs(t, err, dbn.ErrMissingCategory)

	_, err = dbn.Simulate(links, dbn.Config{Categories: map[int]int{0: 1}, Steps: 10, Seed: 1})
	assert.ErrorIs(t, err, dbn.ErrCategoryCount)
}

func TestSimulate_RejectsWrongKind(t *testing.T) {
	links := causal.Links{
		0: {causal.Strength(0, -1, 0.5)},
	}

	_, err := dbn.Simulate(links, dbn.Config{
		Categories: map[int]int{0: 2},
		Steps:      10,
		Seed:       1,
	})
	assert.ErrorIs(t, err, causal.ErrMixedKinds)
}

func TestSimulateStrength_FullStrengthCopiesParent(t *testing.T) {
	// An exact single-parent channel makes the child a one-step copy.
	links := causal.Links{
		0: {},
		1: {causal.Strength(0, -1, 1.0)},
	}
	data, err := dbn.SimulateStrength(links, dbn.StrengthConfig{
		Categories: map[int]int{0: 2, 1: 2},
		Steps:      60,
		Alphabet:   2,
		TableSeed:  5,
		SampleSeed: 11,
	})
	require.NoError(t, err)

	for r := 1; r < len(data); r++ {
		assert.Equal(t, data[r-1][0], data[r][1], "row %d", r)
	}
}

func TestSimulateStrength_Deterministic(t *testing.T) {
	links := causal.Links{
		0: {},
		1: {causal.Strength(0, 0, 0.8)},
		2: {causal.Strength(1, -1, 0.4), causal.Strength(2, -1, 0.6)},
	}
	cfg := dbn.StrengthConfig{
		Categories: map[int]int{0: 3, 1: 3, 2: 3},
		Steps:      40,
		Alphabet:   3,
		TableSeed:  21,
		SampleSeed: 22,
	}

	first, err := dbn.SimulateStrength(links, cfg)
	require.NoError(t, err)
	second, err := dbn.SimulateStrength(links, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSimulateStrength_SampleSeedIndependent(t *testing.T) {
	// Changing only the sampling seed must not change the tables, so runs
	// stay comparable; the draws themselves should differ.
	links := causal.Links{
		0: {},
		1: {causal.Strength(0, -1, 0.3)},
	}
	base := dbn.StrengthConfig{
		Categories: map[int]int{0: 2, 1: 2},
		Steps:      150,
		Alphabet:   2,
		TableSeed:  9,
		SampleSeed: 1,
	}
	other := base
	other.SampleSeed = 2

	first, err := dbn.SimulateStrength(links, base)
	require.NoError(t, err)
	second, err := dbn.SimulateStrength(links, other)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSimulateStrength_AlphabetMismatch(t *testing.T) {
	links := causal.Links{
		0: {},
		1: {causal.Strength(0, -1, 0.5)},
	}

	_, err := dbn.SimulateStrength(links, dbn.StrengthConfig{
		Categories: map[int]int{0: 2, 1: 3},
		Steps:      10,
		Alphabet:   2,
		TableSeed:  1,
		SampleSeed: 2,
	})
	assert.ErrorIs(t, err, dbn.ErrAlphabetMismatch)
}

func TestSimulateStrength_ZeroEtaKeepsLagWindow(t *testing.T) {
	// A zero-strength link must still be indexable: the child table keeps
	// the parent axis and the lag widens the startup window.
	links := causal.Links{
		0: {},
		1: {causal.Strength(0, -3, 0.0)},
	}

	data, err := dbn.SimulateStrength(links, dbn.StrengthConfig{
		Categories: map[int]int{0: 2, 1: 2},
		Steps:      30,
		Alphabet:   2,
		TableSeed:  4,
		SampleSeed: 6,
	})
	require.NoError(t, err)
	assert.Len(t, data, 30)
}
