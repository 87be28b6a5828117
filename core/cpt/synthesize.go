package cpt

import (
	"fmt"
	"math"
)

// =============================================================================
// Noisy-Channel Synthesis
// =============================================================================

// Synthesize builds a conditional probability table over a shared alphabet
// of m = states categories from per-parent dependency strengths. Each
// parent's true category passes through an m-way symmetric confusion
// channel whose fidelity grows with its eta: at eta 1 the channel is exact,
// at eta 0 it is uniform. The child category is the strength-weighted
// average of the observed parent categories, rounded half to even, and the
// table accumulates the joint observation probability of every (true,
// observed) configuration pair into the corresponding (true, child) cell.
//
// When every eta is zero the weighted average degenerates; the equal-weight
// limit (the plain mean of observed categories) applies, which is what
// makes the zero-strength table exactly uniform.
func Synthesize(nparents, states int, etas []float64) (*Table, error) {
	if err := validateSynthesis(nparents, states, etas); err != nil {
		return nil, err
	}

	m := states
	channels := confusionChannels(etas, m)
	etaSum := 0.0
	for _, eta := range etas {
		etaSum += eta
	}

	dims := make([]int, nparents)
	for i := range dims {
		dims[i] = m
	}
	t := newTable(dims, m)

	trueCfg := make([]int, nparents)
	obsCfg := make([]int, nparents)
	for trueIdx := 0; ; trueIdx++ {
		zeroConfig(obsCfg)
		for {
			child := childCategory(obsCfg, etas, etaSum)
			prob := jointProbability(channels, obsCfg, trueCfg, m)
			cell := trueIdx*m + child
			t.probs[cell] += prob
			if t.probs[cell] > 1 {
				t.probs[cell] = 1
			}
			if !nextConfig(obsCfg, m) {
				break
			}
		}
		if !nextConfig(trueCfg, m) {
			break
		}
	}
	return t, nil
}

func validateSynthesis(nparents, states int, etas []float64) error {
	if nparents < 1 {
		return fmt.Errorf("got %d, want at least one: %w", nparents, ErrParentCount)
	}
	if states < 2 {
		return fmt.Errorf("states %d: %w", states, ErrStateCount)
	}
	if len(etas) != nparents {
		return fmt.Errorf("got %d etas for %d parents: %w", len(etas), nparents, ErrEtaCount)
	}
	for i, eta := range etas {
		if math.IsNaN(eta) || eta < 0 || eta > 1 {
			return fmt.Errorf("eta[%d] = %v: %w", i, eta, ErrStrengthRange)
		}
	}
	return nil
}

// confusionChannels builds one m-by-m channel per parent, row-major with
// rows indexed by observed category and columns by true category.
func confusionChannels(etas []float64, m int) [][]float64 {
	fm := float64(m)
	channels := make([][]float64, len(etas))
	for p, eta := range etas {
		diag := 1/fm + eta*(1-1/fm)
		off := (1 / (fm - 1)) * (1 - 1/fm - eta*(1-1/fm))
		ch := make([]float64, m*m)
		for r := 0; r < m; r++ {
			for c := 0; c < m; c++ {
				if r == c {
					ch[r*m+c] = diag
				} else {
					ch[r*m+c] = off
				}
			}
		}
		channels[p] = ch
	}
	return channels
}

// childCategory aggregates observed parent categories into the child
// category. Categories are weighted and rounded on the 1-based scale so
// that half-to-even rounding lands exactly where the reference construction
// puts it, then shifted back.
func childCategory(obsCfg []int, etas []float64, etaSum float64) int {
	weighted := 0.0
	if etaSum == 0 {
		for _, obs := range obsCfg {
			weighted += float64(obs + 1)
		}
		weighted /= float64(len(obsCfg))
	} else {
		for i, obs := range obsCfg {
			weighted += etas[i] * float64(obs+1)
		}
		weighted /= etaSum
	}
	return int(math.RoundToEven(weighted)) - 1
}

func jointProbability(channels [][]float64, obsCfg, trueCfg []int, m int) float64 {
	prob := 1.0
	for p := range channels {
		prob *= channels[p][obsCfg[p]*m+trueCfg[p]]
	}
	return prob
}

func zeroConfig(cfg []int) {
	for i := range cfg {
		cfg[i] = 0
	}
}

// nextConfig advances a base-m odometer in row-major order and reports
// whether it wrapped.
func nextConfig(cfg []int, m int) bool {
	for i := len(cfg) - 1; i >= 0; i-- {
		cfg[i]++
		if cfg[i] < m {
			return true
		}
		cfg[i] = 0
	}
	return false
}
