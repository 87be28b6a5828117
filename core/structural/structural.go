package structural

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/adalundhe/causalgen/core/causal"
	"github.com/adalundhe/causalgen/core/noise"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNonPositiveSteps indicates a requested horizon below one step
	ErrNonPositiveSteps = errors.New("steps must be positive")

	// ErrUnknownNode indicates an intervention or noise entry for a node
	// outside the specification
	ErrUnknownNode = errors.New("entry references an undeclared node")

	// ErrInterventionMode indicates a mode other than hard or soft
	ErrInterventionMode = errors.New("intervention mode must be hard or soft")

	// ErrInterventionLength indicates intervention values or mask whose
	// length differs from the step count
	ErrInterventionLength = errors.New("intervention length must equal steps")

	// ErrInterventionValue indicates a non-finite value at an active step
	ErrInterventionValue = errors.New("active intervention values must be finite")

	// ErrNoiseLength indicates a noise source returning the wrong number
	// of draws
	ErrNoiseLength = errors.New("noise source returned wrong length")
)

// =============================================================================
// Interventions
// =============================================================================

// Mode selects how an intervention combines with the generated value
type Mode int

const (
	// ModeHard overwrites the node value and suppresses its causal links
	ModeHard Mode = iota
	// ModeSoft adds to the node value before its links apply
	ModeSoft
)

// String returns the string representation of an intervention mode
func (m Mode) String() string {
	if name, ok := modeStrings()[m]; ok {
		return name
	}
	return "unknown"
}

type modeStringMap map[Mode]string

func modeStrings() modeStringMap {
	return modeStringMap{
		ModeHard: "hard",
		ModeSoft: "soft",
	}
}

// Intervention forces values onto one node over the retained horizon.
// Values[i] applies at retained step i when Mask[i] is set; a nil Mask
// applies every step. Absence is always explicit: there is no sentinel
// value meaning "skip this step".
type Intervention struct {
	Mode   Mode
	Values []float64
	Mask   []bool
}

// Constant builds an intervention pinning every step to one value
func Constant(mode Mode, value float64, steps int) Intervention {
	values := make([]float64, steps)
	for i := range values {
		values[i] = value
	}
	return Intervention{Mode: mode, Values: values}
}

// Series builds an intervention from a full per-step value series
func Series(mode Mode, values []float64) Intervention {
	return Intervention{Mode: mode, Values: values}
}

// activeAt reports whether the intervention applies at retained step i
func (iv Intervention) activeAt(i int) bool {
	return iv.Mask == nil || iv.Mask[i]
}

func (iv Intervention) validate(node, steps int) error {
	if iv.Mode != ModeHard && iv.Mode != ModeSoft {
		return fmt.Errorf("node %d mode %d: %w", node, iv.Mode, ErrInterventionMode)
	}
	if len(iv.Values) != steps {
		return fmt.Errorf("node %d values %d, steps %d: %w",
			node, len(iv.Values), steps, ErrInterventionLength)
	}
	if iv.Mask != nil && len(iv.Mask) != steps {
		return fmt.Errorf("node %d mask %d, steps %d: %w",
			node, len(iv.Mask), steps, ErrInterventionLength)
	}
	for i, v := range iv.Values {
		if iv.activeAt(i) && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return fmt.Errorf("node %d step %d value %v: %w",
				node, i, v, ErrInterventionValue)
		}
	}
	return nil
}

// =============================================================================
// Configuration
// =============================================================================

// Config drives one continuous simulation run
type Config struct {
	// Steps is the number of retained time steps
	Steps int

	// Noise overrides the per-node noise source; nodes without an entry
	// draw standard normal from the run's seeded generator
	Noise map[int]noise.Func

	// Interventions maps node ids to forced value series
	Interventions map[int]Intervention

	// Seed drives every default noise source in the run
	Seed uint64

	// Logger receives structured progress output; nil uses slog.Default
	Logger *slog.Logger
}

// DefaultConfig returns a plain observational configuration
func DefaultConfig(steps int, seed uint64) Config {
	return Config{Steps: steps, Seed: seed}
}

// Result is one generated sample
type Result struct {
	// Data holds the retained rows, one column per node
	Data *mat.Dense

	// Nonstationary reports NaN or infinite values among the retained
	// rows. It flags divergence; it is never an error.
	Nonstationary bool
}

// =============================================================================
// Simulation
// =============================================================================

// Simulate generates an additive-noise structural causal process. Every
// node starts from its noise series; at each step, nodes are visited in the
// contemporaneous causal order and accumulate each link's coefficient times
// its transform of the lagged parent value. Hard interventions overwrite
// the node and suppress its links for that step, soft interventions shift
// it beforehand. The first floor(0.2*Steps) burn-in rows are dropped and
// the retained rows are scanned for divergence.
//
// The run is fully deterministic for a given specification, configuration,
// and seed, and everything happens on the calling goroutine.
func Simulate(links causal.Links, cfg Config) (*Result, error) {
	if cfg.Steps < 1 {
		return nil, fmt.Errorf("steps %d: %w", cfg.Steps, ErrNonPositiveSteps)
	}
	if err := links.Validate(causal.KindStructural); err != nil {
		return nil, err
	}
	if err := links.RequireFuncs(); err != nil {
		return nil, err
	}

	n := links.NumNodes()
	graph, err := links.ContemporaneousGraph()
	if err != nil {
		return nil, err
	}
	order, err := graph.Order()
	if err != nil {
		return nil, fmt.Errorf("contemporaneous links: %w", err)
	}

	if err := validateEntries(n, cfg); err != nil {
		return nil, err
	}

	transient := int(math.Floor(0.2 * float64(cfg.Steps)))
	total := cfg.Steps + transient
	cols, err := noiseColumns(n, total, cfg)
	if err != nil {
		return nil, err
	}

	_, maxLag := links.LagBounds()
	for t := maxLag; t < total; t++ {
		for _, j := range order {
			if iv, ok := cfg.Interventions[j]; ok && t >= transient && iv.activeAt(t-transient) {
				if iv.Mode == ModeHard {
					cols[j][t] = iv.Values[t-transient]
					continue
				}
				cols[j][t] += iv.Values[t-transient]
			}
			for _, link := range links[j] {
				if link.Coeff == 0 {
					continue
				}
				cols[j][t] += link.Coeff * link.Fn(cols[link.Parent][t+link.Lag])
			}
		}
	}

	result := &Result{Data: assemble(cols, transient, cfg.Steps, n)}
	for j := 0; j < n; j++ {
		if hasNonFinite(cols[j][transient:]) {
			result.Nonstationary = true
			break
		}
	}
	if result.Nonstationary {
		logger(cfg.Logger).Warn("nonstationary sample",
			slog.Int("nodes", n),
			slog.Int("steps", cfg.Steps),
			slog.Uint64("seed", cfg.Seed))
	}
	return result, nil
}

// validateEntries checks intervention and noise keys against the node set
// before any sampling happens.
func validateEntries(n int, cfg Config) error {
	for node, iv := range cfg.Interventions {
		if node < 0 || node >= n {
			return fmt.Errorf("intervention node %d of %d: %w", node, n, ErrUnknownNode)
		}
		if err := iv.validate(node, cfg.Steps); err != nil {
			return err
		}
	}
	for node := range cfg.Noise {
		if node < 0 || node >= n {
			return fmt.Errorf("noise node %d of %d: %w", node, n, ErrUnknownNode)
		}
	}
	return nil
}

// noiseColumns fills each node's column with its noise series. Defaults
// share one seeded generator and fill in node id order, so a run is
// reproducible from its seed alone.
func noiseColumns(n, total int, cfg Config) ([][]float64, error) {
	defaultNoise := noise.Gaussian(noise.NewSource(cfg.Seed))
	cols := make([][]float64, n)
	for j := 0; j < n; j++ {
		source := defaultNoise
		if custom, ok := cfg.Noise[j]; ok {
			source = custom
		}
		cols[j] = source(total)
		if len(cols[j]) != total {
			return nil, fmt.Errorf("node %d got %d draws, want %d: %w",
				j, len(cols[j]), total, ErrNoiseLength)
		}
	}
	return cols, nil
}

func assemble(cols [][]float64, transient, steps, n int) *mat.Dense {
	data := mat.NewDense(steps, n, nil)
	for j := 0; j < n; j++ {
		for t := 0; t < steps; t++ {
			data.Set(t, j, cols[j][transient+t])
		}
	}
	return data
}

func hasNonFinite(segment []float64) bool {
	if floats.HasNaN(segment) {
		return true
	}
	for _, v := range segment {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
