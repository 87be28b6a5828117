package dbn

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/adalundhe/causalgen/core/causal"
	"github.com/adalundhe/causalgen/core/cpt"
	"github.com/adalundhe/causalgen/core/noise"
	"gonum.org/v1/gonum/stat/distuv"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNonPositiveSteps indicates a requested horizon below one step
	ErrNonPositiveSteps = errors.New("steps must be positive")

	// ErrMissingCategory indicates a node without a category count
	ErrMissingCategory = errors.New("node has no category count")

	// ErrCategoryCount indicates a category count below two
	ErrCategoryCount = errors.New("category count must be at least two")

	// ErrAlphabetMismatch indicates a node category count differing from
	// the shared synthesis alphabet
	ErrAlphabetMismatch = errors.New("category counts must equal the alphabet size")

	// ErrOrderingViolation indicates the sampler revisited a populated
	// cell. This is a bug in order construction, never a data problem, and
	// sampling aborts rather than silently overwriting.
	ErrOrderingViolation = errors.New("causal order revisited a populated cell")

	// ErrContemporaneousSelfLink indicates a lag-0 link from a node to
	// itself. The node's own cell is still unpopulated when its table is
	// indexed, so there is no category to condition on.
	ErrContemporaneousSelfLink = errors.New("node cannot depend on itself at lag zero")
)

// defaultTableCache bounds the memoized tables in the strength variant
const defaultTableCache = 64

// =============================================================================
// Configuration
// =============================================================================

// Config drives the uniform-table sampler. One generator, seeded
// explicitly, covers both table construction and sampling.
type Config struct {
	// Categories maps each node id to its category count
	Categories map[int]int

	// Steps is the number of retained time steps
	Steps int

	// Seed drives table construction and sampling
	Seed uint64

	// Logger receives structured progress output; nil uses slog.Default
	Logger *slog.Logger
}

// StrengthConfig drives the strength-parameterized sampler. Table
// construction and sampling draw from independently seeded generators so
// the same network can be resampled without rebuilding identical tables.
type StrengthConfig struct {
	// Categories maps each node id to its category count. Every entry must
	// equal Alphabet; the noisy-channel construction is defined over one
	// shared alphabet.
	Categories map[int]int

	// Steps is the number of retained time steps
	Steps int

	// Alphabet is the shared category count used for table synthesis
	Alphabet int

	// TableSeed drives stochastic vectors and table synthesis
	TableSeed uint64

	// SampleSeed drives the categorical draws
	SampleSeed uint64

	// CacheSize bounds the memoized synthesis cache; zero uses a default
	CacheSize int

	// Logger receives structured progress output; nil uses slog.Default
	Logger *slog.Logger
}

// =============================================================================
// Simulation
// =============================================================================

// Simulate samples a categorical dynamic network whose per-node conditional
// tables are uniform-random stochastic vectors, one per parent
// configuration. Links must be graph-only; parent axes take each parent's
// own category count, so heterogeneous alphabets are fine here. The first
// floor(0.2*Steps) burn-in rows are discarded. Interventions are not
// supported in the discrete samplers.
func Simulate(links causal.Links, cfg Config) ([][]int, error) {
	if err := links.Validate(causal.KindGraphOnly); err != nil {
		return nil, err
	}
	categories, err := categorySlice(links.NumNodes(), cfg.Categories)
	if err != nil {
		return nil, err
	}
	s, err := newSampler(links, cfg.Steps, categories, logger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	rng := noise.NewSource(cfg.Seed)
	s.drawInitialMarginals(rng)
	for _, j := range s.order {
		dims := make([]int, len(links[j]))
		for i, link := range links[j] {
			dims[i] = categories[link.Parent]
		}
		s.tables[j] = cpt.Random(rng, dims, categories[j])
	}
	return s.run(rng)
}

// SimulateStrength samples a categorical dynamic network whose conditional
// tables come from the noisy-channel synthesis parameterized by each link's
// eta. Links must be strength links and every node's category count must
// equal the alphabet. Tables repeat across nodes with the same shape and
// strengths, so synthesis is memoized.
func SimulateStrength(links causal.Links, cfg StrengthConfig) ([][]int, error) {
	if err := links.Validate(causal.KindStrength); err != nil {
		return nil, err
	}
	categories, err := categorySlice(links.NumNodes(), cfg.Categories)
	if err != nil {
		return nil, err
	}
	for j, m := range categories {
		if m != cfg.Alphabet {
			return nil, fmt.Errorf("node %d has %d categories, alphabet %d: %w",
				j, m, cfg.Alphabet, ErrAlphabetMismatch)
		}
	}
	s, err := newSampler(links, cfg.Steps, categories, logger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultTableCache
	}
	synth, err := cpt.NewSynthesizer(cacheSize)
	if err != nil {
		return nil, err
	}

	tableRng := noise.NewSource(cfg.TableSeed)
	s.drawInitialMarginals(tableRng)
	for _, j := range s.order {
		if len(links[j]) == 0 {
			s.tables[j] = cpt.Random(tableRng, nil, cfg.Alphabet)
			continue
		}
		etas := make([]float64, len(links[j]))
		for i, link := range links[j] {
			etas[i] = link.Eta
		}
		if s.tables[j], err = synth.Table(len(etas), cfg.Alphabet, etas); err != nil {
			return nil, fmt.Errorf("node %d: %w", j, err)
		}
	}
	s.logger.Debug("synthesized strength tables",
		slog.Int("nodes", s.n),
		slog.Int("distinct", synth.Len()))

	return s.run(noise.NewSource(cfg.SampleSeed))
}

// =============================================================================
// Sampler
// =============================================================================

type sampler struct {
	links      causal.Links
	n          int
	steps      int
	transient  int
	maxLag     int
	order      []int
	categories []int
	prob0      [][]float64
	tables     []*cpt.Table
	logger     *slog.Logger
}

func newSampler(links causal.Links, steps int, categories []int, log *slog.Logger) (*sampler, error) {
	if steps < 1 {
		return nil, fmt.Errorf("steps %d: %w", steps, ErrNonPositiveSteps)
	}
	for j := 0; j < links.NumNodes(); j++ {
		for _, link := range links[j] {
			if link.Lag == 0 && link.Parent == j {
				return nil, fmt.Errorf("node %d: %w", j, ErrContemporaneousSelfLink)
			}
		}
	}
	graph, err := links.ContemporaneousGraph()
	if err != nil {
		return nil, err
	}
	order, err := graph.Order()
	if err != nil {
		return nil, fmt.Errorf("contemporaneous links: %w", err)
	}
	_, maxLag := links.LagBounds()
	n := links.NumNodes()
	return &sampler{
		links:      links,
		n:          n,
		steps:      steps,
		transient:  int(math.Floor(0.2 * float64(steps))),
		maxLag:     maxLag,
		order:      order,
		categories: categories,
		prob0:      make([][]float64, n),
		tables:     make([]*cpt.Table, n),
		logger:     log,
	}, nil
}

// drawInitialMarginals fills the marginals used before the lag window is
// warm, one stochastic vector per node in id order.
func (s *sampler) drawInitialMarginals(rng *rand.Rand) {
	for j := 0; j < s.n; j++ {
		s.prob0[j] = cpt.StochasticVector(rng, s.categories[j])
	}
}

// run samples every (step, node) cell in causal order and returns the
// retained rows. Each cell is populated exactly once; a revisit aborts.
func (s *sampler) run(rng *rand.Rand) ([][]int, error) {
	total := s.steps + s.transient
	data := make([]int, total*s.n)
	filled := make([]bool, total*s.n)

	cfg := make([]int, 0, 8)
	for t := 0; t < total; t++ {
		for _, j := range s.order {
			idx := t*s.n + j
			if filled[idx] {
				return nil, fmt.Errorf("step %d node %d: %w", t, j, ErrOrderingViolation)
			}

			dist := s.prob0[j]
			if t >= s.maxLag {
				cfg = cfg[:0]
				for _, link := range s.links[j] {
					cfg = append(cfg, data[(t+link.Lag)*s.n+link.Parent])
				}
				row, err := s.tables[j].Cond(cfg)
				if err != nil {
					return nil, fmt.Errorf("step %d node %d: %w", t, j, err)
				}
				dist = row
			}

			data[idx] = drawCategory(dist, rng)
			filled[idx] = true
		}
	}

	out := make([][]int, s.steps)
	for r := 0; r < s.steps; r++ {
		row := make([]int, s.n)
		copy(row, data[(s.transient+r)*s.n:(s.transient+r+1)*s.n])
		out[r] = row
	}
	return out, nil
}

// drawCategory samples one category index from an unnormalized weight slice
func drawCategory(dist []float64, rng *rand.Rand) int {
	return int(distuv.NewCategorical(dist, rng).Rand())
}

// =============================================================================
// Helpers
// =============================================================================

// categorySlice checks coverage of 0..n-1 and lower-bounds every count
func categorySlice(n int, categories map[int]int) ([]int, error) {
	out := make([]int, n)
	for j := 0; j < n; j++ {
		m, ok := categories[j]
		if !ok {
			return nil, fmt.Errorf("node %d: %w", j, ErrMissingCategory)
		}
		if m < 2 {
			return nil, fmt.Errorf("node %d has %d: %w", j, m, ErrCategoryCount)
		}
		out[j] = m
	}
	return out, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
