package varsim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/cmplx"
	"math/rand/v2"

	"github.com/adalundhe/causalgen/core/causal"
	"github.com/adalundhe/causalgen/core/noise"
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNonPositiveSteps indicates a requested horizon below one step
	ErrNonPositiveSteps = errors.New("steps must be positive")

	// ErrUnstable indicates a companion spectral radius of one or more
	ErrUnstable = errors.New("process is unstable")

	// ErrAsymmetricCovariance indicates contemporaneous coefficients that
	// do not form a symmetric innovation covariance
	ErrAsymmetricCovariance = errors.New("innovation covariance must be symmetric")

	// ErrInitialShape indicates startup values of the wrong dimensions
	ErrInitialShape = errors.New("initial values have wrong shape")

	// ErrUnknownMode indicates an unrecognized innovation mode name
	ErrUnknownMode = errors.New("unknown innovation mode")

	// ErrEigenFactorization indicates the companion eigendecomposition
	// failed to converge
	ErrEigenFactorization = errors.New("companion eigendecomposition failed")
)

// symmetryTol bounds the relative and absolute asymmetry accepted in the
// declared innovation covariance
const symmetryTol = 1e-10

// =============================================================================
// Innovation Modes
// =============================================================================

// Mode selects how innovations enter the process
type Mode int

const (
	// ModeCovariance draws innovations from the declared covariance
	ModeCovariance Mode = iota
	// ModePrecision treats the declaration as precision-style: off-diagonal
	// entries are negated and the matrix inverted before sampling
	ModePrecision
	// ModeNone runs the deterministic recursion without innovations
	ModeNone
	// ModeIndependent draws unit-variance uncorrelated innovations
	ModeIndependent
)

// String returns the string representation of an innovation mode
func (m Mode) String() string {
	if name, ok := modeStrings()[m]; ok {
		return name
	}
	return "unknown"
}

type modeStringMap map[Mode]string

func modeStrings() modeStringMap {
	return modeStringMap{
		ModeCovariance:  "inno_cov",
		ModePrecision:   "inv_inno_cov",
		ModeNone:        "no_noise",
		ModeIndependent: "independent",
	}
}

// ParseMode resolves an innovation mode from its string name
func ParseMode(name string) (Mode, error) {
	for mode, s := range modeStrings() {
		if s == name {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%q, want one of inno_cov, inv_inno_cov, no_noise, independent: %w",
		name, ErrUnknownMode)
}

// =============================================================================
// Configuration
// =============================================================================

// Config drives one linear VAR run
type Config struct {
	// Steps is the number of generated time steps; the VAR keeps every row
	Steps int

	// Mode selects the innovation structure
	Mode Mode

	// InitialValues optionally overrides the startup window. Shape must be
	// nodes by (max lag + 1); nil starts from standard normal draws.
	InitialValues *mat.Dense

	// Seed drives startup draws and innovations
	Seed uint64

	// Logger receives structured progress output; nil uses slog.Default
	Logger *slog.Logger
}

// Result is one generated sample with its realized parent structure
type Result struct {
	// Data holds the generated rows, one column per node
	Data *mat.Dense

	// Parents maps each node to its links with nonzero coefficients,
	// contemporaneous ones included
	Parents map[int][]causal.Ref
}

// =============================================================================
// Simulation
// =============================================================================

// Simulate generates a linear vector autoregression. Lagged links populate
// a connectivity tensor, contemporaneous links declare the innovation
// covariance, and the companion-matrix spectral radius must be below one
// before any sampling happens. Links are structural with no transform; the
// linear recursion has no place to apply one.
func Simulate(links causal.Links, cfg Config) (*Result, error) {
	if cfg.Steps < 1 {
		return nil, fmt.Errorf("steps %d: %w", cfg.Steps, ErrNonPositiveSteps)
	}
	if err := links.Validate(causal.KindStructural); err != nil {
		return nil, err
	}
	if err := links.RejectFuncs(); err != nil {
		return nil, err
	}

	log := logger(cfg.Logger)
	n := links.NumNodes()
	_, maxLag := links.LagBounds()
	p := maxLag + 1

	tensor := lagTensor(links, n, p)
	if err := checkStability(tensor, n, p, log); err != nil {
		return nil, err
	}

	rng := noise.NewSource(cfg.Seed)
	rows, err := startupRows(cfg, n, p, rng)
	if err != nil {
		return nil, err
	}

	innovations, err := innovationRows(links, cfg, n, rng, log)
	if err != nil {
		return nil, err
	}

	for t := p; t < cfg.Steps; t++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for s := 0; s < p; s++ {
				sum += vek.Dot(tensor[j][s], rows[t-1-s])
			}
			if innovations != nil {
				sum += innovations[t][j]
			}
			rows[t][j] = sum
		}
	}

	return &Result{
		Data:    denseFromRows(rows, cfg.Steps, n),
		Parents: links.ParentSets(false),
	}, nil
}

// =============================================================================
// Connectivity and Stability
// =============================================================================

// lagTensor lays the lagged coefficients out as tensor[node][slice][parent]
// where slice s holds the lag s+1 coefficients. The top slice stays zero;
// contemporaneous links never enter the recursion.
func lagTensor(links causal.Links, n, p int) [][][]float64 {
	tensor := make([][][]float64, n)
	for j := range tensor {
		tensor[j] = make([][]float64, p)
		for s := range tensor[j] {
			tensor[j][s] = make([]float64, n)
		}
	}
	for j := 0; j < n; j++ {
		for _, link := range links[j] {
			if link.Lag == 0 {
				continue
			}
			tensor[j][-link.Lag-1][link.Parent] = link.Coeff
		}
	}
	return tensor
}

// checkStability builds the companion matrix, stacking the lag slices over
// a shifted identity, and requires every eigenvalue magnitude below one.
func checkStability(tensor [][][]float64, n, p int, log *slog.Logger) error {
	size := n * p
	companion := mat.NewDense(size, size, nil)
	for j := 0; j < n; j++ {
		for s := 0; s < p; s++ {
			for i := 0; i < n; i++ {
				companion.Set(j, s*n+i, tensor[j][s][i])
			}
		}
	}
	for r := 0; r < size-n; r++ {
		companion.Set(n+r, r, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return ErrEigenFactorization
	}
	radius := 0.0
	for _, v := range eig.Values(nil) {
		if a := cmplx.Abs(v); a > radius {
			radius = a
		}
	}
	log.Debug("companion spectrum",
		slog.Float64("spectral_radius", radius),
		slog.Int("size", size))
	if radius >= 1 {
		return fmt.Errorf("spectral radius %.6f: %w", radius, ErrUnstable)
	}
	return nil
}

// =============================================================================
// Startup and Innovations
// =============================================================================

// startupRows allocates the full horizon and fills it with standard normal
// draws in node order, then lays explicit initial values over the startup
// window when given.
func startupRows(cfg Config, n, p int, rng *rand.Rand) ([][]float64, error) {
	rows := make([][]float64, cfg.Steps)
	for t := range rows {
		rows[t] = make([]float64, n)
	}
	gauss := noise.Gaussian(rng)
	for j := 0; j < n; j++ {
		col := gauss(cfg.Steps)
		for t := 0; t < cfg.Steps; t++ {
			rows[t][j] = col[t]
		}
	}

	if cfg.InitialValues != nil {
		r, c := cfg.InitialValues.Dims()
		if r != n || c != p {
			return nil, fmt.Errorf("got %dx%d, want %dx%d: %w",
				r, c, n, p, ErrInitialShape)
		}
		for t := 0; t < p && t < cfg.Steps; t++ {
			for j := 0; j < n; j++ {
				rows[t][j] = cfg.InitialValues.At(j, t)
			}
		}
	}
	return rows, nil
}

// innovationRows materializes the innovation matrix for the whole horizon,
// or nil when the mode is silent.
func innovationRows(links causal.Links, cfg Config, n int, rng *rand.Rand, log *slog.Logger) ([][]float64, error) {
	switch cfg.Mode {
	case ModeNone:
		warnIgnoredContemporaneous(links, cfg.Mode, log)
		return nil, nil
	case ModeIndependent:
		warnIgnoredContemporaneous(links, cfg.Mode, log)
		return independentRows(cfg.Steps, n, rng), nil
	case ModeCovariance, ModePrecision:
		sigma, err := innovationCovariance(links, n)
		if err != nil {
			return nil, err
		}
		if cfg.Mode == ModePrecision {
			if sigma, err = noise.InvertCovariance(sigma); err != nil {
				return nil, err
			}
		}
		sample, err := noise.Correlated(sigma, rng)
		if err != nil {
			return nil, err
		}
		rows := make([][]float64, cfg.Steps)
		for t := range rows {
			rows[t] = sample()
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("mode %d: %w", cfg.Mode, ErrUnknownMode)
	}
}

func independentRows(steps, n int, rng *rand.Rand) [][]float64 {
	gauss := noise.Gaussian(rng)
	draws := gauss(steps * n)
	rows := make([][]float64, steps)
	for t := range rows {
		rows[t] = draws[t*n : (t+1)*n]
	}
	return rows
}

// innovationCovariance builds the covariance from contemporaneous links on
// an identity base and enforces symmetry within rtol and atol 1e-10.
func innovationCovariance(links causal.Links, n int) (*mat.SymDense, error) {
	raw := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		raw.Set(i, i, 1)
	}
	for j := 0; j < n; j++ {
		for _, link := range links[j] {
			if link.Lag == 0 {
				raw.Set(j, link.Parent, link.Coeff)
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a, b := raw.At(i, j), raw.At(j, i)
			diff := a - b
			if diff < 0 {
				diff = -diff
			}
			mag := b
			if mag < 0 {
				mag = -mag
			}
			if diff > symmetryTol+symmetryTol*mag {
				return nil, fmt.Errorf("cov[%d][%d] = %v, cov[%d][%d] = %v: %w",
					i, j, a, j, i, b, ErrAsymmetricCovariance)
			}
		}
	}

	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sigma.SetSym(i, j, raw.At(i, j))
		}
	}
	return sigma, nil
}

func warnIgnoredContemporaneous(links causal.Links, mode Mode, log *slog.Logger) {
	for j := 0; j < links.NumNodes(); j++ {
		for _, link := range links[j] {
			if link.Lag == 0 && link.Coeff != 0 {
				log.Debug("contemporaneous links ignored",
					slog.String("mode", mode.String()))
				return
			}
		}
	}
}

func denseFromRows(rows [][]float64, steps, n int) *mat.Dense {
	data := make([]float64, steps*n)
	for t, row := range rows {
		copy(data[t*n:(t+1)*n], row)
	}
	return mat.NewDense(steps, n, data)
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
