package noise

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNotPositiveDefinite indicates a covariance unusable for sampling
	ErrNotPositiveDefinite = errors.New("covariance matrix is not positive definite")

	// ErrSingularCovariance indicates a covariance that cannot be inverted
	ErrSingularCovariance = errors.New("covariance matrix is singular")
)

// =============================================================================
// Sources
// =============================================================================

// pcgStream separates the two PCG state words so that nearby seeds do not
// start nearby streams.
const pcgStream uint64 = 0x9e3779b97f4a7c15

// NewSource builds the generator behind all sampling in this module. Every
// simulator constructs its own from an explicit seed; identical seeds give
// identical streams and zero is an ordinary seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}

// Func produces n noise draws for one node
type Func func(n int) []float64

// Gaussian returns a standard normal source driven by rng
func Gaussian(rng *rand.Rand) Func {
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	return func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = dist.Rand()
		}
		return out
	}
}

// Uniform returns a mean-zero unit-variance uniform source driven by rng
func Uniform(rng *rand.Rand) Func {
	half := math.Sqrt(3)
	dist := distuv.Uniform{Min: -half, Max: half, Src: rng}
	return func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = dist.Rand()
		}
		return out
	}
}

// Zero returns a silent source, useful for isolating deterministic dynamics
func Zero() Func {
	return func(n int) []float64 {
		return make([]float64, n)
	}
}

// =============================================================================
// Correlated Draws
// =============================================================================

// Correlated returns a sampler producing vectors from N(0, sigma)
func Correlated(sigma mat.Symmetric, rng *rand.Rand) (func() []float64, error) {
	dim := sigma.SymmetricDim()
	dist, ok := distmv.NewNormal(make([]float64, dim), sigma, rng)
	if !ok {
		return nil, fmt.Errorf("dim %d: %w", dim, ErrNotPositiveDefinite)
	}
	return func() []float64 {
		return dist.Rand(nil)
	}, nil
}

// InvertCovariance maps a covariance given in precision-style form to the
// sampling covariance: off-diagonal entries are negated, then the matrix is
// inverted. The result is symmetrized to absorb inversion round-off.
func InvertCovariance(sigma mat.Symmetric) (*mat.SymDense, error) {
	dim := sigma.SymmetricDim()
	flipped := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			v := sigma.At(i, j)
			if i != j {
				v = -v
			}
			flipped.Set(i, j, v)
		}
	}

	var inverse mat.Dense
	if err := inverse.Inverse(flipped); err != nil {
		return nil, fmt.Errorf("dim %d: %w", dim, ErrSingularCovariance)
	}

	out := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			out.SetSym(i, j, 0.5*(inverse.At(i, j)+inverse.At(j, i)))
		}
	}
	return out, nil
}
