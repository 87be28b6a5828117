package varsim_test

import (
	"testing"

	"github.com/adalundhe/causalgen/core/causal"
	"github.com/adalundhe/causalgen/core/varsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func ar1Links(coeff float64) causal.Links {
	return causal.Links{
		0: {causal.Structural(0, -1, coeff, nil)},
	}
}

func TestSimulate_UnstableAR1Rejected(t *testing.T) {
	_, err := varsim.Simulate(ar1Links(1.1), varsim.Config{
		Steps: 100,
		Mode:  varsim.ModeNone,
		Seed:  7,
	})

	require.ErrorIs(t, err, varsim.ErrUnstable)
}

func TestSimulate_NoNoiseHalvesFromInitialValues(t *testing.T) {
	initial := mat.NewDense(1, 2, []float64{2, 1})

	res, err := varsim.Simulate(ar1Links(0.5), varsim.Config{
		Steps:         6,
		Mode:          varsim.ModeNone,
		InitialValues: initial,
		Seed:          3,
	})

	require.NoError(t, err)
	want := []float64{2, 1, 0.5, 0.25, 0.125, 0.0625}
	for i, w := range want {
		assert.InDelta(t, w, res.Data.At(i, 0), 1e-12, "step %d", i)
	}
}

func TestSimulate_TwoLagStabilityBoundary(t *testing.T) {
	stable := causal.Links{
		0: {
			causal.Structural(0, -1, 0.5, nil),
			causal.Structural(0, -2, 0.3, nil),
		},
	}
	unstable := causal.Links{
		0: {
			causal.Structural(0, -1, 0.9, nil),
			causal.Structural(0, -2, 0.3, nil),
		},
	}

	_, err := varsim.Simulate(stable, varsim.Config{Steps: 50, Mode: varsim.ModeIndependent, Seed: 1})
	assert.NoError(t, err)

	_, err = varsim.Simulate(unstable, varsim.Config{Steps: 50, Mode: varsim.ModeIndependent, Seed: 1})
	assert.ErrorIs(t, err, varsim.ErrUnstable)
}

func TestSimulate_AsymmetricCovarianceRejected(t *testing.T) {
	links := causal.Links{
		0: {causal.Structural(0, -1, 0.4, nil)},
		1: {
			causal.Structural(0, 0, 0.5, nil),
			causal.Structural(1, -1, 0.4, nil),
		},
	}

	_, err := varsim.Simulate(links, varsim.Config{Steps: 30, Mode: varsim.ModeCovariance, Seed: 2})

	require.ErrorIs(t, err, varsim.ErrAsymmetricCovariance)
}

func symmetricLinks() causal.Links {
	return causal.Links{
		0: {
			causal.Structural(0, -1, 0.4, nil),
			causal.Structural(1, 0, 0.5, nil),
		},
		1: {
			causal.Structural(0, 0, 0.5, nil),
			causal.Structural(1, -1, 0.4, nil),
		},
	}
}

func TestSimulate_CovarianceModeDeterministic(t *testing.T) {
	cfg := varsim.Config{Steps: 40, Mode: varsim.ModeCovariance, Seed: 11}

	first, err := varsim.Simulate(symmetricLinks(), cfg)
	require.NoError(t, err)
	second, err := varsim.Simulate(symmetricLinks(), cfg)
	require.NoError(t, err)

	r, c := first.Data.Dims()
	assert.Equal(t, 40, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, first.Data.RawMatrix().Data, second.Data.RawMatrix().Data)
}

func TestSimulate_PrecisionModeDiffersFromCovariance(t *testing.T) {
	cov, err := varsim.Simulate(symmetricLinks(), varsim.Config{
		Steps: 40, Mode: varsim.ModeCovariance, Seed: 11,
	})
	require.NoError(t, err)

	prec, err := varsim.Simulate(symmetricLinks(), varsim.Config{
		Steps: 40, Mode: varsim.ModePrecision, Seed: 11,
	})
	require.NoError(t, err)

	assert.NotEqual(t, cov.Data.RawMatrix().Data, prec.Data.RawMatrix().Data)
}

func TestSimulate_ContemporaneousOnlyLinks(t *testing.T) {
	links := causal.Links{
		0: {causal.Structural(1, 0, 0.5, nil)},
		1: {causal.Structural(0, 0, 0.5, nil)},
	}

	res, err := varsim.Simulate(links, varsim.Config{Steps: 25, Mode: varsim.ModeCovariance, Seed: 4})

	require.NoError(t, err)
	r, c := res.Data.Dims()
	assert.Equal(t, 25, r)
	assert.Equal(t, 2, c)
}

func TestSimulate_InitialShapeChecked(t *testing.T) {
	wrong := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	_, err := varsim.Simulate(ar1Links(0.5), varsim.Config{
		Steps:         10,
		Mode:          varsim.ModeNone,
		InitialValues: wrong,
	})

	require.ErrorIs(t, err, varsim.ErrInitialShape)
}

func TestSimulate_TransformsRejected(t *testing.T) {
	links := causal.Links{
		0: {causal.Structural(0, -1, 0.5, causal.Linear)},
	}

	_, err := varsim.Simulate(links, varsim.Config{Steps: 10, Mode: varsim.ModeNone})

	require.ErrorIs(t, err, causal.ErrUnexpectedFunc)
}

func TestSimulate_NonPositiveSteps(t *testing.T) {
	_, err := varsim.Simulate(ar1Links(0.5), varsim.Config{Steps: 0})

	require.ErrorIs(t, err, varsim.ErrNonPositiveSteps)
}

func TestSimulate_ParentsSkipZeroCoefficients(t *testing.T) {
	links := causal.Links{
		0: {causal.Structural(0, -1, 0.5, nil)},
		1: {
			causal.Structural(0, -1, 0.3, nil),
			causal.Structural(0, 0, 0.0, nil),
		},
	}

	res, err := varsim.Simulate(links, varsim.Config{Steps: 20, Mode: varsim.ModeIndependent, Seed: 9})

	require.NoError(t, err)
	assert.Equal(t, []causal.Ref{{Node: 0, Lag: -1}}, res.Parents[0])
	assert.Equal(t, []causal.Ref{{Node: 0, Lag: -1}}, res.Parents[1])
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		name string
		want varsim.Mode
	}{
		{"inno_cov", varsim.ModeCovariance},
		{"inv_inno_cov", varsim.ModePrecision},
		{"no_noise", varsim.ModeNone},
		{"independent", varsim.ModeIndependent},
	}
	for _, tc := range cases {
		mode, err := varsim.ParseMode(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, mode, tc.name)
		assert.Equal(t, tc.name, mode.String())
	}

	_, err := varsim.ParseMode("bogus")
	assert.ErrorIs(t, err, varsim.ErrUnknownMode)
}
