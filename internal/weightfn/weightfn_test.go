package weightfn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetMatchesClosedForm(t *testing.T) {
	exponents := []float64{0, 0.5, 1, 2}
	offsets := []float64{0, 2, 3, 4}

	for _, e := range exponents {
		for _, c := range offsets {
			f := New(e, c)
			for d := 0; d <= 200; d++ {
				got := f.Get(d)
				want := math.Pow(float64(d), e) + c
				if want == 0 {
					require.InDelta(t, want, got, 1e-9)
					continue
				}
				relErr := math.Abs((got - want) / want)
				require.Lessf(t, relErr, 1e-6, "e=%v c=%v d=%v got=%v want=%v", e, c, d, got, want)
			}
		}
	}
}

func TestRegimeClassification(t *testing.T) {
	require.Equal(t, Sublinear, New(0.0, 0).Regime())
	require.Equal(t, Sublinear, New(0.99, 0).Regime())
	require.Equal(t, Linear, New(1.0, 0).Regime())
	require.Equal(t, Superlinear, New(1.01, 0).Regime())
	require.Equal(t, Superlinear, New(2.0, 0).Regime())
}

func TestPrecomputedMatchesComputed(t *testing.T) {
	f := New(1.5, 2.0)
	for d := 0; d < numPrecomputed; d++ {
		require.InDelta(t, compute(1.5, 2.0, d), f.Get(d), 1e-9)
	}
}
