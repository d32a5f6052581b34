package dynindex

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetWeightUpdatesTotal(t *testing.T) {
	idx := New(4)
	idx.SetWeight(0, 1.0)
	idx.SetWeight(1, 2.0)
	idx.SetWeight(2, 3.0)
	idx.SetWeight(3, 4.0)
	require.InDelta(t, 10.0, idx.Total(), 1e-9)

	idx.SetWeight(1, 5.0)
	require.InDelta(t, 13.0, idx.Total(), 1e-9)
	require.InDelta(t, 5.0, idx.Weight(1), 1e-9)
}

func TestRemoveWeightZeroesContribution(t *testing.T) {
	idx := New(3)
	idx.SetWeight(0, 1.0)
	idx.SetWeight(1, 1.0)
	idx.SetWeight(2, 1.0)

	idx.RemoveWeight(1)
	require.InDelta(t, 2.0, idx.Total(), 1e-9)
	require.InDelta(t, 0.0, idx.Weight(1), 1e-9)
}

func TestSampleErrorsOnZeroWeight(t *testing.T) {
	idx := New(3)
	rng := rand.New(rand.NewSource(1))
	_, err := idx.Sample(rng)
	require.Error(t, err)
}

func TestSampleOnlyReturnsSingleNonZeroItem(t *testing.T) {
	idx := New(5)
	idx.SetWeight(2, 7.0)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		item, err := idx.Sample(rng)
		require.NoError(t, err)
		require.Equal(t, 2, item)
	}
}

func TestSampleDistributionIsRoughlyProportional(t *testing.T) {
	idx := New(3)
	idx.SetWeight(0, 1.0)
	idx.SetWeight(1, 3.0)
	idx.SetWeight(2, 6.0)

	rng := rand.New(rand.NewSource(2))
	counts := make([]int, 3)
	const trials = 50000
	for i := 0; i < trials; i++ {
		item, err := idx.Sample(rng)
		require.NoError(t, err)
		counts[item]++
	}

	require.InDelta(t, 0.1, float64(counts[0])/trials, 0.02)
	require.InDelta(t, 0.3, float64(counts[1])/trials, 0.02)
	require.InDelta(t, 0.6, float64(counts[2])/trials, 0.02)
}
