package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMode_MultiValued(t *testing.T) {
	mode := ResolveMode([]float64{1, 1, 2, 2, 3})

	assert.Equal(t, []float64{1, 2}, mode.Values)
	require.NotNil(t, mode.Frequency)
	assert.Equal(t, 2, *mode.Frequency)
}

func TestResolveMode_Empty(t *testing.T) {
	mode := ResolveMode(nil)

	assert.Nil(t, mode.Values)
	assert.Nil(t, mode.Frequency)
}

func TestResolveMode_AllDistinct(t *testing.T) {
	mode := ResolveMode([]float64{4, 2, 9})

	assert.Equal(t, []float64{2, 4, 9}, mode.Values)
	assert.Equal(t, 1, *mode.Frequency)
}

func TestResolveMode_ExactEquality(t *testing.T) {
	a := 0.1 + 0.2
	mode := ResolveMode([]float64{0.3, a, a})

	// 0.1+0.2 is not the float64 nearest 0.3
	assert.Equal(t, []float64{a}, mode.Values)
	assert.Equal(t, 2, *mode.Frequency)
}

func TestResolveMode_IgnoresNaN(t *testing.T) {
	mode := ResolveMode([]float64{math.NaN(), math.NaN(), 5})

	assert.Equal(t, []float64{5}, mode.Values)
	assert.Equal(t, 1, *mode.Frequency)
}

func TestCounts_MergeMatchesWholeSet(t *testing.T) {
	data := []float64{5, 1, 5, 2, 2, 9, 5, 2, 1}
	whole := ModeOfCounts(CountSamples(data))

	var merged Counts
	merged = merged.Merge(CountSamples(data[:4]))
	merged = merged.Merge(CountSamples(data[4:7]))
	merged = merged.Merge(CountSamples(data[7:]))

	assert.Equal(t, whole, ModeOfCounts(merged))
	assert.Equal(t, []float64{2, 5}, whole.Values)
	assert.Equal(t, 3, *whole.Frequency)
}
