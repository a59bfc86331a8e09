package analysis

import (
	"bytes"
	"testing"

	"trialstats/domain/summary"
	"trialstats/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomogeneity_SingleTrialIsNull(t *testing.T) {
	h := NewHomogeneityTester(DefaultOptions(), nil)

	res := h.Test(expKey, "reads", [][]float64{{1, 2, 3}})
	assert.True(t, res.IsNull())
	assert.Nil(t, res.MeanStat)
	assert.Nil(t, res.MedianStat)
	assert.Nil(t, res.TrimmedStat)

	// trials without samples do not count
	res = h.Test(expKey, "reads", [][]float64{{1, 2, 3}, {}})
	assert.True(t, res.IsNull())
	assert.Equal(t, expKey, res.Key)
}

func TestHomogeneity_IdenticalTrialsCannotReject(t *testing.T) {
	h := NewHomogeneityTester(DefaultOptions(), nil)
	sample := []float64{3, 7, 1, 9, 4, 6, 2, 8, 5, 5}

	res := h.Test(expKey, "reads", [][]float64{sample, append([]float64(nil), sample...)})

	require.False(t, res.IsNull())
	assert.Greater(t, *res.MeanP, 0.99)
	assert.Greater(t, *res.MedianP, 0.99)
	assert.Greater(t, *res.TrimmedP, 0.99)
	assert.InDelta(t, 0, *res.MeanStat, 1e-12)
}

func TestHomogeneity_DifferentSpreadsReject(t *testing.T) {
	h := NewHomogeneityTester(DefaultOptions(), nil)
	tight := []float64{10, 10.1, 9.9, 10.2, 9.8, 10.05, 9.95, 10.15, 9.85, 10}
	wide := []float64{0, 20, 5, 15, -5, 25, 2, 18, 8, 12}

	res := h.Test(expKey, "reads", [][]float64{tight, wide})

	require.False(t, res.IsNull())
	assert.Less(t, *res.MeanP, 0.01)
	assert.Less(t, *res.MedianP, 0.01)
	assert.Less(t, *res.TrimmedP, 0.01)
	assert.Greater(t, *res.MeanStat, 1.0)
}

func TestHomogeneity_KnownStatistic(t *testing.T) {
	h := NewHomogeneityTester(DefaultOptions(), nil)

	// mean-centered deviations: {1,0,1} and {2,0,2}; group means 2/3 and 4/3, overall 1
	out, err := h.Levene([][]float64{{1, 2, 3}, {2, 4, 6}}, CenterMean)
	require.NoError(t, err)

	// between = 3·(2/3-1)² + 3·(4/3-1)² = 2/3 ; within = 2/3 + 8/3 = 10/3
	// W = (6-2)/(2-1) · (2/3) / (10/3) = 0.8
	assert.InDelta(t, 0.8, out.Statistic, 1e-12)
	assert.Greater(t, out.PValue, 0.3)
	assert.Less(t, out.PValue, 0.5)
}

func TestHomogeneity_DegenerateVarianceIsNullAndLogged(t *testing.T) {
	var buf bytes.Buffer
	h := NewHomogeneityTester(DefaultOptions(), internal.NewLoggerTo(&buf, internal.LogLevelWarn))

	res := h.Test(summary.ExperimentKey{ExperimentID: "exp9"}, "writes", [][]float64{{5, 5, 5}, {5, 5, 5}})

	assert.True(t, res.IsNull())
	assert.Nil(t, res.MeanStat)
	assert.Contains(t, buf.String(), "Could not compute levene test")
	assert.Contains(t, buf.String(), "exp9")
}

func TestHomogeneity_SingletonTrialsAreDegenerate(t *testing.T) {
	h := NewHomogeneityTester(DefaultOptions(), nil)

	_, err := h.Levene([][]float64{{1}, {2}}, CenterMedian)
	assert.Error(t, err)

	res := h.Test(expKey, "reads", [][]float64{{1}, {2}})
	assert.True(t, res.IsNull())
}

func TestTrimBoth(t *testing.T) {
	data := make([]float64, 40)
	for i := range data {
		data[i] = float64(40 - i)
	}

	trimmed, err := trimBoth(data, 0.05)
	require.NoError(t, err)
	require.Len(t, trimmed, 36)
	assert.Equal(t, 3.0, trimmed[0])
	assert.Equal(t, 38.0, trimmed[35])
	assert.Equal(t, 40.0, data[0], "input must not be reordered")

	_, err = trimBoth([]float64{1, 2}, 0.5)
	assert.Error(t, err)
}
