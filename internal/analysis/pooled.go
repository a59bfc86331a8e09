package analysis

import (
	"fmt"
	"math"

	"trialstats/internal/errors"
)

// Moments are the per-trial quantities the pooled variance is rebuilt from
type Moments struct {
	Count    int
	Mean     float64
	Variance float64
}

// PooledAccumulator reconstructs the sum of squares of several trials from
// their count, mean and variance alone. Accumulators over disjoint trial
// sets merge into the accumulator over their union.
type PooledAccumulator struct {
	n          int
	weighted   float64 // Σ n·mean
	sumSquares float64 // Σ ((n-1)·var + n·mean²)
}

// Add folds one trial into the accumulator
func (a *PooledAccumulator) Add(m Moments) {
	n := float64(m.Count)
	a.n += m.Count
	a.weighted += n * m.Mean
	a.sumSquares += (n-1)*m.Variance + n*m.Mean*m.Mean
}

// Merge folds another accumulator into a
func (a *PooledAccumulator) Merge(other PooledAccumulator) {
	a.n += other.n
	a.weighted += other.weighted
	a.sumSquares += other.sumSquares
}

// Count returns the total number of observations folded in
func (a PooledAccumulator) Count() int {
	return a.n
}

// Result returns the combined variance and the grand mean.
// The variance is NaN when N <= 1; the grand mean is NaN when N == 0.
func (a PooledAccumulator) Result() (variance, grandMean float64) {
	if a.n == 0 {
		return math.NaN(), math.NaN()
	}
	n := float64(a.n)
	grandMean = a.weighted / n
	if a.n <= 1 {
		return math.NaN(), grandMean
	}
	variance = (a.sumSquares - n*grandMean*grandMean) / (n - 1)
	return variance, grandMean
}

// CombineVariance pools the variance and mean of several trials:
//
//	var = [Σ((nᵢ-1)·varᵢ + nᵢ·meanᵢ²) - N·grandMean²] / (N-1)
func CombineVariance(trials []Moments) (variance, grandMean float64) {
	var acc PooledAccumulator
	for _, m := range trials {
		acc.Add(m)
	}
	return acc.Result()
}

// VectorMoments are moments of a vector-valued measurement, one entry per component
type VectorMoments struct {
	Count    int
	Mean     []float64
	Variance []float64
}

// CombineComponent pools component i of vector-valued trial moments
func CombineComponent(trials []VectorMoments, i int) (variance, grandMean float64, err error) {
	var acc PooledAccumulator
	for idx, v := range trials {
		if i < 0 || i >= len(v.Mean) || i >= len(v.Variance) {
			return math.NaN(), math.NaN(), errors.InvalidInput(
				fmt.Sprintf("component %d out of range for trial %d (%d means, %d variances)", i, idx, len(v.Mean), len(v.Variance)))
		}
		acc.Add(Moments{Count: v.Count, Mean: v.Mean[i], Variance: v.Variance[i]})
	}
	variance, grandMean = acc.Result()
	return variance, grandMean, nil
}
