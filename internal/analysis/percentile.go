package analysis

import (
	"math"
	"sort"

	"trialstats/domain/summary"
)

// sortedCopy returns an ascending copy of data
func sortedCopy(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}

// percentileTable returns percentiles 0..100 of an ascending sample using
// linear interpolation between closest ranks: rank = p/100 * (n-1).
func percentileTable(sorted []float64) []float64 {
	table := make([]float64, summary.PercentilePoints)
	for p := range table {
		table[p] = percentileSorted(sorted, float64(p))
	}
	return table
}

// percentileSorted computes a single linearly interpolated percentile
func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := math.Floor(rank)
	hi := math.Ceil(rank)
	if hi >= float64(n) {
		hi = float64(n - 1)
	}
	return lerp(sorted[int(lo)], sorted[int(hi)], rank-lo)
}

// lerp interpolates from whichever end is closer so that t=0 and t=1 return
// a and b exactly and the result never leaves [a, b].
func lerp(a, b, t float64) float64 {
	if a == b {
		return a
	}
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}
