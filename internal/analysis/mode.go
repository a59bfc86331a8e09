package analysis

import (
	"math"
	"sort"

	"trialstats/domain/summary"
)

// Mode is the set of most frequent values and their shared frequency.
// Values is ascending; both fields are nil for empty input.
type Mode struct {
	Values    []float64
	Frequency *int
}

// Counts is a frequency table keyed by exact float64 value. Tables built on
// separate partitions can be merged in any order.
type Counts map[float64]int

// CountSamples builds the frequency table of samples. NaN never compares
// equal to itself and is not counted.
func CountSamples(samples []float64) Counts {
	counts := make(Counts, len(samples))
	for _, v := range samples {
		if math.IsNaN(v) {
			continue
		}
		counts[v]++
	}
	return counts
}

// Merge adds other into c and returns c
func (c Counts) Merge(other Counts) Counts {
	if c == nil {
		c = make(Counts, len(other))
	}
	for v, n := range other {
		c[v] += n
	}
	return c
}

// ModeOfCounts returns every value whose count equals the maximum count
func ModeOfCounts(counts Counts) Mode {
	highest := 0
	for _, n := range counts {
		if n > highest {
			highest = n
		}
	}
	if highest == 0 {
		return Mode{}
	}

	var values []float64
	for v, n := range counts {
		if n == highest {
			values = append(values, v)
		}
	}
	sort.Float64s(values)
	return Mode{Values: values, Frequency: summary.Int(highest)}
}

// ResolveMode returns the mode set of raw samples
func ResolveMode(samples []float64) Mode {
	if len(samples) == 0 {
		return Mode{}
	}
	return ModeOfCounts(CountSamples(samples))
}
