package analysis

import (
	"math"

	"trialstats/domain/summary"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/integrate"
)

// Summarizer computes trial-level descriptive statistics from raw samples.
// It holds no state beyond its options and is safe for concurrent use.
type Summarizer struct {
	opts Options
}

// NewSummarizer creates a summarizer with the given numeric conventions
func NewSummarizer(opts Options) *Summarizer {
	return &Summarizer{opts: opts.withDefaults()}
}

// Summarize computes the statistics of samples without keying or mode.
// NaN samples are dropped first; an empty remainder yields Count 0 with every
// statistic nil.
func (s *Summarizer) Summarize(samples []float64) summary.TrialSummary {
	samples = dropNaN(samples)
	if len(samples) == 0 {
		return summary.TrialSummary{}
	}

	n := len(samples)
	// Errors from the stats package only signal empty input, excluded above.
	mean, _ := stats.Mean(samples)
	variance, _ := stats.PopulationVariance(samples)
	stdDev, _ := stats.StandardDeviationPopulation(samples)
	minV, _ := stats.Min(samples)
	maxV, _ := stats.Max(samples)

	sorted := sortedCopy(samples)
	percentiles := percentileTable(sorted)

	marginOfError := s.opts.MarginZ * (stdDev / math.Sqrt(float64(n)))

	return summary.TrialSummary{
		Count:         n,
		Mean:          summary.Float(mean),
		Variance:      summary.Float(variance),
		StdDev:        summary.Float(stdDev),
		Min:           summary.Float(minV),
		Max:           summary.Float(maxV),
		Q1:            summary.Float(percentiles[25]),
		Q2:            summary.Float(percentiles[50]),
		Q3:            summary.Float(percentiles[75]),
		P90:           summary.Float(percentiles[90]),
		P95:           summary.Float(percentiles[95]),
		P99:           summary.Float(percentiles[99]),
		Percentiles:   percentiles,
		MarginOfError: summary.Float(marginOfError),
		CI095Min:      summary.Float(mean - marginOfError),
		CI095Max:      summary.Float(mean + marginOfError),
		Integral:      summary.Float(trapezoid(samples)),
	}
}

// SummarizeTrial computes the full trial row: statistics, mode and key
func (s *Summarizer) SummarizeTrial(key summary.TrialKey, metric string, samples []float64) summary.TrialSummary {
	ts := s.Summarize(samples)
	ts.Key = key
	ts.Metric = metric
	if !ts.IsEmpty() {
		mode := ResolveMode(samples)
		ts.Mode = mode.Values
		ts.ModeFreq = mode.Frequency
	}
	return ts
}

// dropNaN returns samples without NaN values, keeping recorded order
func dropNaN(samples []float64) []float64 {
	for i, v := range samples {
		if math.IsNaN(v) {
			kept := append(make([]float64, 0, len(samples)-1), samples[:i]...)
			for _, w := range samples[i+1:] {
				if !math.IsNaN(w) {
					kept = append(kept, w)
				}
			}
			return kept
		}
	}
	return samples
}

// trapezoid integrates samples in recorded order with unit spacing
func trapezoid(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	x := make([]float64, len(samples))
	for i := range x {
		x[i] = float64(i)
	}
	return integrate.Trapezoidal(x, samples)
}
