package analysis

import (
	"fmt"
	"math"

	"trialstats/domain/core"
	"trialstats/domain/summary"
	"trialstats/internal"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Center selects the location each trial's deviations are measured from
type Center string

const (
	CenterMean    Center = "mean"
	CenterMedian  Center = "median"
	CenterTrimmed Center = "trimmed"
)

// LeveneOutcome is the statistic and p-value of one test run
type LeveneOutcome struct {
	Statistic float64
	PValue    float64
}

// HomogeneityTester runs Levene's test for equal variances across trials
type HomogeneityTester struct {
	opts   Options
	logger *internal.Logger
}

// NewHomogeneityTester creates a tester; a nil logger discards diagnostics
func NewHomogeneityTester(opts Options, logger *internal.Logger) *HomogeneityTester {
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &HomogeneityTester{opts: opts.withDefaults(), logger: logger.With("HomogeneityTester")}
}

// Test runs the mean, median and trimmed-mean centered tests over the
// per-trial sample sets. Trials without samples are dropped. With fewer than
// two remaining trials, or when any variant is numerically undefined, every
// field of the result is nil.
func (h *HomogeneityTester) Test(key summary.ExperimentKey, metric string, trials [][]float64) summary.HomogeneityResult {
	result := summary.HomogeneityResult{Key: key, Metric: metric}

	groups := make([][]float64, 0, len(trials))
	for _, t := range trials {
		if len(t) > 0 {
			groups = append(groups, t)
		}
	}
	if len(groups) < 2 {
		h.logger.Debug("%s %s: %d trials with data, need at least 2", key, metric, len(groups))
		return result
	}

	outcomes := make(map[Center]LeveneOutcome, 3)
	for _, center := range []Center{CenterMean, CenterMedian, CenterTrimmed} {
		out, err := h.Levene(groups, center)
		if err != nil {
			h.logger.Warn("Could not compute levene test for %s %s: %v", key, metric, err)
			return result
		}
		outcomes[center] = out
	}

	result.MeanStat = summary.Float(outcomes[CenterMean].Statistic)
	result.MeanP = summary.Float(outcomes[CenterMean].PValue)
	result.MedianStat = summary.Float(outcomes[CenterMedian].Statistic)
	result.MedianP = summary.Float(outcomes[CenterMedian].PValue)
	result.TrimmedStat = summary.Float(outcomes[CenterTrimmed].Statistic)
	result.TrimmedP = summary.Float(outcomes[CenterTrimmed].PValue)
	return result
}

// Levene computes the test statistic
//
//	W = (N-k)/(k-1) · Σ nᵢ(Z̄ᵢ-Z̄)² / ΣΣ (Zᵢⱼ-Z̄ᵢ)²,  Zᵢⱼ = |Yᵢⱼ - cᵢ|
//
// and its p-value from the F(k-1, N-k) survival function. For the trimmed
// center each trial is first trimmed at both ends and the test runs on what
// remains.
func (h *HomogeneityTester) Levene(groups [][]float64, center Center) (LeveneOutcome, error) {
	k := len(groups)
	if k < 2 {
		return LeveneOutcome{}, fmt.Errorf("%w: %d groups", core.ErrInsufficientData, k)
	}

	data := make([][]float64, k)
	centers := make([]float64, k)
	for i, g := range groups {
		d, c, err := h.centerOf(g, center)
		if err != nil {
			return LeveneOutcome{}, fmt.Errorf("group %d: %w", i, err)
		}
		data[i], centers[i] = d, c
	}

	nTotal := 0
	zBars := make([]float64, k)
	deviations := make([][]float64, k)
	zSum := 0.0
	for i, d := range data {
		z := make([]float64, len(d))
		for j, y := range d {
			z[j] = math.Abs(y - centers[i])
		}
		deviations[i] = z
		zBars[i] = stat.Mean(z, nil)
		zSum += zBars[i] * float64(len(d))
		nTotal += len(d)
	}
	if nTotal-k <= 0 {
		return LeveneOutcome{}, fmt.Errorf("%w: %d observations in %d groups", core.ErrDegenerate, nTotal, k)
	}
	zBar := zSum / float64(nTotal)

	between := 0.0
	within := 0.0
	for i, z := range deviations {
		d := zBars[i] - zBar
		between += float64(len(z)) * d * d
		for _, v := range z {
			e := v - zBars[i]
			within += e * e
		}
	}
	if within == 0 {
		return LeveneOutcome{}, fmt.Errorf("%w: zero dispersion within every group", core.ErrDegenerate)
	}

	df1 := float64(k - 1)
	df2 := float64(nTotal - k)
	w := (df2 * between) / (df1 * within)
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return LeveneOutcome{}, fmt.Errorf("%w: statistic %v", core.ErrDegenerate, w)
	}

	fDist := distuv.F{D1: df1, D2: df2}
	p := fDist.Survival(w)
	if math.IsNaN(p) {
		return LeveneOutcome{}, fmt.Errorf("%w: p-value undefined for W=%v", core.ErrDegenerate, w)
	}
	return LeveneOutcome{Statistic: w, PValue: p}, nil
}

// centerOf returns the observations to test and their center
func (h *HomogeneityTester) centerOf(g []float64, center Center) ([]float64, float64, error) {
	switch center {
	case CenterMean:
		m, err := stats.Mean(g)
		return g, m, err
	case CenterMedian:
		m, err := stats.Median(g)
		return g, m, err
	case CenterTrimmed:
		trimmed, err := trimBoth(g, h.opts.TrimProportion)
		if err != nil {
			return nil, 0, err
		}
		m, err := stats.Mean(trimmed)
		return trimmed, m, err
	default:
		return nil, 0, fmt.Errorf("unknown center %q", center)
	}
}

// trimBoth sorts g and cuts int(proportion·n) observations from each end
func trimBoth(g []float64, proportion float64) ([]float64, error) {
	n := len(g)
	cut := int(proportion * float64(n))
	if cut >= n-cut {
		return nil, fmt.Errorf("%w: trimming %d of %d observations from each end leaves nothing", core.ErrDegenerate, cut, n)
	}
	return sortedCopy(g)[cut : n-cut], nil
}
