package analysis

import (
	"context"
	"math"

	"trialstats/domain/summary"
	"trialstats/internal/partition"
)

// Aggregator merges trial summaries into an experiment summary without
// touching raw samples.
type Aggregator struct{}

// NewAggregator creates an aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate reduces the trial summaries of one experiment key. Empty trial
// summaries are ignored; if none remain every statistic is nil.
func (a *Aggregator) Aggregate(key summary.ExperimentKey, metric string, trials []summary.TrialSummary) summary.ExperimentSummary {
	partial := NewPartial()
	for _, t := range trials {
		partial.Add(t)
	}

	var average *AverageSelector
	if pivot, ok := partial.MeanOfMeans(); ok {
		average = NewAverageSelector(pivot)
		for _, t := range trials {
			average.Add(t)
		}
	}
	return a.Finish(key, metric, partial, average)
}

// AggregateParallel computes the same summary as Aggregate by reducing
// partitions of the trial set on up to workers goroutines and merging the
// partials. The context only bounds the fan-out.
func (a *Aggregator) AggregateParallel(ctx context.Context, key summary.ExperimentKey, metric string, trials []summary.TrialSummary, workers int) (summary.ExperimentSummary, error) {
	partial, err := partition.MapReduce(ctx, trials, workers, NewPartial,
		func(p *Partial, t summary.TrialSummary) *Partial { p.Add(t); return p },
		func(x, y *Partial) *Partial { return x.Merge(y) })
	if err != nil {
		return summary.ExperimentSummary{}, err
	}

	var average *AverageSelector
	if pivot, ok := partial.MeanOfMeans(); ok {
		average, err = partition.MapReduce(ctx, trials, workers,
			func() *AverageSelector { return NewAverageSelector(pivot) },
			func(s *AverageSelector, t summary.TrialSummary) *AverageSelector { s.Add(t); return s },
			func(x, y *AverageSelector) *AverageSelector { return x.Merge(y) })
		if err != nil {
			return summary.ExperimentSummary{}, err
		}
	}
	return a.Finish(key, metric, partial, average), nil
}

// Finish turns a fully merged partial and average selection into the
// experiment summary row
func (a *Aggregator) Finish(key summary.ExperimentKey, metric string, p *Partial, average *AverageSelector) summary.ExperimentSummary {
	out := summary.ExperimentSummary{Key: key, Metric: metric}
	if p == nil || p.trials == 0 {
		return out
	}

	out.TrialCount = p.trials
	out.Min = p.value.minPtr()
	out.Max = p.value.maxPtr()
	out.MeanMin = p.mean.minPtr()
	out.MeanMax = p.mean.maxPtr()
	out.Q1Min, out.Q1Max = p.q1.minPtr(), p.q1.maxPtr()
	out.Q2Min, out.Q2Max = p.q2.minPtr(), p.q2.maxPtr()
	out.Q3Min, out.Q3Max = p.q3.minPtr(), p.q3.maxPtr()
	out.P90Min, out.P90Max = p.p90.minPtr(), p.p90.maxPtr()
	out.P95Min, out.P95Max = p.p95.minPtr(), p.p95.maxPtr()
	out.P99Min, out.P99Max = p.p99.minPtr(), p.p99.maxPtr()

	if p.weight > 0 {
		out.WeightedMean = summary.Float(p.weightedSum / float64(p.weight))
	}
	out.VariationCoefficient = finite(variationCoefficient(p.spread))

	variance, grandMean := p.pooled.Result()
	out.CombinedVariance = finite(variance)
	out.CombinedMean = finite(grandMean)

	out.Best = p.best.result()
	out.Worst = p.worst.result()
	if average != nil {
		out.Average = average.Result()
	}

	if p.modeMin.ok {
		out.ModeMin = summary.Float(p.modeMin.value)
		out.ModeMinFreq = summary.Int(p.modeMin.freq)
	}
	if p.modeMax.ok {
		out.ModeMax = summary.Float(p.modeMax.value)
		out.ModeMaxFreq = summary.Int(p.modeMax.freq)
	}
	return out
}

// variationCoefficient is the population standard deviation of the trial
// means over their mean, as a percentage
func variationCoefficient(s meanSpread) float64 {
	if s.count() == 0 {
		return math.NaN()
	}
	m := s.meanOfMeans()
	if m == 0 {
		return math.NaN()
	}
	return s.populationStdDev() / m * 100
}

// finite maps NaN and ±Inf to nil
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return summary.Float(v)
}
