package analysis

import (
	"math"
	"sort"

	"trialstats/domain/summary"

	"github.com/montanaflynn/stats"
)

// bounds tracks the minimum and maximum of one per-trial field
type bounds struct {
	min, max float64
	ok       bool
}

func (b *bounds) add(v *float64) {
	if v == nil {
		return
	}
	b.addValue(*v)
}

func (b *bounds) addValue(v float64) {
	if !b.ok {
		b.min, b.max, b.ok = v, v, true
		return
	}
	b.min = math.Min(b.min, v)
	b.max = math.Max(b.max, v)
}

func (b *bounds) merge(o bounds) {
	if !o.ok {
		return
	}
	b.addValue(o.min)
	b.addValue(o.max)
}

func (b bounds) minPtr() *float64 {
	if !b.ok {
		return nil
	}
	return summary.Float(b.min)
}

func (b bounds) maxPtr() *float64 {
	if !b.ok {
		return nil
	}
	return summary.Float(b.max)
}

// trialPick selects trials by extreme mean and, among those, extreme margin
// of error. Both comparisons are exact float equality.
type trialPick struct {
	better func(a, b float64) bool
	mean   float64
	me     float64
	ids    []string
	ok     bool
}

func less(a, b float64) bool    { return a < b }
func greater(a, b float64) bool { return a > b }

func (p *trialPick) add(mean, me float64, ids ...string) {
	switch {
	case !p.ok, p.better(mean, p.mean), mean == p.mean && p.better(me, p.me):
		p.mean, p.me, p.ok = mean, me, true
		p.ids = append([]string(nil), ids...)
	case mean == p.mean && me == p.me:
		p.ids = append(p.ids, ids...)
	}
}

func (p *trialPick) merge(o trialPick) {
	if o.ok {
		p.add(o.mean, o.me, o.ids...)
	}
}

func (p trialPick) result() []string {
	if !p.ok {
		return nil
	}
	return sortedIDs(p.ids)
}

// modePick keeps the extreme representative mode value across trials.
// Equal representatives resolve to the higher frequency.
type modePick struct {
	better func(a, b float64) bool
	value  float64
	freq   int
	ok     bool
}

func (p *modePick) add(value float64, freq int) {
	if !p.ok || p.better(value, p.value) || (value == p.value && freq > p.freq) {
		p.value, p.freq, p.ok = value, freq, true
	}
}

func (p *modePick) merge(o modePick) {
	if o.ok {
		p.add(o.value, o.freq)
	}
}

// meanSpread carries the trial means themselves. Statistics over them are
// computed on a sorted copy, so their bits do not depend on how the trials
// were partitioned or in which order partials were merged.
type meanSpread struct {
	means []float64
}

func (s *meanSpread) add(x float64) {
	s.means = append(s.means, x)
}

func (s *meanSpread) merge(o meanSpread) {
	s.means = append(s.means, o.means...)
}

func (s meanSpread) count() int {
	return len(s.means)
}

// meanOfMeans is the arithmetic mean of the trial means
func (s meanSpread) meanOfMeans() float64 {
	m, err := stats.Mean(sortedCopy(s.means))
	if err != nil {
		return math.NaN()
	}
	return m
}

// populationStdDev is the N-denominator standard deviation of the trial means
func (s meanSpread) populationStdDev() float64 {
	sd, err := stats.StandardDeviationPopulation(sortedCopy(s.means))
	if err != nil {
		return math.NaN()
	}
	return sd
}

// Partial is the associative, commutative reduction of a set of trial
// summaries. Partials of disjoint trial sets merge into the partial of their
// union, so trial summaries can be reduced on independent partitions.
type Partial struct {
	trials int

	value, mean               bounds
	q1, q2, q3, p90, p95, p99 bounds

	weight      int
	weightedSum float64
	spread      meanSpread

	best, worst trialPick
	modeMin     modePick
	modeMax     modePick
	pooled      PooledAccumulator
}

// NewPartial returns the empty reduction
func NewPartial() *Partial {
	return &Partial{
		best:    trialPick{better: less},
		worst:   trialPick{better: greater},
		modeMin: modePick{better: less},
		modeMax: modePick{better: greater},
	}
}

// Trials returns the number of non-empty trials folded in
func (p *Partial) Trials() int {
	return p.trials
}

// Add folds one trial summary in. Empty summaries contribute nothing.
func (p *Partial) Add(t summary.TrialSummary) {
	if t.IsEmpty() || t.Mean == nil {
		return
	}
	p.trials++
	mean := *t.Mean

	p.value.add(t.Min)
	p.value.add(t.Max)
	p.mean.addValue(mean)
	p.q1.add(t.Q1)
	p.q2.add(t.Q2)
	p.q3.add(t.Q3)
	p.p90.add(t.P90)
	p.p95.add(t.P95)
	p.p99.add(t.P99)

	p.weight += t.Count
	p.weightedSum += mean * float64(t.Count)
	p.spread.add(mean)

	me := 0.0
	if t.MarginOfError != nil {
		me = *t.MarginOfError
	}
	p.best.add(mean, me, t.Key.TrialID)
	p.worst.add(mean, me, t.Key.TrialID)

	if len(t.Mode) > 0 && t.ModeFreq != nil {
		lo, hi := t.Mode[0], t.Mode[0]
		for _, v := range t.Mode[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		p.modeMin.add(lo, *t.ModeFreq)
		p.modeMax.add(hi, *t.ModeFreq)
	}

	variance := 0.0
	if t.Variance != nil {
		variance = *t.Variance
	}
	p.pooled.Add(Moments{Count: t.Count, Mean: mean, Variance: variance})
}

// Merge folds another partial into p and returns p
func (p *Partial) Merge(o *Partial) *Partial {
	if o == nil || o.trials == 0 {
		return p
	}
	p.trials += o.trials
	p.value.merge(o.value)
	p.mean.merge(o.mean)
	p.q1.merge(o.q1)
	p.q2.merge(o.q2)
	p.q3.merge(o.q3)
	p.p90.merge(o.p90)
	p.p95.merge(o.p95)
	p.p99.merge(o.p99)
	p.weight += o.weight
	p.weightedSum += o.weightedSum
	p.spread.merge(o.spread)
	p.best.merge(o.best)
	p.worst.merge(o.worst)
	p.modeMin.merge(o.modeMin)
	p.modeMax.merge(o.modeMax)
	p.pooled.Merge(o.pooled)
	return p
}

// MeanOfMeans returns the unweighted mean of the trial means, the pivot of
// the average-trial selection. ok is false for an empty partial.
func (p *Partial) MeanOfMeans() (float64, bool) {
	if p.spread.count() == 0 {
		return 0, false
	}
	return p.spread.meanOfMeans(), true
}

// AverageSelector finds the trials whose mean is the first at or above the
// pivot in ascending order and the first at or below it in descending order.
// It is a second pass that needs the pivot of the complete trial set.
type AverageSelector struct {
	pivot        float64
	upper, lower float64
	hasUp        bool
	hasLow       bool
	upIDs        []string
	lowIDs       []string
}

// NewAverageSelector creates a selector around the mean of means
func NewAverageSelector(pivot float64) *AverageSelector {
	return &AverageSelector{pivot: pivot}
}

// Add folds one trial summary in
func (a *AverageSelector) Add(t summary.TrialSummary) {
	if t.IsEmpty() || t.Mean == nil {
		return
	}
	a.addMean(*t.Mean, t.Key.TrialID)
}

func (a *AverageSelector) addMean(mean float64, ids ...string) {
	if mean >= a.pivot {
		a.mergeSide(true, mean, ids)
	}
	if mean <= a.pivot {
		a.mergeSide(false, mean, ids)
	}
}

// Merge folds another selector built around the same pivot
func (a *AverageSelector) Merge(o *AverageSelector) *AverageSelector {
	if o == nil {
		return a
	}
	if o.hasUp {
		a.mergeSide(true, o.upper, o.upIDs)
	}
	if o.hasLow {
		a.mergeSide(false, o.lower, o.lowIDs)
	}
	return a
}

func (a *AverageSelector) mergeSide(up bool, mean float64, ids []string) {
	if up {
		switch {
		case !a.hasUp || mean < a.upper:
			a.upper, a.hasUp = mean, true
			a.upIDs = append([]string(nil), ids...)
		case mean == a.upper:
			a.upIDs = append(a.upIDs, ids...)
		}
		return
	}
	switch {
	case !a.hasLow || mean > a.lower:
		a.lower, a.hasLow = mean, true
		a.lowIDs = append([]string(nil), ids...)
	case mean == a.lower:
		a.lowIDs = append(a.lowIDs, ids...)
	}
}

// Result returns the union of trial ids at either boundary mean
func (a *AverageSelector) Result() []string {
	if !a.hasUp && !a.hasLow {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, group := range [][]string{a.upIDs, a.lowIDs} {
		for _, id := range group {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return sortedIDs(ids)
}

func sortedIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
