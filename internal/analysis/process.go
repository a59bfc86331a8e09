package analysis

import (
	"sort"

	"trialstats/domain/summary"
)

// ExecutionTime returns the seconds between the earliest start and the latest
// end of the spans, or nil when there are none
func ExecutionTime(spans []summary.ProcessSpan) *float64 {
	if len(spans) == 0 {
		return nil
	}
	smallest := spans[0].Start
	largest := spans[0].End
	for _, s := range spans[1:] {
		if s.Start.Before(smallest) {
			smallest = s.Start
		}
		if s.End.After(largest) {
			largest = s.End
		}
	}
	return summary.Float(largest.Sub(smallest).Seconds())
}

// Throughput is instances per second of executionTime; nil when the time is
// missing or zero
func Throughput(instances int, executionTime *float64) *float64 {
	if executionTime == nil || *executionTime == 0 {
		return nil
	}
	return summary.Float(float64(instances) / *executionTime)
}

// AverageDuration is the mean recorded duration of the spans. Spans without a
// recorded duration are skipped; nil when none has one.
func AverageDuration(spans []summary.ProcessSpan) *float64 {
	total := 0.0
	n := 0
	for _, s := range spans {
		if s.Duration == nil {
			continue
		}
		total += *s.Duration
		n++
	}
	if n == 0 {
		return nil
	}
	return summary.Float(total / float64(n))
}

// ProcessMetrics computes the whole-trial row and one row per process
// definition. Ignored spans and spans without a definition are skipped.
// Every row's throughput is measured against the whole-trial execution time.
// The whole-trial row also carries the average duration over every span of
// the trial with a recorded duration.
func ProcessMetrics(experimentID, trialID string, spans []summary.ProcessSpan) []summary.TrialProcessMetrics {
	kept := make([]summary.ProcessSpan, 0, len(spans))
	byDefinition := make(map[string][]summary.ProcessSpan)
	for _, s := range spans {
		if s.ToIgnore || s.ProcessDefinitionID == "" {
			continue
		}
		kept = append(kept, s)
		byDefinition[s.ProcessDefinitionID] = append(byDefinition[s.ProcessDefinitionID], s)
	}

	total := ExecutionTime(kept)
	rows := []summary.TrialProcessMetrics{{
		ExperimentID:        experimentID,
		TrialID:             trialID,
		ProcessDefinitionID: summary.AllProcesses,
		Instances:           len(kept),
		ExecutionTime:       total,
		Throughput:          Throughput(len(kept), total),
		AverageDuration:     AverageDuration(spans),
	}}

	definitions := make([]string, 0, len(byDefinition))
	for d := range byDefinition {
		definitions = append(definitions, d)
	}
	sort.Strings(definitions)

	for _, d := range definitions {
		group := byDefinition[d]
		rows = append(rows, summary.TrialProcessMetrics{
			ExperimentID:        experimentID,
			TrialID:             trialID,
			ProcessDefinitionID: d,
			Instances:           len(group),
			ExecutionTime:       ExecutionTime(group),
			Throughput:          Throughput(len(group), total),
		})
	}
	return rows
}
