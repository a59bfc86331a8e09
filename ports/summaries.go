package ports

import (
	"context"

	"trialstats/domain/summary"
)

// TrialSummaryStore persists trial-tier results. Saving replaces any row with
// the same key and metric.
type TrialSummaryStore interface {
	SaveTrialSummaries(ctx context.Context, rows []summary.TrialSummary) error
	ListTrialSummaries(ctx context.Context, key summary.ExperimentKey, metric string) ([]summary.TrialSummary, error)

	// ExperimentKeys lists every (discriminator, host) with trial summaries
	// for the experiment and metric
	ExperimentKeys(ctx context.Context, experimentID, metric string) ([]summary.ExperimentKey, error)
}

// ExperimentSummaryStore persists experiment-tier results
type ExperimentSummaryStore interface {
	SaveExperimentSummary(ctx context.Context, row summary.ExperimentSummary) error
	GetExperimentSummary(ctx context.Context, key summary.ExperimentKey, metric string) (*summary.ExperimentSummary, error)
}

// HomogeneityStore persists variance homogeneity results
type HomogeneityStore interface {
	SaveHomogeneity(ctx context.Context, row summary.HomogeneityResult) error
}

// ProcessMetricsStore persists per-trial process execution metrics
type ProcessMetricsStore interface {
	SaveProcessMetrics(ctx context.Context, rows []summary.TrialProcessMetrics) error
}
