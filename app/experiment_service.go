package app

import (
	"context"
	"time"

	"trialstats/domain/core"
	"trialstats/domain/summary"
	"trialstats/internal"
	"trialstats/internal/analysis"
	"trialstats/internal/errors"
	"trialstats/internal/metrics"
	"trialstats/ports"
)

// ExperimentService builds experiment summaries from stored trial summaries
type ExperimentService struct {
	trials      ports.TrialSummaryStore
	experiments ports.ExperimentSummaryStore
	aggregator  *analysis.Aggregator
	workers     int
	logger      *internal.Logger
	metrics     *metrics.Recorder
}

// NewExperimentService creates an experiment service
func NewExperimentService(trials ports.TrialSummaryStore, experiments ports.ExperimentSummaryStore, workers int, logger *internal.Logger, rec *metrics.Recorder) *ExperimentService {
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &ExperimentService{
		trials:      trials,
		experiments: experiments,
		aggregator:  analysis.NewAggregator(),
		workers:     workers,
		logger:      logger.With("ExperimentService"),
		metrics:     rec,
	}
}

// AggregateExperiment summarizes every (discriminator, host) of the
// experiment that has trial summaries for the metric
func (s *ExperimentService) AggregateExperiment(ctx context.Context, experimentID, metric string) ([]summary.ExperimentSummary, error) {
	start := time.Now()
	defer s.metrics.Observe(metrics.TierExperiment, start)

	if _, err := core.ParseExperimentID(experimentID); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}

	keys, err := s.trials.ExperimentKeys(ctx, experimentID, metric)
	if err != nil {
		s.metrics.Failure(metrics.TierExperiment)
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}
	if len(keys) == 0 {
		s.logger.Warn("%s has no trial summaries for %s", experimentID, metric)
		keys = []summary.ExperimentKey{{ExperimentID: experimentID}}
	}

	out := make([]summary.ExperimentSummary, 0, len(keys))
	for _, key := range keys {
		row, err := s.AggregateKey(ctx, key, metric)
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}

	s.logger.Info("%s %s: %d experiment summaries in %s", experimentID, metric, len(out), time.Since(start))
	return out, nil
}

// AggregateKey summarizes the trials of one experiment key and saves the row
func (s *ExperimentService) AggregateKey(ctx context.Context, key summary.ExperimentKey, metric string) (summary.ExperimentSummary, error) {
	trials, err := s.trials.ListTrialSummaries(ctx, key, metric)
	if err != nil {
		s.metrics.Failure(metrics.TierExperiment)
		return summary.ExperimentSummary{}, errors.WithCode(errors.CodeDatabaseError, err)
	}

	row, err := s.aggregator.AggregateParallel(ctx, key, metric, trials, s.workers)
	if err != nil {
		s.metrics.Failure(metrics.TierExperiment)
		return summary.ExperimentSummary{}, errors.Wrapf(err, "failed to aggregate %s", key)
	}
	s.metrics.Summary(metrics.TierExperiment, row.IsEmpty())
	s.logger.Debug("%s %s: %d of %d trials contributed", key, metric, row.TrialCount, len(trials))

	if err := s.experiments.SaveExperimentSummary(ctx, row); err != nil {
		s.metrics.Failure(metrics.TierExperiment)
		return summary.ExperimentSummary{}, errors.WithCode(errors.CodeDatabaseError, err)
	}
	return row, nil
}
