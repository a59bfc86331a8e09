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

// ProcessService computes execution time and throughput of a trial's
// process instances
type ProcessService struct {
	source  ports.ProcessSource
	store   ports.ProcessMetricsStore
	logger  *internal.Logger
	metrics *metrics.Recorder
}

// NewProcessService creates a process service
func NewProcessService(source ports.ProcessSource, store ports.ProcessMetricsStore, logger *internal.Logger, rec *metrics.Recorder) *ProcessService {
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &ProcessService{source: source, store: store, logger: logger.With("ProcessService"), metrics: rec}
}

// ComputeTrial computes and saves the process metrics of one trial
func (s *ProcessService) ComputeTrial(ctx context.Context, experimentID, trialID string) ([]summary.TrialProcessMetrics, error) {
	start := time.Now()
	defer s.metrics.Observe(metrics.TierProcess, start)

	if _, err := core.ParseTrialID(trialID); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	if experimentID == "" {
		experimentID = core.ExperimentFromTrial(trialID)
	}

	spans, err := s.source.Spans(ctx, experimentID, trialID)
	if err != nil {
		s.metrics.Failure(metrics.TierProcess)
		return nil, errors.Wrapf(err, "failed to read process spans of %s", trialID)
	}

	rows := analysis.ProcessMetrics(experimentID, trialID, spans)
	for _, r := range rows {
		s.metrics.Summary(metrics.TierProcess, r.Instances == 0)
	}

	if err := s.store.SaveProcessMetrics(ctx, rows); err != nil {
		s.metrics.Failure(metrics.TierProcess)
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}

	s.logger.Info("%s: %d process definitions, %d spans", trialID, len(rows)-1, len(spans))
	return rows, nil
}
