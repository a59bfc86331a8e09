package app

import (
	"context"
	"time"

	"trialstats/domain/core"
	"trialstats/domain/summary"
	"trialstats/internal"
	"trialstats/internal/analysis"
	"trialstats/internal/config"
	"trialstats/internal/errors"
	"trialstats/internal/metrics"
	"trialstats/internal/partition"
	"trialstats/ports"
)

// TrialService computes and stores the trial-tier summaries of one trial
type TrialService struct {
	source     ports.SampleSource
	store      ports.TrialSummaryStore
	summarizer *analysis.Summarizer
	workers    int
	logger     *internal.Logger
	metrics    *metrics.Recorder
}

// TrialRequest selects the trial and the source fields to summarize
type TrialRequest struct {
	ExperimentID string
	TrialID      string
	HostID       string
	Source       config.Source
	Fields       []string // empty means every field of the source
}

// NewTrialService creates a trial service
func NewTrialService(source ports.SampleSource, store ports.TrialSummaryStore, opts analysis.Options, workers int, logger *internal.Logger, rec *metrics.Recorder) *TrialService {
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &TrialService{
		source:     source,
		store:      store,
		summarizer: analysis.NewSummarizer(opts),
		workers:    workers,
		logger:     logger.With("TrialService"),
		metrics:    rec,
	}
}

type trialJob struct {
	key    summary.TrialKey
	field  string
	metric string
}

// SummarizeTrial summarizes every (discriminator, field) of the trial and
// saves the results. Sources without a discriminator column produce one
// summary per field under the unspecified discriminator.
func (s *TrialService) SummarizeTrial(ctx context.Context, req TrialRequest) ([]summary.TrialSummary, error) {
	start := time.Now()
	defer s.metrics.Observe(metrics.TierTrial, start)
	runID := core.NewRunID()

	experimentID, err := core.ParseExperimentID(req.ExperimentID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	trialID, err := core.ParseTrialID(req.TrialID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}

	fields := req.Fields
	if len(fields) == 0 {
		fields = req.Source.Fields
	}
	for _, f := range fields {
		if !req.Source.HasField(f) {
			return nil, errors.InvalidInput("unknown field " + f + " for source " + req.Source.Name)
		}
	}

	table := req.Source.SampleTable()
	discriminators, err := s.source.Discriminators(ctx, table, experimentID, trialID)
	if err != nil {
		s.metrics.Failure(metrics.TierTrial)
		return nil, errors.Wrapf(err, "failed to list discriminators of %s", trialID)
	}
	if len(discriminators) == 0 {
		discriminators = []string{""}
	}

	var jobs []trialJob
	for _, d := range discriminators {
		for _, f := range fields {
			jobs = append(jobs, trialJob{
				key: summary.TrialKey{
					ExperimentID:  experimentID,
					TrialID:       trialID,
					Discriminator: d,
					HostID:        req.HostID,
				},
				field:  f,
				metric: req.Source.Metric(f),
			})
		}
	}

	s.logger.Info("run %s: summarizing %d series of %s", runID, len(jobs), trialID)

	rows, err := partition.Map(ctx, jobs, s.workers, func(ctx context.Context, job trialJob) (summary.TrialSummary, error) {
		samples, err := s.source.Samples(ctx, ports.SampleQuery{Table: table, Field: job.field, Key: job.key})
		if err != nil {
			return summary.TrialSummary{}, err
		}
		s.metrics.SamplesRead(len(samples))

		row := s.summarizer.SummarizeTrial(job.key, job.metric, samples)
		s.metrics.Summary(metrics.TierTrial, row.IsEmpty())
		if row.IsEmpty() {
			s.logger.Debug("run %s: no samples for %s %s", runID, job.key, job.metric)
		}
		return row, nil
	})
	if err != nil {
		s.metrics.Failure(metrics.TierTrial)
		return nil, errors.Wrapf(err, "failed to summarize trial %s", trialID)
	}

	if err := s.store.SaveTrialSummaries(ctx, rows); err != nil {
		s.metrics.Failure(metrics.TierTrial)
		return nil, errors.WithCode(errors.CodeDatabaseError, err)
	}

	s.logger.Info("run %s: stored %d trial summaries for %s in %s", runID, len(rows), trialID, time.Since(start))
	return rows, nil
}
