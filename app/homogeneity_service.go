package app

import (
	"context"
	"sort"
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

// HomogeneityService tests whether the trials of an experiment share a
// variance. It reads raw samples because the test needs every observation.
type HomogeneityService struct {
	source  ports.SampleSource
	store   ports.HomogeneityStore
	tester  *analysis.HomogeneityTester
	workers int
	logger  *internal.Logger
	metrics *metrics.Recorder
}

// HomogeneityRequest selects the experiment, host and metric to test
type HomogeneityRequest struct {
	ExperimentID string
	HostID       string
	Source       config.Source
	Field        string
}

// NewHomogeneityService creates a homogeneity service
func NewHomogeneityService(source ports.SampleSource, store ports.HomogeneityStore, opts analysis.Options, workers int, logger *internal.Logger, rec *metrics.Recorder) *HomogeneityService {
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &HomogeneityService{
		source:  source,
		store:   store,
		tester:  analysis.NewHomogeneityTester(opts, logger),
		workers: workers,
		logger:  logger.With("HomogeneityService"),
		metrics: rec,
	}
}

// TestExperiment runs the test for every discriminator seen in any trial.
// A test without a result is stored with null fields.
func (s *HomogeneityService) TestExperiment(ctx context.Context, req HomogeneityRequest) ([]summary.HomogeneityResult, error) {
	start := time.Now()
	defer s.metrics.Observe(metrics.TierHomogeneity, start)

	experimentID, err := core.ParseExperimentID(req.ExperimentID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	if !req.Source.HasField(req.Field) {
		return nil, errors.InvalidInput("unknown field " + req.Field + " for source " + req.Source.Name)
	}
	table := req.Source.SampleTable()
	metric := req.Source.Metric(req.Field)

	trialIDs, err := s.source.Trials(ctx, table, experimentID)
	if err != nil {
		s.metrics.Failure(metrics.TierHomogeneity)
		return nil, errors.Wrapf(err, "failed to list trials of %s", experimentID)
	}

	discriminators, err := s.discriminators(ctx, table, experimentID, trialIDs)
	if err != nil {
		s.metrics.Failure(metrics.TierHomogeneity)
		return nil, err
	}

	out := make([]summary.HomogeneityResult, 0, len(discriminators))
	for _, d := range discriminators {
		key := summary.ExperimentKey{ExperimentID: experimentID, Discriminator: d, HostID: req.HostID}

		groups, err := partition.Map(ctx, trialIDs, s.workers, func(ctx context.Context, trialID string) ([]float64, error) {
			samples, err := s.source.Samples(ctx, ports.SampleQuery{Table: table, Field: req.Field, Key: key.Trial(trialID)})
			if err == nil {
				s.metrics.SamplesRead(len(samples))
			}
			return samples, err
		})
		if err != nil {
			s.metrics.Failure(metrics.TierHomogeneity)
			return out, errors.Wrapf(err, "failed to read samples of %s", key)
		}

		res := s.tester.Test(key, metric, groups)
		s.metrics.Summary(metrics.TierHomogeneity, res.IsNull())
		if res.IsNull() && trialsWithData(groups) >= 2 {
			s.metrics.Degenerate()
		}

		if err := s.store.SaveHomogeneity(ctx, res); err != nil {
			s.metrics.Failure(metrics.TierHomogeneity)
			return out, errors.WithCode(errors.CodeDatabaseError, err)
		}
		out = append(out, res)
	}

	s.logger.Info("%s %s: %d homogeneity results over %d trials in %s",
		experimentID, metric, len(out), len(trialIDs), time.Since(start))
	return out, nil
}

// discriminators is the sorted union over trials; a source without a
// discriminator column yields the unspecified one
func (s *HomogeneityService) discriminators(ctx context.Context, table ports.SampleTable, experimentID string, trialIDs []string) ([]string, error) {
	if table.DiscriminatorColumn == "" {
		return []string{""}, nil
	}
	perTrial, err := partition.Map(ctx, trialIDs, s.workers, func(ctx context.Context, trialID string) ([]string, error) {
		return s.source.Discriminators(ctx, table, experimentID, trialID)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list discriminators of %s", experimentID)
	}

	seen := make(map[string]bool)
	var out []string
	for _, ds := range perTrial {
		for _, d := range ds {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Strings(out)
	if len(out) == 0 {
		out = []string{""}
	}
	return out, nil
}

// trialsWithData counts the sample sets the tester keeps
func trialsWithData(groups [][]float64) int {
	n := 0
	for _, g := range groups {
		if len(g) > 0 {
			n++
		}
	}
	return n
}
