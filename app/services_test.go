package app

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"trialstats/domain/summary"
	"trialstats/internal/analysis"
	"trialstats/internal/config"
	"trialstats/internal/errors"
	"trialstats/internal/metrics"
	"trialstats/internal/testkit"
	"trialstats/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var ioSource = config.Source{
	Name:          "io",
	Table:         testkit.IOTable,
	Discriminator: "device",
	Fields:        []string{"reads", "writes", "total"},
}

var sizeSource = config.Source{
	Name:   "database_size",
	Table:  "trial_database_size",
	Fields: []string{"size"},
}

// MockSampleSource is a testify mock of ports.SampleSource
type MockSampleSource struct {
	mock.Mock
}

func (m *MockSampleSource) Samples(ctx context.Context, q ports.SampleQuery) ([]float64, error) {
	args := m.Called(ctx, q)
	if v := args.Get(0); v != nil {
		return v.([]float64), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSampleSource) Trials(ctx context.Context, table ports.SampleTable, experimentID string) ([]string, error) {
	args := m.Called(ctx, table, experimentID)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSampleSource) Discriminators(ctx context.Context, table ports.SampleTable, experimentID, trialID string) ([]string, error) {
	args := m.Called(ctx, table, experimentID, trialID)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func benchmarkKit(trials int) *testkit.TestKit {
	cfg := testkit.DefaultBenchmarkConfig()
	cfg.TrialCount = trials
	cfg.SamplesPerTrial = 60
	return testkit.NewBenchmarkKit(cfg)
}

func TestTrialService_SummarizesEveryDeviceAndField(t *testing.T) {
	kit := benchmarkKit(2)
	svc := NewTrialService(kit.Store, kit.Store, analysis.DefaultOptions(), 4, nil, metrics.NewRecorder())

	rows, err := svc.SummarizeTrial(context.Background(), TrialRequest{
		ExperimentID: "exp1",
		TrialID:      "exp1_1",
		HostID:       "host1",
		Source:       ioSource,
	})
	require.NoError(t, err)
	require.Len(t, rows, 6)

	for _, r := range rows {
		assert.Equal(t, 60, r.Count)
		assert.NotNil(t, r.Mean)
		assert.Len(t, r.Percentiles, summary.PercentilePoints)
		assert.NotEmpty(t, r.Mode)
		assert.Equal(t, "host1", r.Key.HostID)
	}
	assert.Equal(t, "sda", rows[0].Key.Discriminator)
	assert.Equal(t, "io.reads", rows[0].Metric)
	assert.Equal(t, "sdb", rows[5].Key.Discriminator)
	assert.Equal(t, "io.total", rows[5].Metric)

	stored, err := kit.Store.ListTrialSummaries(context.Background(),
		summary.ExperimentKey{ExperimentID: "exp1", Discriminator: "sdb", HostID: "host1"}, "io.writes")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "exp1_1", stored[0].Key.TrialID)
}

func TestTrialService_NoDiscriminatorAndEmptyTrial(t *testing.T) {
	store := testkit.NewMemoryStore()
	store.AddSamples("trial_database_size", summary.TrialKey{ExperimentID: "e1", TrialID: "e1_1"}, "size", 1, 2, 3)
	svc := NewTrialService(store, store, analysis.DefaultOptions(), 2, nil, nil)
	ctx := context.Background()

	rows, err := svc.SummarizeTrial(ctx, TrialRequest{ExperimentID: "e1", TrialID: "e1_1", Source: sizeSource})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Key.Discriminator)
	assert.Equal(t, 2.0, *rows[0].Mean)

	rows, err = svc.SummarizeTrial(ctx, TrialRequest{ExperimentID: "e1", TrialID: "e1_9", Source: sizeSource})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsEmpty())
	assert.Nil(t, rows[0].Mean)
	assert.Nil(t, rows[0].Percentiles)
}

func TestTrialService_InvalidRequests(t *testing.T) {
	store := testkit.NewMemoryStore()
	svc := NewTrialService(store, store, analysis.DefaultOptions(), 2, nil, nil)
	ctx := context.Background()

	_, err := svc.SummarizeTrial(ctx, TrialRequest{ExperimentID: "e1", TrialID: "e1_1", Source: ioSource, Fields: []string{"latency"}})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.SummarizeTrial(ctx, TrialRequest{ExperimentID: "", TrialID: "e1_1", Source: ioSource})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestTrialService_SourceFailure(t *testing.T) {
	src := new(MockSampleSource)
	src.On("Discriminators", mock.Anything, ioSource.SampleTable(), "e1", "e1_1").Return([]string{"sda"}, nil)
	src.On("Samples", mock.Anything, mock.Anything).Return(nil, stderrors.New("connection reset"))

	store := testkit.NewMemoryStore()
	svc := NewTrialService(src, store, analysis.DefaultOptions(), 2, nil, nil)

	_, err := svc.SummarizeTrial(context.Background(), TrialRequest{ExperimentID: "e1", TrialID: "e1_1", Source: ioSource, Fields: []string{"reads"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	keys, _ := store.ExperimentKeys(context.Background(), "e1", "io.reads")
	assert.Empty(t, keys, "nothing is saved on failure")
	src.AssertExpectations(t)
}

func TestTrialService_SaveFailure(t *testing.T) {
	kit := benchmarkKit(1)
	kit.Store.SaveErr = stderrors.New("disk full")
	svc := NewTrialService(kit.Store, kit.Store, analysis.DefaultOptions(), 2, nil, nil)

	_, err := svc.SummarizeTrial(context.Background(), TrialRequest{ExperimentID: "exp1", TrialID: "exp1_1", Source: ioSource})
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}

func TestExperimentService_AggregatesStoredTrials(t *testing.T) {
	kit := benchmarkKit(5)
	ctx := context.Background()
	trialSvc := NewTrialService(kit.Store, kit.Store, analysis.DefaultOptions(), 4, nil, nil)
	for _, id := range kit.Benchmark.TrialIDs {
		_, err := trialSvc.SummarizeTrial(ctx, TrialRequest{ExperimentID: "exp1", TrialID: id, HostID: "host1", Source: ioSource})
		require.NoError(t, err)
	}

	svc := NewExperimentService(kit.Store, kit.Store, 1, nil, metrics.NewRecorder())
	rows, err := svc.AggregateExperiment(ctx, "exp1", "io.reads")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.Equal(t, 5, row.TrialCount)
		require.NotNil(t, row.WeightedMean)
		assert.InDelta(t, kit.Config.BaseMean, *row.WeightedMean, 15)
		assert.Len(t, row.Best, 1)
		assert.Len(t, row.Worst, 1)
		assert.NotEmpty(t, row.Average)

		trials, err := kit.Store.ListTrialSummaries(ctx, row.Key, "io.reads")
		require.NoError(t, err)
		assert.Equal(t, analysis.NewAggregator().Aggregate(row.Key, "io.reads", trials), row)

		saved, err := kit.Store.GetExperimentSummary(ctx, row.Key, "io.reads")
		require.NoError(t, err)
		assert.Equal(t, row, *saved)
	}
}

func TestExperimentService_NoTrialsGivesEmptySummary(t *testing.T) {
	store := testkit.NewMemoryStore()
	svc := NewExperimentService(store, store, 2, nil, nil)

	rows, err := svc.AggregateExperiment(context.Background(), "e404", "io.reads")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsEmpty())
	assert.Nil(t, rows[0].WeightedMean)
	assert.Nil(t, rows[0].Best)

	_, err = store.GetExperimentSummary(context.Background(), summary.ExperimentKey{ExperimentID: "e404"}, "io.reads")
	assert.NoError(t, err)
}

func TestHomogeneityService_Benchmark(t *testing.T) {
	kit := benchmarkKit(4)
	svc := NewHomogeneityService(kit.Store, kit.Store, analysis.DefaultOptions(), 2, nil, nil)

	rows, err := svc.TestExperiment(context.Background(), HomogeneityRequest{
		ExperimentID: "exp1",
		HostID:       "host1",
		Source:       ioSource,
		Field:        "reads",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.False(t, r.IsNull())
		assert.Equal(t, "io.reads", r.Metric)
		assert.GreaterOrEqual(t, *r.MedianP, 0.0)
		assert.LessOrEqual(t, *r.MedianP, 1.0)
	}

	saved, ok := kit.Store.Homogeneity(rows[0].Key, "io.reads")
	require.True(t, ok)
	assert.Equal(t, rows[0], saved)
}

func TestHomogeneityService_DegenerateIsStoredAsNull(t *testing.T) {
	store := testkit.NewMemoryStore()
	for _, trial := range []string{"e1_1", "e1_2"} {
		store.AddSamples("trial_database_size", summary.TrialKey{ExperimentID: "e1", TrialID: trial}, "size", 5, 5, 5)
	}
	svc := NewHomogeneityService(store, store, analysis.DefaultOptions(), 2, nil, nil)

	rows, err := svc.TestExperiment(context.Background(), HomogeneityRequest{ExperimentID: "e1", Source: sizeSource, Field: "size"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsNull())

	saved, ok := store.Homogeneity(summary.ExperimentKey{ExperimentID: "e1"}, "database_size.size")
	require.True(t, ok)
	assert.True(t, saved.IsNull())
}

// counterValue reads one unlabelled counter from the recorder's registry
func counterValue(t *testing.T, rec *metrics.Recorder, name string) float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestHomogeneityService_DegenerateCountsOnlyTestedKeys(t *testing.T) {
	store := testkit.NewMemoryStore()
	store.AddSamples("trial_database_size", summary.TrialKey{ExperimentID: "e1", TrialID: "e1_1"}, "size", 1, 2, 3)
	for _, trial := range []string{"e2_1", "e2_2"} {
		store.AddSamples("trial_database_size", summary.TrialKey{ExperimentID: "e2", TrialID: trial}, "size", 5, 5, 5)
	}
	rec := metrics.NewRecorder()
	svc := NewHomogeneityService(store, store, analysis.DefaultOptions(), 2, nil, rec)

	rows, err := svc.TestExperiment(context.Background(), HomogeneityRequest{ExperimentID: "e1", Source: sizeSource, Field: "size"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsNull())
	assert.Equal(t, 0.0, counterValue(t, rec, "trialstats_homogeneity_degenerate_total"))

	rows, err = svc.TestExperiment(context.Background(), HomogeneityRequest{ExperimentID: "e2", Source: sizeSource, Field: "size"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsNull())
	assert.Equal(t, 1.0, counterValue(t, rec, "trialstats_homogeneity_degenerate_total"))
}

func TestProcessService(t *testing.T) {
	store := testkit.NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.AddSpans("e1", "e1_1",
		summary.ProcessSpan{ProcessDefinitionID: "order", InstanceID: "1", Start: base, End: base.Add(4 * time.Second), Duration: summary.Float(4)},
		summary.ProcessSpan{ProcessDefinitionID: "order", InstanceID: "2", Start: base.Add(time.Second), End: base.Add(8 * time.Second), Duration: summary.Float(7)},
	)
	svc := NewProcessService(store, store, nil, nil)

	rows, err := svc.ComputeTrial(context.Background(), "", "e1_1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, summary.AllProcesses, rows[0].ProcessDefinitionID)
	assert.Equal(t, "e1", rows[0].ExperimentID)
	assert.Equal(t, 8.0, *rows[0].ExecutionTime)
	assert.Equal(t, 0.25, *rows[0].Throughput)
	require.NotNil(t, rows[0].AverageDuration)
	assert.Equal(t, 5.5, *rows[0].AverageDuration)

	assert.Len(t, store.ProcessMetrics("e1", "e1_1"), 2)
}
