package container

import (
	"context"
	"testing"

	"trialstats/app"
	"trialstats/domain/summary"
	"trialstats/internal/config"
	"trialstats/internal/errors"
	"trialstats/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	analysers, err := config.DefaultAnalysers()
	require.NoError(t, err)
	return &config.Config{
		Analysis:  config.AnalysisConfig{Workers: 2, MarginZ: 2, TrimProportion: 0.05},
		Database:  config.DatabaseConfig{MaxOpenConns: 1},
		Analysers: analysers,
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	c, err := New(testConfig(t), nil)
	require.NoError(t, err)
	assert.NotNil(t, c.Metrics)
	assert.NoError(t, c.Close())
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(testConfig(t))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestInitWithSource_RunsEndToEnd(t *testing.T) {
	c, err := New(testConfig(t), nil)
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(nil))

	cfg := testkit.DefaultBenchmarkConfig()
	cfg.TrialCount = 3
	cfg.SamplesPerTrial = 30
	kit := testkit.NewBenchmarkKit(cfg)

	store := c.InitWithSource(kit.Store)
	require.NotNil(t, c.TrialService)

	io, err := c.Config.Analysers.Source("io")
	require.NoError(t, err)

	ctx := context.Background()
	for _, id := range kit.Benchmark.TrialIDs {
		_, err := c.TrialService.SummarizeTrial(ctx, appTrialRequest(id, io))
		require.NoError(t, err)
	}

	rows, err := c.ExperimentService.AggregateExperiment(ctx, "exp1", "io.total")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].TrialCount)

	saved, err := store.GetExperimentSummary(ctx, summary.ExperimentKey{ExperimentID: "exp1", Discriminator: "sda", HostID: "host1"}, "io.total")
	require.NoError(t, err)
	assert.Equal(t, 3, saved.TrialCount)
}

func appTrialRequest(trialID string, src config.Source) app.TrialRequest {
	return app.TrialRequest{ExperimentID: "exp1", TrialID: trialID, HostID: "host1", Source: src}
}
