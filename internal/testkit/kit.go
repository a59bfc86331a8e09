package testkit

import (
	"trialstats/internal"
)

// IOTable is the table name synthetic io rows are stored under
const IOTable = "trial_io"

// TestKit provides testing utilities and fixtures
type TestKit struct {
	Store     *MemoryStore
	Benchmark *Benchmark
	Config    BenchmarkGeneratorConfig
	Logger    *internal.Logger
}

// NewTestKit creates a test kit with an empty store
func NewTestKit() *TestKit {
	return &TestKit{Store: NewMemoryStore(), Logger: internal.NopLogger()}
}

// NewBenchmarkKit creates a test kit whose store holds one generated experiment
func NewBenchmarkKit(config BenchmarkGeneratorConfig) *TestKit {
	kit := NewTestKit()
	kit.Config = config
	kit.Benchmark = NewBenchmarkGenerator(config).Generate()
	kit.Store.LoadBenchmark(IOTable, config.ExperimentID, kit.Benchmark)
	return kit
}
