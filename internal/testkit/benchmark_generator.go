package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"trialstats/domain/summary"
)

// BenchmarkGeneratorConfig configures the synthetic benchmark generator
type BenchmarkGeneratorConfig struct {
	ExperimentID     string    `json:"experiment_id"`
	TrialCount       int       `json:"trial_count"`
	SamplesPerTrial  int       `json:"samples_per_trial"`
	Devices          []string  `json:"devices"`
	HostID           string    `json:"host_id"`
	BaseMean         float64   `json:"base_mean"`
	TrialDrift       float64   `json:"trial_drift"` // stddev of the per-trial mean offset
	NoiseStdDev      float64   `json:"noise_std_dev"`
	ProcessDefs      []string  `json:"process_defs"`
	InstancesPerProc int       `json:"instances_per_proc"`
	IgnoreRate       float64   `json:"ignore_rate"`
	Start            time.Time `json:"start"`
	Seed             int64     `json:"seed"`
}

// DefaultBenchmarkConfig returns sensible defaults for benchmark generation
func DefaultBenchmarkConfig() BenchmarkGeneratorConfig {
	return BenchmarkGeneratorConfig{
		ExperimentID:     "exp1",
		TrialCount:       5,
		SamplesPerTrial:  200,
		Devices:          []string{"sda", "sdb"},
		HostID:           "host1",
		BaseMean:         100,
		TrialDrift:       5,
		NoiseStdDev:      10,
		ProcessDefs:      []string{"billing", "order"},
		InstancesPerProc: 20,
		IgnoreRate:       0.05,
		Start:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:             42,
	}
}

// IORow is one synthetic trial_io measurement
type IORow struct {
	ExperimentID string
	TrialID      string
	HostID       string
	Device       string
	At           time.Time
	Reads        float64
	Writes       float64
	Total        float64
}

// Benchmark is the output of one generator run
type Benchmark struct {
	TrialIDs []string
	IO       []IORow
	Spans    map[string][]summary.ProcessSpan // by trial id
}

// BenchmarkGenerator generates repeatable synthetic benchmark trials
type BenchmarkGenerator struct {
	config BenchmarkGeneratorConfig
	rng    *rand.Rand
}

// NewBenchmarkGenerator creates a new benchmark generator
func NewBenchmarkGenerator(config BenchmarkGeneratorConfig) *BenchmarkGenerator {
	return &BenchmarkGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces every trial of the experiment
func (g *BenchmarkGenerator) Generate() *Benchmark {
	b := &Benchmark{Spans: make(map[string][]summary.ProcessSpan)}

	for i := 0; i < g.config.TrialCount; i++ {
		trialID := fmt.Sprintf("%s_%d", g.config.ExperimentID, i+1)
		b.TrialIDs = append(b.TrialIDs, trialID)

		trialStart := g.config.Start.Add(time.Duration(i) * time.Hour)
		offset := g.rng.NormFloat64() * g.config.TrialDrift
		for _, dev := range g.config.Devices {
			b.IO = append(b.IO, g.ioSeries(trialID, dev, trialStart, offset)...)
		}
		b.Spans[trialID] = g.spans(trialStart)
	}
	return b
}

func (g *BenchmarkGenerator) ioSeries(trialID, device string, start time.Time, offset float64) []IORow {
	rows := make([]IORow, 0, g.config.SamplesPerTrial)
	for j := 0; j < g.config.SamplesPerTrial; j++ {
		reads := g.positive(g.config.BaseMean + offset + g.rng.NormFloat64()*g.config.NoiseStdDev)
		writes := g.positive(g.config.BaseMean/2 + offset/2 + g.rng.NormFloat64()*g.config.NoiseStdDev/2)
		rows = append(rows, IORow{
			ExperimentID: g.config.ExperimentID,
			TrialID:      trialID,
			HostID:       g.config.HostID,
			Device:       device,
			At:           start.Add(time.Duration(j) * time.Second),
			Reads:        reads,
			Writes:       writes,
			Total:        reads + writes,
		})
	}
	return rows
}

func (g *BenchmarkGenerator) spans(start time.Time) []summary.ProcessSpan {
	var spans []summary.ProcessSpan
	for _, def := range g.config.ProcessDefs {
		for k := 0; k < g.config.InstancesPerProc; k++ {
			begin := start.Add(time.Duration(g.rng.Intn(600)) * time.Second)
			length := time.Duration(1+g.rng.Intn(120)) * time.Second
			spans = append(spans, summary.ProcessSpan{
				ProcessDefinitionID: def,
				InstanceID:          fmt.Sprintf("%s-%d", def, k),
				Start:               begin,
				End:                 begin.Add(length),
				Duration:            summary.Float(length.Seconds()),
				ToIgnore:            g.rng.Float64() < g.config.IgnoreRate,
			})
		}
	}
	return spans
}

// positive keeps rates non-negative
func (g *BenchmarkGenerator) positive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Field returns the named io column of a row
func (r IORow) Field(name string) (float64, bool) {
	switch name {
	case "reads":
		return r.Reads, true
	case "writes":
		return r.Writes, true
	case "total":
		return r.Total, true
	default:
		return 0, false
	}
}
