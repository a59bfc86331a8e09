package testkit

import (
	"context"
	"sort"
	"sync"

	"trialstats/domain/core"
	"trialstats/domain/summary"
	"trialstats/ports"
)

// sampleRow is one raw measurement row; absent fields are null
type sampleRow struct {
	key    summary.TrialKey
	values map[string]float64
}

// MemoryStore is an in-memory stand-in for the database. It implements every
// source and store port.
type MemoryStore struct {
	mu sync.RWMutex

	samples     map[string][]sampleRow // by table
	spans       map[string][]summary.ProcessSpan
	trials      map[string]summary.TrialSummary
	experiments map[string]summary.ExperimentSummary
	homogeneity map[string]summary.HomogeneityResult
	process     map[string]summary.TrialProcessMetrics

	// SaveErr, when set, is returned by every Save method
	SaveErr error
}

var (
	_ ports.SampleSource           = (*MemoryStore)(nil)
	_ ports.ProcessSource          = (*MemoryStore)(nil)
	_ ports.TrialSummaryStore      = (*MemoryStore)(nil)
	_ ports.ExperimentSummaryStore = (*MemoryStore)(nil)
	_ ports.HomogeneityStore       = (*MemoryStore)(nil)
	_ ports.ProcessMetricsStore    = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		samples:     make(map[string][]sampleRow),
		spans:       make(map[string][]summary.ProcessSpan),
		trials:      make(map[string]summary.TrialSummary),
		experiments: make(map[string]summary.ExperimentSummary),
		homogeneity: make(map[string]summary.HomogeneityResult),
		process:     make(map[string]summary.TrialProcessMetrics),
	}
}

// AddSamples appends one row per value, each carrying only field
func (m *MemoryStore) AddSamples(table string, key summary.TrialKey, field string, values ...float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.samples[table] = append(m.samples[table], sampleRow{key: key, values: map[string]float64{field: v}})
	}
}

// AddRow appends one row with several fields
func (m *MemoryStore) AddRow(table string, key summary.TrialKey, values map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[table] = append(m.samples[table], sampleRow{key: key, values: values})
}

// AddSpans appends process spans of a trial
func (m *MemoryStore) AddSpans(experimentID, trialID string, spans ...summary.ProcessSpan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := experimentID + "/" + trialID
	m.spans[k] = append(m.spans[k], spans...)
}

// LoadBenchmark stores a generated benchmark: io rows under table and the
// process spans of every trial
func (m *MemoryStore) LoadBenchmark(table, experimentID string, b *Benchmark) {
	for _, r := range b.IO {
		m.AddRow(table, summary.TrialKey{
			ExperimentID:  r.ExperimentID,
			TrialID:       r.TrialID,
			Discriminator: r.Device,
			HostID:        r.HostID,
		}, map[string]float64{"reads": r.Reads, "writes": r.Writes, "total": r.Total})
	}
	for trialID, spans := range b.Spans {
		m.AddSpans(experimentID, trialID, spans...)
	}
}

// Samples returns the field's values in insertion order
func (m *MemoryStore) Samples(ctx context.Context, q ports.SampleQuery) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []float64
	for _, row := range m.samples[q.Table.Name] {
		k := row.key
		if k.ExperimentID != q.Key.ExperimentID || k.TrialID != q.Key.TrialID {
			continue
		}
		if q.Key.HostID != "" && k.HostID != q.Key.HostID {
			continue
		}
		if q.Table.DiscriminatorColumn != "" && q.Key.Discriminator != "" && k.Discriminator != q.Key.Discriminator {
			continue
		}
		if v, ok := row.values[q.Field]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Trials lists the distinct trial ids of an experiment
func (m *MemoryStore) Trials(ctx context.Context, table ports.SampleTable, experimentID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	for _, row := range m.samples[table.Name] {
		if row.key.ExperimentID == experimentID {
			seen[row.key.TrialID] = true
		}
	}
	return sortedKeys(seen), nil
}

// Discriminators lists the distinct discriminators of a trial
func (m *MemoryStore) Discriminators(ctx context.Context, table ports.SampleTable, experimentID, trialID string) ([]string, error) {
	if table.DiscriminatorColumn == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	for _, row := range m.samples[table.Name] {
		if row.key.ExperimentID == experimentID && row.key.TrialID == trialID {
			seen[row.key.Discriminator] = true
		}
	}
	return sortedKeys(seen), nil
}

// Spans returns the spans of a trial
func (m *MemoryStore) Spans(ctx context.Context, experimentID, trialID string) ([]summary.ProcessSpan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]summary.ProcessSpan(nil), m.spans[experimentID+"/"+trialID]...), nil
}

// SaveTrialSummaries replaces rows by key and metric
func (m *MemoryStore) SaveTrialSummaries(ctx context.Context, rows []summary.TrialSummary) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.trials[r.Key.String()+"/"+r.Key.HostID+"/"+r.Metric] = r
	}
	return nil
}

// ListTrialSummaries returns the summaries of one experiment key ordered by trial id
func (m *MemoryStore) ListTrialSummaries(ctx context.Context, key summary.ExperimentKey, metric string) ([]summary.TrialSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []summary.TrialSummary
	for _, r := range m.trials {
		if r.Key.Experiment() == key && r.Metric == metric {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.TrialID < out[j].Key.TrialID })
	return out, nil
}

// ExperimentKeys lists the experiment keys with summaries for the metric
func (m *MemoryStore) ExperimentKeys(ctx context.Context, experimentID, metric string) ([]summary.ExperimentKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[summary.ExperimentKey]bool)
	for _, r := range m.trials {
		if r.Key.ExperimentID == experimentID && r.Metric == metric {
			seen[r.Key.Experiment()] = true
		}
	}
	keys := make([]summary.ExperimentKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Discriminator != keys[j].Discriminator {
			return keys[i].Discriminator < keys[j].Discriminator
		}
		return keys[i].HostID < keys[j].HostID
	})
	return keys, nil
}

// SaveExperimentSummary replaces the row by key and metric
func (m *MemoryStore) SaveExperimentSummary(ctx context.Context, row summary.ExperimentSummary) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.experiments[experimentKey(row.Key, row.Metric)] = row
	return nil
}

// GetExperimentSummary returns a saved experiment summary
func (m *MemoryStore) GetExperimentSummary(ctx context.Context, key summary.ExperimentKey, metric string) (*summary.ExperimentSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.experiments[experimentKey(key, metric)]
	if !ok {
		return nil, core.NewNotFoundError("experiment summary", key.String()+" "+metric)
	}
	return &row, nil
}

// SaveHomogeneity replaces the row by key and metric
func (m *MemoryStore) SaveHomogeneity(ctx context.Context, row summary.HomogeneityResult) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.homogeneity[experimentKey(row.Key, row.Metric)] = row
	return nil
}

// Homogeneity returns a saved homogeneity result
func (m *MemoryStore) Homogeneity(key summary.ExperimentKey, metric string) (summary.HomogeneityResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.homogeneity[experimentKey(key, metric)]
	return row, ok
}

// SaveProcessMetrics replaces rows by trial and process definition
func (m *MemoryStore) SaveProcessMetrics(ctx context.Context, rows []summary.TrialProcessMetrics) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.process[r.ExperimentID+"/"+r.TrialID+"/"+r.ProcessDefinitionID] = r
	}
	return nil
}

// ProcessMetrics returns the saved rows of one trial ordered by definition
func (m *MemoryStore) ProcessMetrics(experimentID, trialID string) []summary.TrialProcessMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []summary.TrialProcessMetrics
	for _, r := range m.process {
		if r.ExperimentID == experimentID && r.TrialID == trialID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcessDefinitionID < out[j].ProcessDefinitionID })
	return out
}

func experimentKey(k summary.ExperimentKey, metric string) string {
	return k.String() + "/" + k.HostID + "/" + metric
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
