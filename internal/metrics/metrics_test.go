package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value gathers the registry and returns the counter value of name whose
// labels include the given pairs
func value(t *testing.T, rec *Recorder, name string, labels ...string) float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabels(m.GetLabel(), labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabels(pairs []*dto.LabelPair, want []string) bool {
	for i := 0; i+1 < len(want); i += 2 {
		found := false
		for _, p := range pairs {
			if p.GetName() == want[i] && p.GetValue() == want[i+1] {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestRecorder_Counts(t *testing.T) {
	rec := NewRecorder()

	rec.Summary(TierTrial, false)
	rec.Summary(TierTrial, true)
	rec.Summary(TierExperiment, false)
	rec.SamplesRead(42)
	rec.Failure(TierHomogeneity)
	rec.Degenerate()
	rec.Observe(TierTrial, time.Now())

	assert.Equal(t, 2.0, value(t, rec, "trialstats_summaries_total", "tier", TierTrial))
	assert.Equal(t, 1.0, value(t, rec, "trialstats_empty_summaries_total", "tier", TierTrial))
	assert.Equal(t, 1.0, value(t, rec, "trialstats_summaries_total", "tier", TierExperiment))
	assert.Equal(t, 42.0, value(t, rec, "trialstats_samples_read_total"))
	assert.Equal(t, 1.0, value(t, rec, "trialstats_failures_total", "tier", TierHomogeneity))
	assert.Equal(t, 1.0, value(t, rec, "trialstats_homogeneity_degenerate_total"))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.Summary(TierTrial, true)
		rec.SamplesRead(1)
		rec.Failure(TierTrial)
		rec.Degenerate()
		rec.Observe(TierTrial, time.Now())
	})
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.SamplesRead(5)

	assert.Equal(t, 5.0, value(t, a, "trialstats_samples_read_total"))
	assert.Equal(t, 0.0, value(t, b, "trialstats_samples_read_total"))
}

func TestServer_Routes(t *testing.T) {
	rec := NewRecorder()
	rec.SamplesRead(7)
	srv := httptest.NewServer(NewServer(":0", rec, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "trialstats_samples_read_total 7")
}
