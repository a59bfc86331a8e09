package analysis

import (
	"testing"
	"time"

	"trialstats/domain/summary"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(def, instance string, startSec, endSec int, ignore bool) summary.ProcessSpan {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return summary.ProcessSpan{
		ProcessDefinitionID: def,
		InstanceID:          instance,
		Start:               base.Add(time.Duration(startSec) * time.Second),
		End:                 base.Add(time.Duration(endSec) * time.Second),
		ToIgnore:            ignore,
	}
}

func withDuration(s summary.ProcessSpan, seconds float64) summary.ProcessSpan {
	s.Duration = summary.Float(seconds)
	return s
}

func TestAverageDuration(t *testing.T) {
	assert.Nil(t, AverageDuration(nil))
	assert.Nil(t, AverageDuration([]summary.ProcessSpan{span("a", "1", 0, 4, false)}))

	got := AverageDuration([]summary.ProcessSpan{
		withDuration(span("a", "1", 0, 4, false), 4),
		span("a", "2", 0, 9, false),
		withDuration(span("b", "3", 0, 10, false), 10),
		withDuration(span("b", "4", 0, 1, true), 1),
	})
	require.NotNil(t, got)
	assert.Equal(t, 5.0, *got)
}

func TestExecutionTime(t *testing.T) {
	assert.Nil(t, ExecutionTime(nil))

	got := ExecutionTime([]summary.ProcessSpan{
		span("a", "1", 5, 10, false),
		span("a", "2", 0, 3, false),
		span("b", "3", 2, 20, false),
	})
	require.NotNil(t, got)
	assert.Equal(t, 20.0, *got)
}

func TestThroughput(t *testing.T) {
	assert.Nil(t, Throughput(5, nil))
	assert.Nil(t, Throughput(5, summary.Float(0)))

	got := Throughput(10, summary.Float(4))
	require.NotNil(t, got)
	assert.Equal(t, 2.5, *got)
}

func TestProcessMetrics(t *testing.T) {
	rows := ProcessMetrics("exp1", "exp1_1", []summary.ProcessSpan{
		withDuration(span("order", "1", 0, 4, false), 4),
		withDuration(span("order", "2", 2, 6, false), 4),
		withDuration(span("billing", "3", 1, 10, false), 10),
		span("billing", "4", 0, 100, true),
		span("", "5", 0, 200, false),
	})

	require.Len(t, rows, 3)

	all := rows[0]
	assert.Equal(t, summary.AllProcesses, all.ProcessDefinitionID)
	assert.Equal(t, "exp1", all.ExperimentID)
	assert.Equal(t, "exp1_1", all.TrialID)
	assert.Equal(t, 3, all.Instances)
	assert.Equal(t, 10.0, *all.ExecutionTime)
	assert.InDelta(t, 0.3, *all.Throughput, 1e-12)
	require.NotNil(t, all.AverageDuration)
	assert.Equal(t, 6.0, *all.AverageDuration)

	billing := rows[1]
	assert.Equal(t, "billing", billing.ProcessDefinitionID)
	assert.Equal(t, 1, billing.Instances)
	assert.Equal(t, 9.0, *billing.ExecutionTime)
	assert.InDelta(t, 0.1, *billing.Throughput, 1e-12)
	assert.Nil(t, billing.AverageDuration)

	order := rows[2]
	assert.Equal(t, "order", order.ProcessDefinitionID)
	assert.Equal(t, 2, order.Instances)
	assert.Equal(t, 6.0, *order.ExecutionTime)
	assert.InDelta(t, 0.2, *order.Throughput, 1e-12)
}

func TestProcessMetrics_NoSpans(t *testing.T) {
	rows := ProcessMetrics("exp1", "exp1_1", []summary.ProcessSpan{span("a", "1", 0, 1, true)})

	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Instances)
	assert.Nil(t, rows[0].ExecutionTime)
	assert.Nil(t, rows[0].Throughput)
	assert.Nil(t, rows[0].AverageDuration)
}
