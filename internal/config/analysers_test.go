package config

import (
	"testing"

	"trialstats/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAnalysers(t *testing.T) {
	a, err := DefaultAnalysers()
	require.NoError(t, err)

	io, err := a.Source("io")
	require.NoError(t, err)
	assert.Equal(t, []string{"reads", "writes", "total"}, io.Fields)
	assert.True(t, io.Homogeneity)

	table := io.SampleTable()
	assert.Equal(t, "trial_io", table.Name)
	assert.Equal(t, "device", table.DiscriminatorColumn)
	assert.Equal(t, "ts", table.OrderBy)
	assert.Equal(t, "io.writes", io.Metric("writes"))

	size, err := a.Source("database_size")
	require.NoError(t, err)
	assert.Empty(t, size.Discriminator)
}

func TestResolveMetric(t *testing.T) {
	a, err := DefaultAnalysers()
	require.NoError(t, err)

	src, field, err := a.ResolveMetric("construct_duration.duration")
	require.NoError(t, err)
	assert.Equal(t, "construct_duration", src.Name)
	assert.Equal(t, "duration", field)

	_, _, err = a.ResolveMetric("io")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, _, err = a.ResolveMetric("io.latency")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, _, err = a.ResolveMetric("gpu.util")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestParseAnalysers_Validation(t *testing.T) {
	cases := map[string]string{
		"empty":          `sources: []`,
		"no name":        "sources:\n  - table: t\n    fields: [a]\n",
		"reserved name":  "sources:\n  - name: process\n    table: t\n    fields: [a]\n",
		"dotted name":    "sources:\n  - name: a.b\n    table: t\n    fields: [a]\n",
		"duplicate":      "sources:\n  - name: a\n    table: t\n    fields: [x]\n  - name: a\n    table: u\n    fields: [y]\n",
		"no table":       "sources:\n  - name: a\n    fields: [x]\n",
		"no fields":      "sources:\n  - name: a\n    table: t\n",
		"malformed yaml": "sources: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAnalysers([]byte(content))
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
