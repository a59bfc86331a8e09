package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"trialstats/domain/summary"
	"trialstats/internal/errors"
	"trialstats/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const ioCSV = `experiment_id,trial_id,host_id,device,reads,writes
e1,e1_1,h1,sda,3,10
e1,e1_1,h1,sdb,7,
e1,e1_1,h1,sda,1,12
e1,e1_2,h1,sda,5,11
e1,e1_2,h2,sda,9,14
e2,e2_1,h1,sda,100,100
`

var ioTable = ports.SampleTable{Name: "trial_io", DiscriminatorColumn: "device"}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "samples.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_CSVSamples(t *testing.T) {
	src, err := OpenFile(writeCSV(t, ioCSV), nil)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := src.Samples(ctx, ports.SampleQuery{
		Table: ioTable,
		Field: "reads",
		Key:   summary.TrialKey{ExperimentID: "e1", TrialID: "e1_1", Discriminator: "sda"},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, got, "recorded order is kept")

	got, err = src.Samples(ctx, ports.SampleQuery{
		Table: ioTable,
		Field: "writes",
		Key:   summary.TrialKey{ExperimentID: "e1", TrialID: "e1_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 12}, got, "blank cells are skipped")

	got, err = src.Samples(ctx, ports.SampleQuery{
		Table: ioTable,
		Field: "reads",
		Key:   summary.TrialKey{ExperimentID: "e1", TrialID: "e1_2", HostID: "h2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, got)
}

func TestFileSource_Listing(t *testing.T) {
	src, err := OpenFile(writeCSV(t, ioCSV), nil)
	require.NoError(t, err)
	ctx := context.Background()

	trials, err := src.Trials(ctx, ioTable, "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e1_1", "e1_2"}, trials)

	devices, err := src.Discriminators(ctx, ioTable, "e1", "e1_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sda", "sdb"}, devices)

	none, err := src.Discriminators(ctx, ports.SampleTable{Name: "trial_io"}, "e1", "e1_1")
	require.NoError(t, err)
	assert.Nil(t, none)

	experiments, err := src.Experiments(ioTable)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, experiments)
}

func TestFileSource_Errors(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.csv"), nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeSourceError, errors.GetCode(err))

	_, err = OpenFile(writeCSV(t, "a,b\n1,2\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "experiment_id")

	src, err := OpenFile(writeCSV(t, "experiment_id,trial_id,reads\ne1,e1_1,fast\n"), nil)
	require.NoError(t, err)
	_, err = src.Samples(context.Background(), ports.SampleQuery{
		Field: "reads",
		Key:   summary.TrialKey{ExperimentID: "e1", TrialID: "e1_1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")

	_, err = src.Samples(context.Background(), ports.SampleQuery{
		Field: "writes",
		Key:   summary.TrialKey{ExperimentID: "e1", TrialID: "e1_1"},
	})
	assert.Error(t, err)
}

func TestFileSource_XLSXSheetsAreTables(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "trial_io"))
	require.NoError(t, f.SetSheetRow("trial_io", "A1", &[]interface{}{"experiment_id", "trial_id", "device", "reads"}))
	require.NoError(t, f.SetSheetRow("trial_io", "A2", &[]interface{}{"e1", "e1_1", "sda", 4.5}))
	require.NoError(t, f.SetSheetRow("trial_io", "A3", &[]interface{}{"e1", "e1_1", "sda", 5.5}))

	_, err := f.NewSheet("trial_database_size")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("trial_database_size", "A1", &[]interface{}{"experiment_id", "trial_id", "size"}))
	require.NoError(t, f.SetSheetRow("trial_database_size", "A2", &[]interface{}{"e1", "e1_1", 2048}))

	path := filepath.Join(t.TempDir(), "samples.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	src, err := OpenFile(path, nil)
	require.NoError(t, err)
	ctx := context.Background()

	reads, err := src.Samples(ctx, ports.SampleQuery{
		Table: ioTable,
		Field: "reads",
		Key:   summary.TrialKey{ExperimentID: "e1", TrialID: "e1_1", Discriminator: "sda"},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{4.5, 5.5}, reads)

	size, err := src.Samples(ctx, ports.SampleQuery{
		Table: ports.SampleTable{Name: "trial_database_size"},
		Field: "size",
		Key:   summary.TrialKey{ExperimentID: "e1", TrialID: "e1_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{2048}, size)

	_, err = src.Trials(ctx, ports.SampleTable{Name: "trial_cpu"}, "e1")
	assert.Error(t, err)
}
