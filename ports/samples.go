package ports

import (
	"context"

	"trialstats/domain/summary"
)

// SampleTable names a raw measurement table and how its rows are keyed
type SampleTable struct {
	Name                string
	DiscriminatorColumn string // empty when the table has no device/construct column
	OrderBy             string // column giving the recorded order; empty keeps storage order
}

// SampleQuery selects one numeric field of one trial. An empty Discriminator
// or HostID matches every row.
type SampleQuery struct {
	Table SampleTable
	Field string
	Key   summary.TrialKey
}

// SampleSource provides read-only access to raw benchmark samples
type SampleSource interface {
	// Samples returns the non-null values of the field in recorded order
	Samples(ctx context.Context, q SampleQuery) ([]float64, error)

	// Trials lists the trial ids recorded for an experiment
	Trials(ctx context.Context, table SampleTable, experimentID string) ([]string, error)

	// Discriminators lists the distinct discriminator values of one trial
	Discriminators(ctx context.Context, table SampleTable, experimentID, trialID string) ([]string, error)
}

// ProcessSource provides the process instance spans of a trial
type ProcessSource interface {
	Spans(ctx context.Context, experimentID, trialID string) ([]summary.ProcessSpan, error)
}
