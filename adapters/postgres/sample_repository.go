package postgres

import (
	"context"
	"fmt"
	"strings"

	"trialstats/domain/summary"
	"trialstats/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SampleRepository reads raw measurements from the collector tables. Table
// and column names come from the analysers configuration and are always
// quoted.
type SampleRepository struct {
	db *sqlx.DB
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(db *sqlx.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

var _ ports.SampleSource = (*SampleRepository)(nil)

// Samples returns the non-null values of one field for one trial
func (r *SampleRepository) Samples(ctx context.Context, q ports.SampleQuery) ([]float64, error) {
	query, args := buildSampleQuery(q)

	var values []float64
	if err := r.db.SelectContext(ctx, &values, query, args...); err != nil {
		return nil, fmt.Errorf("failed to read %s.%s for %s: %w", q.Table.Name, q.Field, q.Key, err)
	}
	return values, nil
}

// Trials lists the trial ids recorded for an experiment
func (r *SampleRepository) Trials(ctx context.Context, table ports.SampleTable, experimentID string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT trial_id FROM %s WHERE experiment_id = $1 ORDER BY trial_id",
		pq.QuoteIdentifier(table.Name))

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, experimentID); err != nil {
		return nil, fmt.Errorf("failed to list trials of %s in %s: %w", experimentID, table.Name, err)
	}
	return ids, nil
}

// Discriminators lists the distinct discriminator values recorded for a
// trial. Tables without a discriminator column have none.
func (r *SampleRepository) Discriminators(ctx context.Context, table ports.SampleTable, experimentID, trialID string) ([]string, error) {
	if table.DiscriminatorColumn == "" {
		return nil, nil
	}
	col := pq.QuoteIdentifier(table.DiscriminatorColumn)
	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM %s WHERE experiment_id = $1 AND trial_id = $2 ORDER BY %s",
		col, pq.QuoteIdentifier(table.Name), col)

	var values []string
	if err := r.db.SelectContext(ctx, &values, query, experimentID, trialID); err != nil {
		return nil, fmt.Errorf("failed to list %s of %s in %s: %w", table.DiscriminatorColumn, trialID, table.Name, err)
	}
	return values, nil
}

// buildSampleQuery renders the select for one field; empty discriminator and
// host filters are left out
func buildSampleQuery(q ports.SampleQuery) (string, []interface{}) {
	field := pq.QuoteIdentifier(q.Field)

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE experiment_id = $1 AND trial_id = $2 AND %s IS NOT NULL",
		field, pq.QuoteIdentifier(q.Table.Name), field)
	args := []interface{}{q.Key.ExperimentID, q.Key.TrialID}

	if q.Key.HostID != "" {
		args = append(args, q.Key.HostID)
		fmt.Fprintf(&b, " AND host_id = $%d", len(args))
	}
	if q.Table.DiscriminatorColumn != "" && q.Key.Discriminator != "" {
		args = append(args, q.Key.Discriminator)
		fmt.Fprintf(&b, " AND %s = $%d", pq.QuoteIdentifier(q.Table.DiscriminatorColumn), len(args))
	}
	if q.Table.OrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", pq.QuoteIdentifier(q.Table.OrderBy))
	}
	return b.String(), args
}

// ProcessRepository reads process instance spans
type ProcessRepository struct {
	db *sqlx.DB
}

// NewProcessRepository creates a new process repository
func NewProcessRepository(db *sqlx.DB) *ProcessRepository {
	return &ProcessRepository{db: db}
}

var (
	_ ports.ProcessSource       = (*ProcessRepository)(nil)
	_ ports.ProcessMetricsStore = (*ProcessRepository)(nil)
)

// Spans returns every span recorded for a trial
func (r *ProcessRepository) Spans(ctx context.Context, experimentID, trialID string) ([]summary.ProcessSpan, error) {
	query := `
		SELECT COALESCE(process_definition_id, '') AS process_definition_id,
			   source_process_instance_id, start_time, end_time, duration, to_ignore
		FROM process_spans
		WHERE experiment_id = $1 AND trial_id = $2`

	var spans []summary.ProcessSpan
	if err := r.db.SelectContext(ctx, &spans, query, experimentID, trialID); err != nil {
		return nil, fmt.Errorf("failed to read process spans of %s: %w", trialID, err)
	}
	return spans, nil
}

// SaveProcessMetrics replaces the process metric rows of the given trials
func (r *ProcessRepository) SaveProcessMetrics(ctx context.Context, rows []summary.TrialProcessMetrics) error {
	query := `
		INSERT INTO trial_process_metrics (
			experiment_id, trial_id, process_definition_id, number_of_process_instances,
			execution_time, throughput, process_duration_avg
		) VALUES (:experiment_id, :trial_id, :process_definition_id, :number_of_process_instances,
			:execution_time, :throughput, :process_duration_avg)
		ON CONFLICT (experiment_id, trial_id, process_definition_id) DO UPDATE SET
			number_of_process_instances = EXCLUDED.number_of_process_instances,
			execution_time = EXCLUDED.execution_time,
			throughput = EXCLUDED.throughput,
			process_duration_avg = EXCLUDED.process_duration_avg,
			computed_at = NOW()`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				return fmt.Errorf("failed to save process metrics %s/%s: %w", row.TrialID, row.ProcessDefinitionID, err)
			}
		}
		return nil
	})
}

// withTx runs fn in a transaction, committing only when fn succeeds
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
