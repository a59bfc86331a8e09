package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"trialstats/domain/core"
	"trialstats/domain/summary"
	"trialstats/ports"

	"github.com/jmoiron/sqlx"
)

var (
	trialKeyColumns = []string{"experiment_id", "trial_id", "discriminator", "host_id", "metric"}
	trialColumns    = append(append([]string(nil), trialKeyColumns...),
		"num_data_points", "mean", "variance", "sd", "min", "max",
		"q1", "q2", "q3", "p90", "p95", "p99",
		"me", "ci095_min", "ci095_max", "integral", "percentiles", "mode", "mode_freq")

	experimentKeyColumns = []string{"experiment_id", "discriminator", "host_id", "metric"}
	experimentColumns    = append(append([]string(nil), experimentKeyColumns...),
		"trial_count", "min", "max", "mean_min", "mean_max",
		"q1_min", "q1_max", "q2_min", "q2_max", "q3_min", "q3_max",
		"p90_min", "p90_max", "p95_min", "p95_max", "p99_min", "p99_max",
		"weighted_avg", "variation_coefficient", "combined_variance", "combined_mean",
		"best", "worst", "average", "mode_min", "mode_max", "mode_min_freq", "mode_max_freq")

	homogeneityColumns = append(append([]string(nil), experimentKeyColumns...),
		"levene_mean_p", "levene_mean_stat", "levene_median_p", "levene_median_stat",
		"levene_trimmed_p", "levene_trimmed_stat")

	upsertTrialSummary      = upsertSQL("trial_summaries", trialColumns, trialKeyColumns)
	upsertExperimentSummary = upsertSQL("experiment_summaries", experimentColumns, experimentKeyColumns)
	upsertHomogeneity       = upsertSQL("homogeneity_results", homogeneityColumns, experimentKeyColumns)
)

// upsertSQL renders a named INSERT that replaces the row with the same key
func upsertSQL(table string, columns, key []string) string {
	isKey := make(map[string]bool, len(key))
	for _, k := range key {
		isKey[k] = true
	}

	named := make([]string, len(columns))
	var updates []string
	for i, c := range columns {
		named[i] = ":" + c
		if !isKey[c] {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}
	updates = append(updates, "computed_at = NOW()")

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table,
		strings.Join(columns, ", "),
		strings.Join(named, ", "),
		strings.Join(key, ", "),
		strings.Join(updates, ", "))
}

// SummaryRepository stores trial summaries, experiment summaries and
// homogeneity results
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

var (
	_ ports.TrialSummaryStore      = (*SummaryRepository)(nil)
	_ ports.ExperimentSummaryStore = (*SummaryRepository)(nil)
	_ ports.HomogeneityStore       = (*SummaryRepository)(nil)
)

// SaveTrialSummaries upserts the rows in one transaction
func (r *SummaryRepository) SaveTrialSummaries(ctx context.Context, rows []summary.TrialSummary) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, s := range rows {
			if _, err := tx.NamedExecContext(ctx, upsertTrialSummary, toTrialRow(s)); err != nil {
				return fmt.Errorf("failed to save trial summary %s %s: %w", s.Key, s.Metric, err)
			}
		}
		return nil
	})
}

// ListTrialSummaries returns the trial summaries of one experiment key
func (r *SummaryRepository) ListTrialSummaries(ctx context.Context, key summary.ExperimentKey, metric string) ([]summary.TrialSummary, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM trial_summaries
		WHERE experiment_id = $1 AND discriminator = $2 AND host_id = $3 AND metric = $4
		ORDER BY trial_id`, strings.Join(trialColumns, ", "))

	var rows []trialSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, key.ExperimentID, key.Discriminator, key.HostID, metric); err != nil {
		return nil, fmt.Errorf("failed to list trial summaries of %s %s: %w", key, metric, err)
	}

	out := make([]summary.TrialSummary, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// ExperimentKeys lists the (discriminator, host) pairs summarized for an experiment
func (r *SummaryRepository) ExperimentKeys(ctx context.Context, experimentID, metric string) ([]summary.ExperimentKey, error) {
	query := `
		SELECT DISTINCT experiment_id, discriminator, host_id
		FROM trial_summaries
		WHERE experiment_id = $1 AND metric = $2
		ORDER BY discriminator, host_id`

	rows, err := r.db.QueryxContext(ctx, query, experimentID, metric)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiment keys of %s: %w", experimentID, err)
	}
	defer rows.Close()

	var keys []summary.ExperimentKey
	for rows.Next() {
		var k summary.ExperimentKey
		if err := rows.Scan(&k.ExperimentID, &k.Discriminator, &k.HostID); err != nil {
			return nil, fmt.Errorf("failed to scan experiment key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SaveExperimentSummary upserts one experiment summary
func (r *SummaryRepository) SaveExperimentSummary(ctx context.Context, s summary.ExperimentSummary) error {
	if _, err := r.db.NamedExecContext(ctx, upsertExperimentSummary, toExperimentRow(s)); err != nil {
		return fmt.Errorf("failed to save experiment summary %s %s: %w", s.Key, s.Metric, err)
	}
	return nil
}

// GetExperimentSummary loads one experiment summary
func (r *SummaryRepository) GetExperimentSummary(ctx context.Context, key summary.ExperimentKey, metric string) (*summary.ExperimentSummary, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM experiment_summaries
		WHERE experiment_id = $1 AND discriminator = $2 AND host_id = $3 AND metric = $4`,
		strings.Join(experimentColumns, ", "))

	var row experimentSummaryRow
	err := r.db.GetContext(ctx, &row, query, key.ExperimentID, key.Discriminator, key.HostID, metric)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("experiment summary", key.String()+" "+metric)
		}
		return nil, fmt.Errorf("failed to get experiment summary: %w", err)
	}

	s := row.toDomain()
	return &s, nil
}

// SaveHomogeneity upserts one homogeneity result
func (r *SummaryRepository) SaveHomogeneity(ctx context.Context, res summary.HomogeneityResult) error {
	if _, err := r.db.NamedExecContext(ctx, upsertHomogeneity, toHomogeneityRow(res)); err != nil {
		return fmt.Errorf("failed to save homogeneity result %s %s: %w", res.Key, res.Metric, err)
	}
	return nil
}
