package postgres

import (
	"trialstats/domain/summary"

	"github.com/lib/pq"
)

// trialSummaryRow is the trial_summaries column layout
type trialSummaryRow struct {
	ExperimentID  string          `db:"experiment_id"`
	TrialID       string          `db:"trial_id"`
	Discriminator string          `db:"discriminator"`
	HostID        string          `db:"host_id"`
	Metric        string          `db:"metric"`
	Count         int             `db:"num_data_points"`
	Mean          *float64        `db:"mean"`
	Variance      *float64        `db:"variance"`
	StdDev        *float64        `db:"sd"`
	Min           *float64        `db:"min"`
	Max           *float64        `db:"max"`
	Q1            *float64        `db:"q1"`
	Q2            *float64        `db:"q2"`
	Q3            *float64        `db:"q3"`
	P90           *float64        `db:"p90"`
	P95           *float64        `db:"p95"`
	P99           *float64        `db:"p99"`
	MarginOfError *float64        `db:"me"`
	CI095Min      *float64        `db:"ci095_min"`
	CI095Max      *float64        `db:"ci095_max"`
	Integral      *float64        `db:"integral"`
	Percentiles   pq.Float64Array `db:"percentiles"`
	Mode          pq.Float64Array `db:"mode"`
	ModeFreq      *int            `db:"mode_freq"`
}

func toTrialRow(s summary.TrialSummary) trialSummaryRow {
	return trialSummaryRow{
		ExperimentID:  s.Key.ExperimentID,
		TrialID:       s.Key.TrialID,
		Discriminator: s.Key.Discriminator,
		HostID:        s.Key.HostID,
		Metric:        s.Metric,
		Count:         s.Count,
		Mean:          s.Mean,
		Variance:      s.Variance,
		StdDev:        s.StdDev,
		Min:           s.Min,
		Max:           s.Max,
		Q1:            s.Q1,
		Q2:            s.Q2,
		Q3:            s.Q3,
		P90:           s.P90,
		P95:           s.P95,
		P99:           s.P99,
		MarginOfError: s.MarginOfError,
		CI095Min:      s.CI095Min,
		CI095Max:      s.CI095Max,
		Integral:      s.Integral,
		Percentiles:   pq.Float64Array(s.Percentiles),
		Mode:          pq.Float64Array(s.Mode),
		ModeFreq:      s.ModeFreq,
	}
}

func (r trialSummaryRow) toDomain() summary.TrialSummary {
	return summary.TrialSummary{
		Key: summary.TrialKey{
			ExperimentID:  r.ExperimentID,
			TrialID:       r.TrialID,
			Discriminator: r.Discriminator,
			HostID:        r.HostID,
		},
		Metric:        r.Metric,
		Count:         r.Count,
		Mean:          r.Mean,
		Variance:      r.Variance,
		StdDev:        r.StdDev,
		Min:           r.Min,
		Max:           r.Max,
		Q1:            r.Q1,
		Q2:            r.Q2,
		Q3:            r.Q3,
		P90:           r.P90,
		P95:           r.P95,
		P99:           r.P99,
		MarginOfError: r.MarginOfError,
		CI095Min:      r.CI095Min,
		CI095Max:      r.CI095Max,
		Integral:      r.Integral,
		Percentiles:   []float64(r.Percentiles),
		Mode:          []float64(r.Mode),
		ModeFreq:      r.ModeFreq,
	}
}

// experimentSummaryRow is the experiment_summaries column layout
type experimentSummaryRow struct {
	ExperimentID         string         `db:"experiment_id"`
	Discriminator        string         `db:"discriminator"`
	HostID               string         `db:"host_id"`
	Metric               string         `db:"metric"`
	TrialCount           int            `db:"trial_count"`
	Min                  *float64       `db:"min"`
	Max                  *float64       `db:"max"`
	MeanMin              *float64       `db:"mean_min"`
	MeanMax              *float64       `db:"mean_max"`
	Q1Min                *float64       `db:"q1_min"`
	Q1Max                *float64       `db:"q1_max"`
	Q2Min                *float64       `db:"q2_min"`
	Q2Max                *float64       `db:"q2_max"`
	Q3Min                *float64       `db:"q3_min"`
	Q3Max                *float64       `db:"q3_max"`
	P90Min               *float64       `db:"p90_min"`
	P90Max               *float64       `db:"p90_max"`
	P95Min               *float64       `db:"p95_min"`
	P95Max               *float64       `db:"p95_max"`
	P99Min               *float64       `db:"p99_min"`
	P99Max               *float64       `db:"p99_max"`
	WeightedMean         *float64       `db:"weighted_avg"`
	VariationCoefficient *float64       `db:"variation_coefficient"`
	CombinedVariance     *float64       `db:"combined_variance"`
	CombinedMean         *float64       `db:"combined_mean"`
	Best                 pq.StringArray `db:"best"`
	Worst                pq.StringArray `db:"worst"`
	Average              pq.StringArray `db:"average"`
	ModeMin              *float64       `db:"mode_min"`
	ModeMax              *float64       `db:"mode_max"`
	ModeMinFreq          *int           `db:"mode_min_freq"`
	ModeMaxFreq          *int           `db:"mode_max_freq"`
}

func toExperimentRow(s summary.ExperimentSummary) experimentSummaryRow {
	return experimentSummaryRow{
		ExperimentID:         s.Key.ExperimentID,
		Discriminator:        s.Key.Discriminator,
		HostID:               s.Key.HostID,
		Metric:               s.Metric,
		TrialCount:           s.TrialCount,
		Min:                  s.Min,
		Max:                  s.Max,
		MeanMin:              s.MeanMin,
		MeanMax:              s.MeanMax,
		Q1Min:                s.Q1Min,
		Q1Max:                s.Q1Max,
		Q2Min:                s.Q2Min,
		Q2Max:                s.Q2Max,
		Q3Min:                s.Q3Min,
		Q3Max:                s.Q3Max,
		P90Min:               s.P90Min,
		P90Max:               s.P90Max,
		P95Min:               s.P95Min,
		P95Max:               s.P95Max,
		P99Min:               s.P99Min,
		P99Max:               s.P99Max,
		WeightedMean:         s.WeightedMean,
		VariationCoefficient: s.VariationCoefficient,
		CombinedVariance:     s.CombinedVariance,
		CombinedMean:         s.CombinedMean,
		Best:                 pq.StringArray(s.Best),
		Worst:                pq.StringArray(s.Worst),
		Average:              pq.StringArray(s.Average),
		ModeMin:              s.ModeMin,
		ModeMax:              s.ModeMax,
		ModeMinFreq:          s.ModeMinFreq,
		ModeMaxFreq:          s.ModeMaxFreq,
	}
}

func (r experimentSummaryRow) toDomain() summary.ExperimentSummary {
	return summary.ExperimentSummary{
		Key: summary.ExperimentKey{
			ExperimentID:  r.ExperimentID,
			Discriminator: r.Discriminator,
			HostID:        r.HostID,
		},
		Metric:               r.Metric,
		TrialCount:           r.TrialCount,
		Min:                  r.Min,
		Max:                  r.Max,
		MeanMin:              r.MeanMin,
		MeanMax:              r.MeanMax,
		Q1Min:                r.Q1Min,
		Q1Max:                r.Q1Max,
		Q2Min:                r.Q2Min,
		Q2Max:                r.Q2Max,
		Q3Min:                r.Q3Min,
		Q3Max:                r.Q3Max,
		P90Min:               r.P90Min,
		P90Max:               r.P90Max,
		P95Min:               r.P95Min,
		P95Max:               r.P95Max,
		P99Min:               r.P99Min,
		P99Max:               r.P99Max,
		WeightedMean:         r.WeightedMean,
		VariationCoefficient: r.VariationCoefficient,
		CombinedVariance:     r.CombinedVariance,
		CombinedMean:         r.CombinedMean,
		Best:                 []string(r.Best),
		Worst:                []string(r.Worst),
		Average:              []string(r.Average),
		ModeMin:              r.ModeMin,
		ModeMax:              r.ModeMax,
		ModeMinFreq:          r.ModeMinFreq,
		ModeMaxFreq:          r.ModeMaxFreq,
	}
}

// homogeneityRow is the homogeneity_results column layout
type homogeneityRow struct {
	ExperimentID  string   `db:"experiment_id"`
	Discriminator string   `db:"discriminator"`
	HostID        string   `db:"host_id"`
	Metric        string   `db:"metric"`
	MeanP         *float64 `db:"levene_mean_p"`
	MeanStat      *float64 `db:"levene_mean_stat"`
	MedianP       *float64 `db:"levene_median_p"`
	MedianStat    *float64 `db:"levene_median_stat"`
	TrimmedP      *float64 `db:"levene_trimmed_p"`
	TrimmedStat   *float64 `db:"levene_trimmed_stat"`
}

func toHomogeneityRow(r summary.HomogeneityResult) homogeneityRow {
	return homogeneityRow{
		ExperimentID:  r.Key.ExperimentID,
		Discriminator: r.Key.Discriminator,
		HostID:        r.Key.HostID,
		Metric:        r.Metric,
		MeanP:         r.MeanP,
		MeanStat:      r.MeanStat,
		MedianP:       r.MedianP,
		MedianStat:    r.MedianStat,
		TrimmedP:      r.TrimmedP,
		TrimmedStat:   r.TrimmedStat,
	}
}
