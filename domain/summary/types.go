package summary

import (
	"fmt"
	"time"
)

// Unspecified is stored in place of an empty device or construct name
const Unspecified = "Unspecified"

// PercentilePoints is the length of a full percentile table (0..100)
const PercentilePoints = 101

// ExperimentKey identifies an experiment-level result row
type ExperimentKey struct {
	ExperimentID  string `json:"experiment_id" db:"experiment_id"`
	Discriminator string `json:"discriminator" db:"discriminator"` // device or construct name
	HostID        string `json:"host_id,omitempty" db:"host_id"`
}

// TrialKey identifies a trial-level result row
type TrialKey struct {
	ExperimentID  string `json:"experiment_id" db:"experiment_id"`
	TrialID       string `json:"trial_id" db:"trial_id"`
	Discriminator string `json:"discriminator" db:"discriminator"`
	HostID        string `json:"host_id,omitempty" db:"host_id"`
}

// Experiment returns the experiment-level key the trial rolls up into
func (k TrialKey) Experiment() ExperimentKey {
	return ExperimentKey{ExperimentID: k.ExperimentID, Discriminator: k.Discriminator, HostID: k.HostID}
}

// Trial returns the trial-level key for trialID under this experiment key
func (k ExperimentKey) Trial(trialID string) TrialKey {
	return TrialKey{ExperimentID: k.ExperimentID, TrialID: trialID, Discriminator: k.Discriminator, HostID: k.HostID}
}

func (k ExperimentKey) String() string {
	return fmt.Sprintf("%s/%s", k.ExperimentID, DiscriminatorOrUnspecified(k.Discriminator))
}

func (k TrialKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ExperimentID, k.TrialID, DiscriminatorOrUnspecified(k.Discriminator))
}

// DiscriminatorOrUnspecified maps an empty discriminator to Unspecified
func DiscriminatorOrUnspecified(d string) string {
	if d == "" {
		return Unspecified
	}
	return d
}

// TrialSummary holds the descriptive statistics of one trial's sample set.
// A summary with Count == 0 has every other statistic nil.
type TrialSummary struct {
	Key    TrialKey `json:"key"`
	Metric string   `json:"metric"`
	Count  int      `json:"num_data_points"`

	Mean     *float64 `json:"mean"`
	Variance *float64 `json:"variance"`
	StdDev   *float64 `json:"sd"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`

	Q1  *float64 `json:"q1"`
	Q2  *float64 `json:"q2"`
	Q3  *float64 `json:"q3"`
	P90 *float64 `json:"p90"`
	P95 *float64 `json:"p95"`
	P99 *float64 `json:"p99"`

	Percentiles []float64 `json:"percentiles"`

	MarginOfError *float64 `json:"me"`
	CI095Min      *float64 `json:"ci095_min"`
	CI095Max      *float64 `json:"ci095_max"`
	Integral      *float64 `json:"integral"`

	Mode     []float64 `json:"mode"`
	ModeFreq *int      `json:"mode_freq"`
}

// IsEmpty reports whether the summary was computed over no samples
func (s TrialSummary) IsEmpty() bool {
	return s.Count == 0
}

// ExperimentSummary combines the trial summaries of one experiment key.
// Every field is nil when no trial contributed data.
type ExperimentSummary struct {
	Key        ExperimentKey `json:"key"`
	Metric     string        `json:"metric"`
	TrialCount int           `json:"trial_count"`

	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	MeanMin *float64 `json:"mean_min"`
	MeanMax *float64 `json:"mean_max"`
	Q1Min   *float64 `json:"q1_min"`
	Q1Max   *float64 `json:"q1_max"`
	Q2Min   *float64 `json:"q2_min"`
	Q2Max   *float64 `json:"q2_max"`
	Q3Min   *float64 `json:"q3_min"`
	Q3Max   *float64 `json:"q3_max"`
	P90Min  *float64 `json:"p90_min"`
	P90Max  *float64 `json:"p90_max"`
	P95Min  *float64 `json:"p95_min"`
	P95Max  *float64 `json:"p95_max"`
	P99Min  *float64 `json:"p99_min"`
	P99Max  *float64 `json:"p99_max"`

	WeightedMean         *float64 `json:"weighted_avg"`
	VariationCoefficient *float64 `json:"variation_coefficient"`
	CombinedVariance     *float64 `json:"combined_variance"`
	CombinedMean         *float64 `json:"combined_mean"`

	Best    []string `json:"best"`
	Worst   []string `json:"worst"`
	Average []string `json:"average"`

	ModeMin     *float64 `json:"mode_min"`
	ModeMax     *float64 `json:"mode_max"`
	ModeMinFreq *int     `json:"mode_min_freq"`
	ModeMaxFreq *int     `json:"mode_max_freq"`
}

// IsEmpty reports whether no trial contributed to the summary
func (s ExperimentSummary) IsEmpty() bool {
	return s.TrialCount == 0
}

// HomogeneityResult holds Levene test outcomes for the three centering strategies
type HomogeneityResult struct {
	Key    ExperimentKey `json:"key"`
	Metric string        `json:"metric"`

	MeanP       *float64 `json:"levene_mean"`
	MeanStat    *float64 `json:"levene_mean_stat"`
	MedianP     *float64 `json:"levene_median"`
	MedianStat  *float64 `json:"levene_median_stat"`
	TrimmedP    *float64 `json:"levene_trimmed"`
	TrimmedStat *float64 `json:"levene_trimmed_stat"`
}

// IsNull reports whether the test produced no result
func (r HomogeneityResult) IsNull() bool {
	return r.MeanP == nil && r.MedianP == nil && r.TrimmedP == nil
}

// ProcessSpan is one recorded process instance of a trial
type ProcessSpan struct {
	ProcessDefinitionID string    `json:"process_definition_id" db:"process_definition_id"`
	InstanceID          string    `json:"source_process_instance_id" db:"source_process_instance_id"`
	Start               time.Time `json:"start_time" db:"start_time"`
	End                 time.Time `json:"end_time" db:"end_time"`
	Duration            *float64  `json:"duration" db:"duration"` // seconds as recorded; nil when not recorded
	ToIgnore            bool      `json:"to_ignore" db:"to_ignore"`
}

// AllProcesses is the process definition id of the whole-trial row
const AllProcesses = "all"

// TrialProcessMetrics holds execution time and throughput of a trial
type TrialProcessMetrics struct {
	ExperimentID        string   `json:"experiment_id" db:"experiment_id"`
	TrialID             string   `json:"trial_id" db:"trial_id"`
	ProcessDefinitionID string   `json:"process_definition_id" db:"process_definition_id"`
	Instances           int      `json:"number_of_process_instances" db:"number_of_process_instances"`
	ExecutionTime       *float64 `json:"execution_time" db:"execution_time"`
	Throughput          *float64 `json:"throughput" db:"throughput"`
	AverageDuration     *float64 `json:"process_duration_avg" db:"process_duration_avg"` // "all" row only
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}
