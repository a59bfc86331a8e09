package main

import (
	"context"
	"encoding/json"

	"trialstats/adapters/excel"
	"trialstats/app"
	"trialstats/domain/summary"
	"trialstats/internal/container"
	"trialstats/internal/errors"

	"github.com/spf13/cobra"
)

var fileFlags struct {
	path        string
	metric      string
	host        string
	homogeneity bool
}

// fileReport is the JSON document printed by the file command
type fileReport struct {
	Trials      []summary.TrialSummary      `json:"trial_summaries"`
	Experiments []summary.ExperimentSummary `json:"experiment_summaries"`
	Homogeneity []summary.HomogeneityResult `json:"homogeneity,omitempty"`
}

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Summarize a sample file offline",
	Long: `Read raw samples from a CSV or XLSX file, summarize every trial of
every experiment in it, aggregate the experiments and print the results as
JSON. Nothing is written to the database.

Each XLSX sheet is a table named after the sheet; a CSV file is one table.
Rows need experiment_id and trial_id columns plus the source's fields.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		samples, err := excel.OpenFile(fileFlags.path, logger)
		if err != nil {
			return err
		}
		c, err := container.New(cfg, logger)
		if err != nil {
			return err
		}
		c.InitWithSource(samples)

		src, fields, err := resolveFields(cfg, fileFlags.metric)
		if err != nil {
			return err
		}
		experiments, err := samples.Experiments(src.SampleTable())
		if err != nil {
			return err
		}
		if len(experiments) == 0 {
			return errors.InvalidInput("no experiments found in " + fileFlags.path)
		}

		report := fileReport{}
		for _, experimentID := range experiments {
			trialIDs, err := samples.Trials(ctx, src.SampleTable(), experimentID)
			if err != nil {
				return err
			}
			for _, trialID := range trialIDs {
				rows, err := c.TrialService.SummarizeTrial(ctx, app.TrialRequest{
					ExperimentID: experimentID,
					TrialID:      trialID,
					HostID:       fileFlags.host,
					Source:       src,
					Fields:       fields,
				})
				if err != nil {
					return err
				}
				report.Trials = append(report.Trials, rows...)
			}

			for _, field := range fields {
				rows, err := c.ExperimentService.AggregateExperiment(ctx, experimentID, src.Metric(field))
				if err != nil {
					return err
				}
				report.Experiments = append(report.Experiments, rows...)

				if !fileFlags.homogeneity {
					continue
				}
				results, err := c.HomogeneityService.TestExperiment(ctx, app.HomogeneityRequest{
					ExperimentID: experimentID,
					HostID:       fileFlags.host,
					Source:       src,
					Field:        field,
				})
				if err != nil {
					return err
				}
				report.Homogeneity = append(report.Homogeneity, results...)
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	f := fileCmd.Flags()
	f.StringVar(&fileFlags.path, "path", "", "CSV or XLSX sample file")
	f.StringVar(&fileFlags.metric, "metric", "io", "metric source or source.field")
	f.StringVar(&fileFlags.host, "host", "", "only use rows of this host id")
	f.BoolVar(&fileFlags.homogeneity, "homogeneity", false, "also test variance homogeneity across trials")
	_ = fileCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(fileCmd)
}
