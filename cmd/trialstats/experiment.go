package main

import (
	"context"
	"fmt"

	"trialstats/app"
	"trialstats/internal/container"
	"trialstats/internal/errors"

	"github.com/spf13/cobra"
)

var experimentFlags struct {
	experiment  string
	metric      string
	homogeneity bool
	host        string
}

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Aggregate the trial summaries of an experiment",
	Long: `Aggregate the stored trial summaries of an experiment into one
experiment summary per discriminator and host.

With --homogeneity, also run Levene's test across the raw samples of the
trials and store the statistics and p-values.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if experimentFlags.metric == processMetric {
			return errors.InvalidInput("process metrics are computed per trial only")
		}
		return withDatabase(cmd.Context(), func(ctx context.Context, c *container.Container) error {
			out := cmd.OutOrStdout()

			src, fields, err := resolveFields(c.Config, experimentFlags.metric)
			if err != nil {
				return err
			}

			for _, field := range fields {
				metric := src.Metric(field)
				rows, err := c.ExperimentService.AggregateExperiment(ctx, experimentFlags.experiment, metric)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: stored %d experiment summaries\n", metric, len(rows))

				if !experimentFlags.homogeneity {
					continue
				}
				results, err := c.HomogeneityService.TestExperiment(ctx, app.HomogeneityRequest{
					ExperimentID: experimentFlags.experiment,
					HostID:       experimentFlags.host,
					Source:       src,
					Field:        field,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: stored %d homogeneity results\n", metric, len(results))
			}
			return nil
		})
	},
}

func init() {
	f := experimentCmd.Flags()
	f.StringVar(&experimentFlags.experiment, "experiment", "", "experiment id")
	f.StringVar(&experimentFlags.metric, "metric", "", "metric source or source.field")
	f.BoolVar(&experimentFlags.homogeneity, "homogeneity", false, "also test variance homogeneity across trials")
	f.StringVar(&experimentFlags.host, "host", "", "host id for the homogeneity test")
	_ = experimentCmd.MarkFlagRequired("experiment")
	_ = experimentCmd.MarkFlagRequired("metric")
	rootCmd.AddCommand(experimentCmd)
}
