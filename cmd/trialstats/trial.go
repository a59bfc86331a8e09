package main

import (
	"context"
	"fmt"

	"trialstats/app"
	"trialstats/domain/core"
	"trialstats/internal/container"

	"github.com/spf13/cobra"
)

const processMetric = "process"

var trialFlags struct {
	experiment string
	trial      string
	metric     string
	host       string
}

var trialCmd = &cobra.Command{
	Use:   "trial",
	Short: "Summarize one trial",
	Long: `Summarize the raw samples of one trial for every discriminator of the
metric source and store the trial summaries.

--metric is either a source ("io") or one field of it ("io.total"). The
source "process" computes execution time and throughput instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, c *container.Container) error {
			out := cmd.OutOrStdout()

			if trialFlags.metric == processMetric {
				rows, err := c.ProcessService.ComputeTrial(ctx, trialFlags.experiment, trialFlags.trial)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "stored %d process metric rows\n", len(rows))
				return nil
			}

			src, fields, err := resolveFields(c.Config, trialFlags.metric)
			if err != nil {
				return err
			}
			experimentID := trialFlags.experiment
			if experimentID == "" {
				experimentID = core.ExperimentFromTrial(trialFlags.trial)
			}
			rows, err := c.TrialService.SummarizeTrial(ctx, app.TrialRequest{
				ExperimentID: experimentID,
				TrialID:      trialFlags.trial,
				HostID:       trialFlags.host,
				Source:       src,
				Fields:       fields,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "stored %d trial summaries\n", len(rows))
			return nil
		})
	},
}

func init() {
	f := trialCmd.Flags()
	f.StringVar(&trialFlags.experiment, "experiment", "", "experiment id (derived from the trial id when empty)")
	f.StringVar(&trialFlags.trial, "trial", "", "trial id")
	f.StringVar(&trialFlags.metric, "metric", "", "metric source or source.field")
	f.StringVar(&trialFlags.host, "host", "", "host id")
	_ = trialCmd.MarkFlagRequired("trial")
	_ = trialCmd.MarkFlagRequired("metric")
	rootCmd.AddCommand(trialCmd)
}
