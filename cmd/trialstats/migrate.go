package main

import (
	"context"
	"fmt"

	"trialstats/adapters/postgres/migrations"
	"trialstats/internal/container"

	"github.com/spf13/cobra"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Apply every embedded schema migration that has not run yet.
With --status, list the migrations and whether each has been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, c *container.Container) error {
			migrator := migrations.NewMigrator(c.DB.DB, c.Logger)
			out := cmd.OutOrStdout()

			if migrateStatus {
				status, err := migrator.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range status {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Fprintf(out, "%s\t%s\n", s.Version, state)
				}
				return nil
			}

			applied, err := migrator.Up(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "applied %d migrations\n", len(applied))
			return nil
		})
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "list migrations instead of applying them")
	rootCmd.AddCommand(migrateCmd)
}
