package main

import (
	"context"
	"fmt"
	"os"

	"trialstats/internal"
	"trialstats/internal/config"
	"trialstats/internal/container"
	"trialstats/internal/metrics"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd is the base command; every subcommand attaches to it.
var rootCmd = &cobra.Command{
	Use:   "trialstats",
	Short: "Summarize benchmark trials and experiments",
	Long: `trialstats reduces the raw samples of benchmark trials to per-trial
summaries, aggregates trial summaries into experiment summaries, tests
variance homogeneity across trials and derives process throughput.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads .env and the environment configuration
func bootstrap() (*config.Config, *internal.Logger, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level)), nil
}

// withDatabase builds a database-backed container, serves metrics while fn
// runs when enabled, and closes the connection afterwards
func withDatabase(ctx context.Context, fn func(ctx context.Context, c *container.Container) error) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := container.Connect(cfg)
	if err != nil {
		return err
	}

	c, err := container.New(cfg, logger)
	if err != nil {
		db.Close()
		return err
	}
	defer c.Close()

	if err := c.InitWithDatabase(db); err != nil {
		db.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	serveMetrics(ctx, c)

	return fn(ctx, c)
}

func serveMetrics(ctx context.Context, c *container.Container) {
	if !c.Config.Metrics.Enabled {
		return
	}
	srv := metrics.NewServer(c.Config.Metrics.Addr, c.Metrics, c.Logger)
	go func() {
		if err := srv.Run(ctx); err != nil {
			c.Logger.Error("Metrics server stopped: %v", err)
		}
	}()
}

// resolveFields turns a metric argument into its source and fields. A bare
// source name selects every field of the source.
func resolveFields(cfg *config.Config, metric string) (config.Source, []string, error) {
	if src, field, err := cfg.Analysers.ResolveMetric(metric); err == nil {
		return src, []string{field}, nil
	}
	src, err := cfg.Analysers.Source(metric)
	if err != nil {
		return config.Source{}, nil, err
	}
	return src, src.Fields, nil
}
