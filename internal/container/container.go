package container

import (
	"fmt"

	"trialstats/adapters/postgres"
	"trialstats/app"
	"trialstats/internal"
	"trialstats/internal/analysis"
	"trialstats/internal/config"
	"trialstats/internal/errors"
	"trialstats/internal/metrics"
	"trialstats/internal/testkit"
	"trialstats/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config  *config.Config
	Logger  *internal.Logger
	Metrics *metrics.Recorder

	// Infrastructure
	DB *sqlx.DB

	// Sources and stores
	Samples     ports.SampleSource
	Processes   ports.ProcessSource
	Trials      ports.TrialSummaryStore
	Experiments ports.ExperimentSummaryStore
	Homogeneity ports.HomogeneityStore
	ProcessRows ports.ProcessMetricsStore

	// Services
	TrialService       *app.TrialService
	ExperimentService  *app.ExperimentService
	HomogeneityService *app.HomogeneityService
	ProcessService     *app.ProcessService
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &Container{Config: cfg, Logger: logger, Metrics: metrics.NewRecorder()}, nil
}

// Connect opens the PostgreSQL database named by the configuration
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, fmt.Errorf("failed to connect to database: %w", err))
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	return db, nil
}

// InitWithDatabase wires the PostgreSQL repositories as sources and stores
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.Ping(); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, fmt.Errorf("database connection test failed: %w", err))
	}
	c.DB = db

	summaries := postgres.NewSummaryRepository(db)
	processes := postgres.NewProcessRepository(db)
	c.Samples = postgres.NewSampleRepository(db)
	c.Processes = processes
	c.Trials = summaries
	c.Experiments = summaries
	c.Homogeneity = summaries
	c.ProcessRows = processes

	c.initServices()
	c.Logger.Info("Container initialized with database connection")
	return nil
}

// InitWithSource wires a read-only sample source with in-memory stores, for
// offline runs over sample files
func (c *Container) InitWithSource(src ports.SampleSource) *testkit.MemoryStore {
	store := testkit.NewMemoryStore()
	c.Samples = src
	c.Processes = store
	c.Trials = store
	c.Experiments = store
	c.Homogeneity = store
	c.ProcessRows = store

	c.initServices()
	return store
}

func (c *Container) initServices() {
	opts := analysis.Options{
		MarginZ:        c.Config.Analysis.MarginZ,
		TrimProportion: c.Config.Analysis.TrimProportion,
	}
	workers := c.Config.Analysis.Workers

	c.TrialService = app.NewTrialService(c.Samples, c.Trials, opts, workers, c.Logger, c.Metrics)
	c.ExperimentService = app.NewExperimentService(c.Trials, c.Experiments, workers, c.Logger, c.Metrics)
	c.HomogeneityService = app.NewHomogeneityService(c.Samples, c.Homogeneity, opts, workers, c.Logger, c.Metrics)
	c.ProcessService = app.NewProcessService(c.Processes, c.ProcessRows, c.Logger, c.Metrics)
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
