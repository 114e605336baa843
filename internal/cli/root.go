// Package cli implements the graphmeta command-line interface.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"graphmeta/internal/admin"
	"graphmeta/internal/catalog"
	"graphmeta/internal/config"
	"graphmeta/internal/db"
	"graphmeta/internal/schemacache"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "graphmeta",
		Short:         "Catalog versioning and migration engine",
		Long:          "Administrative interface for the GraphQL-to-SQL metadata catalog: bootstrap, migrate, query, and tear down the catalog.",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newExecuteCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// app bundles the wired engine for one CLI invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *sql.DB
	engine   *catalog.Engine
	executor *admin.Executor
}

// setup loads config, opens the backing store, and wires the engine.
func setup() (*app, error) {
	_ = config.LoadDotEnv(".env")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	pool, err := db.OpenPostgres(cfg.DatabaseURL, cfg.MaxOpenConns)
	if err != nil {
		return nil, err
	}

	rebuilder := schemacache.New()
	executor := admin.NewExecutor(pool, admin.NewBuilder(), rebuilder,
		logger.With("component", "admin"))
	engine := catalog.New(pool, executor, rebuilder,
		logger.With("component", "catalog"))

	return &app{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		engine:   engine,
		executor: executor,
	}, nil
}

func (a *app) close() {
	_ = a.pool.Close()
}
