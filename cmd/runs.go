package cmd

import (
	"fmt"
	"os"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/iostore"
	"github.com/chemflow/equipctl/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsBackendFromConfig resolves the run tracking backend. Empty means none.
func runsBackendFromConfig() (schema.DatabaseBackend, string, error) {
	backend, err := contract.ParseBackend(viper.GetString("runs-backend"), schema.NoneBackend)
	if err != nil {
		return "", "", err
	}
	connStr := viper.GetString("runs-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for run tracking operations.
// This is used by commands that need run store access without full shared setup.
func runsSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := runsBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize the run store only (no session for runs commands)
	if err := iostore.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run tracking: %w", err)
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func runsMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := runsBackendFromConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetRunsDBFilePath()
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	return nil
}

// runsMigrateSetupWrapper wraps runsMigrateSetup to provide PreRunE for migrate command.
func runsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsMigrateSetup()
}

// runsCmd focused on run tracking management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the operation run log and snapshot observations",
	Long: `Manage the local audit trail of pipeline operations.

When a runs backend is configured, equipctl records every upload, history fetch,
export and sign-in with its outcome and duration, plus each snapshot that was
displayed. The data is never read back for display; it is there for auditing and BI.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show run tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Enable tracking for one command
  EQUIPCTL_RUNS_BACKEND=sqlite equipctl upload plant.csv

  # Export for analysis in pandas/DuckDB
  equipctl runs export --runs-backend sqlite --output-file equipctl`,
}

// runsClearCmd clears the run tracking data.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run tracking data",
	Long: `Delete all stored operation runs and snapshot observations.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the run, observation and migration tables`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iostore.CloseStores()
		path := sqliteFilePath(cfg.RunsDBConnect, contract.GetRunsDBFilePath())
		if err := iostore.ClearRuns(cfg.RunsBackend, path, cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear run data", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

// runsStatusCmd shows run tracking status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show the run tracking backend, its connection state, the number of runs and
observations stored, the oldest and newest run, and table sizes.`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iostore.Manager.GetRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iostore.PrintRunStatus(os.Stdout, status)
	},
}

// runsExportCmd exports run tracking data to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run tracking data to Parquet for BI tools",
	Long: `Export the operation runs and snapshot observations as two Parquet files named
<output-file>.operation_runs.parquet and <output-file>.snapshot_observations.parquet.

Requires: --output-file parameter

Examples:
  equipctl runs export --output-file equipctl
  duckdb -c "SELECT operation, outcome, count(*) FROM 'equipctl.operation_runs.parquet' GROUP BY ALL"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iostore.ExportRuns(os.Stdout, iostore.Manager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run data", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  equipctl runs migrate --runs-backend sqlite

  # Rollback to the initial state
  equipctl runs migrate --runs-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iostore.MigrateRuns(os.Stdout, cfg.RunsBackend, cfg.RunsDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
