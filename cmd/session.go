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

// sessionSetup loads minimal configuration needed for session store operations.
// This is used by commands that need session access without full shared setup.
func sessionSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, err := contract.ParseBackend(viper.GetString("session-backend"), schema.SQLiteBackend)
	if err != nil {
		return err
	}
	connStr := viper.GetString("session-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize the session store only (no run tracking for session commands)
	if err := iostore.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	cfg.SessionBackend = backend
	cfg.SessionDBConnect = connStr

	return nil
}

// sessionSetupWrapper wraps sessionSetup to provide PreRunE for session commands.
func sessionSetupWrapper(_ *cobra.Command, _ []string) error {
	return sessionSetup()
}

// sessionCmd focused on session store management.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the stored sign-in session",
	Long: `Manage the session written by 'equipctl login'.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (kept in memory for one command)

Subcommands:
  status - Show session store details
  clear  - Remove the stored session without contacting the service

Examples:
  equipctl session status
  equipctl session clear`,
}

// sessionClearCmd clears the session store.
var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored session",
	Long: `Delete the stored session from the configured backend without calling the service.
Use 'equipctl logout' to also invalidate the token remotely.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the session table`,
	PreRunE: sessionSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Close first so the SQLite file is not held open while it is removed
		iostore.CloseStores()
		path := sqliteFilePath(cfg.SessionDBConnect, contract.GetSessionDBFilePath())
		if err := iostore.ClearSessions(cfg.SessionBackend, path, cfg.SessionDBConnect); err != nil {
			contract.LogFatal("Failed to clear session", err)
		}
		fmt.Println("Session cleared successfully.")
	},
}

// sessionStatusCmd shows session store status.
var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display session store details",
	Long: `Show the session backend, its connection state and whether a session is stored.
The token itself is never printed.`,
	PreRunE: sessionSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iostore.Manager.GetSessionStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get session status", err)
		}
		iostore.PrintSessionStatus(os.Stdout, status)
	},
}
