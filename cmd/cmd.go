// Package cmd defines the command-line interface for equipctl.
package cmd

import (
	"os"

	"github.com/chemflow/equipctl/core"
	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the session subcommands to the parent session command
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionClearCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("server-url", contract.DefaultServerURL, "Base URL of the equipment statistics service")
	rootCmd.PersistentFlags().String("timeout", contract.DefaultTimeout.String(), "Deadline for each request to the service (e.g. 30s, 2m)")
	rootCmd.PersistentFlags().String("auth-scheme", contract.DefaultAuthScheme, "Authorization header scheme (Token or Bearer)")
	rootCmd.PersistentFlags().String("token", "", "Credential overriding the stored session (prefer EQUIPCTL_TOKEN)")
	rootCmd.PersistentFlags().Float64("rate-limit", contract.DefaultRateLimit, "Maximum requests per second to the service (0 = unlimited)")
	rootCmd.PersistentFlags().Int("rate-burst", contract.DefaultRateBurst, "Burst size for the request rate limit")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("min-rows", contract.DefaultMinRows, "Snapshots with fewer rows show a no-data placeholder instead of a chart")
	rootCmd.PersistentFlags().String("session-backend", string(schema.SQLiteBackend), "Session backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("session-db-connect", "", "Database connection string for the session store (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run tracking (must differ from session-db-connect)")
	rootCmd.PersistentFlags().Bool("debug", false, "Write debug entries to the diagnostics log")
	rootCmd.PersistentFlags().String("log-file", "", "Diagnostics log file (default ~/.equipctl.log)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of uploadCmd to Viper
	uploadCmd.Flags().String("media-type", "", "Declared media type of the file (default derived from the extension)")
	uploadCmd.Flags().Bool("export", false, "Export a PDF report right after a successful upload")
	uploadCmd.Flags().String("image", "", "PNG chart image to embed instead of the rendered chart")
	uploadCmd.Flags().String("output-dir", ".", "Directory exported reports are saved into")
	if err := viper.BindPFlags(uploadCmd.Flags()); err != nil {
		contract.LogFatal("Error binding upload flags", err)
	}

	// Bind all flags of exportCmd to Viper
	exportCmd.Flags().Int("entry", contract.DefaultEntry, "1-based history entry to export")
	exportCmd.Flags().String("image", "", "PNG chart image to embed instead of the rendered chart")
	exportCmd.Flags().String("output-dir", ".", "Directory exported reports are saved into")
	if err := viper.BindPFlags(exportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding export flags", err)
	}

	// Credentials are read from the command flags only and never from config files
	loginCmd.Flags().String("username", "", "Account username")
	loginCmd.Flags().String("password", "", "Account password (prompted without echo when absent)")

	signupCmd.Flags().String("username", "", "Account username")
	signupCmd.Flags().String("password", "", "Account password (prompted without echo when absent)")
	signupCmd.Flags().String("first-name", "", "First name")
	signupCmd.Flags().String("last-name", "", "Last name")
	signupCmd.Flags().String("email", "", "Email address")
	signupCmd.Flags().String("role", "", "Role at the company")
	signupCmd.Flags().String("company", "", "Company name")

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}

// exitOnError exits with status 1 when err is set. Failures the user already saw
// as a notice exit quietly.
func exitOnError(msg string, err error) {
	if err == nil {
		return
	}
	if core.AlreadyReported(err) {
		os.Exit(1)
	}
	contract.LogFatal(msg, err)
}
