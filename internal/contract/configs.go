package contract

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chemflow/equipctl/schema"
)

// Default values for configuration.
const (
	DefaultServerURL  = "http://127.0.0.1:8000"
	DefaultTimeout    = 30 * time.Second
	DefaultAuthScheme = "Token"
	DefaultPrecision  = 2
	MaxPrecision      = 4
	DefaultMinRows    = 1
	DefaultRateLimit  = 5.0
	DefaultRateBurst  = 5
	DefaultEntry      = 1
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for every command.
// This struct remains the "final, validated" config.
type Config struct {
	ServerURL  string
	Timeout    time.Duration
	AuthScheme string
	Token      string // Overrides the stored session when set; please use env var
	RateLimit  float64
	RateBurst  int

	Output     schema.OutputMode
	OutputFile string
	OutputDir  string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	MinRows           int
	MediaType         string
	ImagePath         string
	ExportAfterUpload bool
	Entry             int

	SessionBackend   schema.DatabaseBackend
	SessionDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	Debug   bool
	LogFile string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	ServerURL        string  `mapstructure:"server-url"`
	Timeout          string  `mapstructure:"timeout"`
	AuthScheme       string  `mapstructure:"auth-scheme"`
	Token            string  `mapstructure:"token"`
	RateLimit        float64 `mapstructure:"rate-limit"`
	RateBurst        int     `mapstructure:"rate-burst"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Precision        int     `mapstructure:"precision"`
	Width            int     `mapstructure:"width"`
	Color            string  `mapstructure:"color"`
	MinRows          int     `mapstructure:"min-rows"`
	SessionBackend   string  `mapstructure:"session-backend"`
	SessionDBConnect string  `mapstructure:"session-db-connect"`
	RunsBackend      string  `mapstructure:"runs-backend"`
	RunsDBConnect    string  `mapstructure:"runs-db-connect"`
	Debug            bool    `mapstructure:"debug"`
	LogFile          string  `mapstructure:"log-file"`

	// --- Fields from uploadCmd.Flags() ---
	MediaType string `mapstructure:"media-type"`
	Export    bool   `mapstructure:"export"`

	// --- Fields shared by uploadCmd and exportCmd ---
	Image     string `mapstructure:"image"`
	OutputDir string `mapstructure:"output-dir"`

	// --- Fields from exportCmd.Flags() ---
	Entry int `mapstructure:"entry"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateServerInputs(cfg, input); err != nil {
		return err
	}
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// validateServerInputs handles the collaborator address, timeout and rate limit.
func validateServerInputs(cfg *Config, input *ConfigRawInput) error {
	raw := strings.TrimSpace(input.ServerURL)
	if raw == "" {
		raw = DefaultServerURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid server-url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server-url must use http or https (received %q)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("server-url must include a host (received %q)", raw)
	}
	cfg.ServerURL = strings.TrimRight(raw, "/")

	cfg.Timeout = DefaultTimeout
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", input.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be greater than 0 (received %s)", d)
		}
		cfg.Timeout = d
	}

	cfg.AuthScheme = strings.TrimSpace(input.AuthScheme)
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = DefaultAuthScheme
	}
	cfg.Token = strings.TrimSpace(input.Token)

	if input.RateLimit < 0 {
		return fmt.Errorf("rate-limit cannot be negative (received %v)", input.RateLimit)
	}
	cfg.RateLimit = input.RateLimit
	cfg.RateBurst = input.RateBurst
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	return nil
}

// validateSimpleInputs processes and validates the output and pipeline fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MediaType = strings.TrimSpace(input.MediaType)
	cfg.ImagePath = input.Image
	cfg.ExportAfterUpload = input.Export
	cfg.Debug = input.Debug
	cfg.LogFile = input.LogFile
	if cfg.LogFile == "" {
		cfg.LogFile = GetLogFilePath()
	}
	cfg.OutputDir = input.OutputDir
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Precision and Output Validation ---
	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	// --- 2. Pipeline Validation ---
	if input.MinRows < 0 {
		return fmt.Errorf("min-rows cannot be negative (received %d)", input.MinRows)
	}
	cfg.MinRows = input.MinRows

	if input.Entry < 0 {
		return fmt.Errorf("entry must be 1 or greater (received %d)", input.Entry)
	}
	cfg.Entry = input.Entry
	if cfg.Entry == 0 {
		cfg.Entry = DefaultEntry
	}

	return nil
}

// ParseBackend normalizes a backend name. Empty means the given fallback.
func ParseBackend(raw string, fallback schema.DatabaseBackend) (schema.DatabaseBackend, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", raw)
	}
	return backend, nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a db-connect string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a db-connect string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates session and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Session Backend Validation ---
	backend, err := ParseBackend(input.SessionBackend, schema.SQLiteBackend)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	cfg.SessionBackend = backend
	cfg.SessionDBConnect = input.SessionDBConnect
	if err := ValidateDatabaseConnectionString(cfg.SessionBackend, cfg.SessionDBConnect); err != nil {
		return err
	}

	// --- Runs Backend Validation ---
	backend, err = ParseBackend(input.RunsBackend, schema.NoneBackend)
	if err != nil {
		return fmt.Errorf("runs: %w", err)
	}
	cfg.RunsBackend = backend
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// SQLite files must differ so clearing one store never wipes the other
	if cfg.SessionBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		sessionPath := cfg.SessionDBConnect
		if sessionPath == "" {
			sessionPath = GetSessionDBFilePath()
		}
		runsPath := cfg.RunsDBConnect
		if runsPath == "" {
			runsPath = GetRunsDBFilePath()
		}
		if sessionPath == runsPath && sessionPath != ":memory:" {
			return fmt.Errorf("session and run storage must use different SQLite database files. Both resolve to %q", sessionPath)
		}
	}

	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
