package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for session and run storage.
	DatabaseBackend string

	// Operation names a pipeline action that is tracked in the run store.
	Operation string

	// Outcome represents how a tracked operation finished.
	Outcome string

	// SnapshotSource tells where a displayed snapshot came from.
	SnapshotSource string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All tracked operations.
const (
	UploadOp  Operation = "upload"
	HistoryOp Operation = "history"
	ExportOp  Operation = "export"
	LoginOp   Operation = "login"
	SignupOp  Operation = "signup"
	LogoutOp  Operation = "logout"
)

// All run outcomes.
const (
	SucceededOutcome Outcome = "succeeded"
	FailedOutcome    Outcome = "failed"
	DegradedOutcome  Outcome = "degraded" // history fell back to an empty list
	DiscardedOutcome Outcome = "discarded"
)

// Snapshot sources.
const (
	UploadSource  SnapshotSource = "upload"
	HistorySource SnapshotSource = "history"
)

// Averages keys that every snapshot must carry.
const (
	PressureKey    = "pressure"
	TemperatureKey = "temperature"
	FlowrateKey    = "flowrate"
)

// RequiredAverageKeys lists the averages a snapshot cannot be displayed without.
var RequiredAverageKeys = []string{PressureKey, TemperatureKey}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// CSVMediaTypes lists the declared media types accepted as CSV.
var CSVMediaTypes = map[string]struct{}{
	"text/csv":                    {},
	"application/csv":             {},
	"text/comma-separated-values": {},
}
