package iostore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
)

// Table names for run tracking.
const (
	operationRunsTable = "equipctl_operation_runs"
	observationsTable  = "equipctl_snapshot_observations"
)

// RunTables lists the run tracking tables in creation order.
var RunTables = []string{operationRunsTable, observationsTable}

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetRunsDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("run store: %w", err)
	}
	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{operationRunsTable, getCreateOperationRunsQuery(backend)},
		{observationsTable, getCreateObservationsQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateOperationRunsQuery returns the CREATE TABLE query for equipctl_operation_runs.
func getCreateOperationRunsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(operationRunsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				operation VARCHAR(32) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				outcome VARCHAR(32),
				detail TEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				operation TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				outcome TEXT,
				detail TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				operation TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				outcome TEXT,
				detail TEXT
			);
		`, quoted)
	}
}

// getCreateObservationsQuery returns the CREATE TABLE query for equipctl_snapshot_observations.
func getCreateObservationsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(observationsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				observation_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_id BIGINT NOT NULL,
				source VARCHAR(32) NOT NULL,
				observed_at DATETIME(6) NOT NULL,
				created_at VARCHAR(64) NOT NULL,
				total_count INT NOT NULL,
				category_count INT NOT NULL,
				avg_pressure DOUBLE NOT NULL,
				avg_temperature DOUBLE NOT NULL,
				distribution TEXT NOT NULL
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				observation_id BIGSERIAL PRIMARY KEY,
				run_id BIGINT NOT NULL,
				source TEXT NOT NULL,
				observed_at TIMESTAMPTZ NOT NULL,
				created_at TEXT NOT NULL,
				total_count INT NOT NULL,
				category_count INT NOT NULL,
				avg_pressure DOUBLE PRECISION NOT NULL,
				avg_temperature DOUBLE PRECISION NOT NULL,
				distribution TEXT NOT NULL
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				observation_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id INTEGER NOT NULL,
				source TEXT NOT NULL,
				observed_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				total_count INTEGER NOT NULL,
				category_count INTEGER NOT NULL,
				avg_pressure REAL NOT NULL,
				avg_temperature REAL NOT NULL,
				distribution TEXT NOT NULL
			);
		`, quoted)
	}
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(op schema.Operation, startTime time.Time) (int64, error) {
	if rs.db == nil {
		return 0, nil
	}

	quoted := quoteTableName(operationRunsTable, rs.backend)
	var runID int64
	var err error
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (operation, start_time) VALUES ($1, $2) RETURNING run_id`, quoted)
		err = rs.db.QueryRow(query, string(op), formatTime(startTime, rs.backend)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (operation, start_time) VALUES (?, ?)`, quoted)
		var result sql.Result
		result, err = rs.db.Exec(query, string(op), formatTime(startTime, rs.backend))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, outcome schema.Outcome, detail string) error {
	if rs.db == nil {
		return nil
	}

	quoted := quoteTableName(operationRunsTable, rs.backend)
	startTime, err := rs.startTime(runID)
	if err != nil {
		return err
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	var detailArg any
	if detail != "" {
		detailArg = detail
	}

	query := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, outcome = %s, detail = %s WHERE run_id = %s`,
		quoted,
		placeholder(rs.backend, 1), placeholder(rs.backend, 2), placeholder(rs.backend, 3),
		placeholder(rs.backend, 4), placeholder(rs.backend, 5))
	if _, err := rs.db.Exec(query, formatTime(endTime, rs.backend), durationMs, string(outcome), detailArg, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// startTime reads the start time of a run.
func (rs *RunStoreImpl) startTime(runID int64) (time.Time, error) {
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`,
		quoteTableName(operationRunsTable, rs.backend), placeholder(rs.backend, 1))
	row := rs.db.QueryRow(query, runID)

	if rs.backend == schema.SQLiteBackend {
		var raw string
		if err := row.Scan(&raw); err != nil {
			return time.Time{}, fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
		}
		t, err := parseStoredTime(raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse start_time: %w", err)
		}
		return t, nil
	}

	var t time.Time
	if err := row.Scan(&t); err != nil {
		return time.Time{}, fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	return t, nil
}

// RecordObservation stores a snapshot that was displayed by the run.
func (rs *RunStoreImpl) RecordObservation(runID int64, source schema.SnapshotSource, snapshot schema.StatsSnapshot) error {
	if rs.db == nil {
		return nil
	}

	distribution, err := json.Marshal(snapshot.Distribution)
	if err != nil {
		return fmt.Errorf("failed to marshal distribution: %w", err)
	}
	pressure, _ := snapshot.Average(schema.PressureKey)
	temperature, _ := snapshot.Average(schema.TemperatureKey)

	args := []any{
		runID, string(source), formatTime(time.Now(), rs.backend), snapshot.CreatedAt,
		snapshot.TotalCount, snapshot.Distribution.Len(), pressure, temperature, string(distribution),
	}
	marks := make([]any, len(args))
	for i := range args {
		marks[i] = placeholder(rs.backend, i+1)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, source, observed_at, created_at, total_count,
		                category_count, avg_pressure, avg_temperature, distribution)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s)
	`, append([]any{quoteTableName(observationsTable, rs.backend)}, marks...)...)
	if _, err := rs.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.db == nil {
		return status, nil
	}

	runsTable := quoteTableName(operationRunsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", runsTable)
		oldestQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id ASC LIMIT 1", runsTable)

		var err error
		if status.LastRunID, status.LastRunTime, err = rs.scanRunTime(lastQuery); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if _, status.OldestRunTime, err = rs.scanRunTime(oldestQuery); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
	}

	for _, table := range RunTables {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))
		if err := rs.db.QueryRow(query).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalObservations = int(status.TableSizes[observationsTable])

	return status, nil
}

// scanRunTime runs a single-row (run_id, start_time) query.
func (rs *RunStoreImpl) scanRunTime(query string) (int64, time.Time, error) {
	row := rs.db.QueryRow(query)
	var id int64
	if rs.backend == schema.SQLiteBackend {
		var raw string
		if err := row.Scan(&id, &raw); err != nil {
			return 0, time.Time{}, err
		}
		t, err := parseStoredTime(raw)
		return id, t, err
	}
	var t time.Time
	err := row.Scan(&id, &t)
	return id, t, err
}

// GetAllRuns retrieves all runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, operation, start_time, end_time, run_duration_ms, outcome, detail FROM %s ORDER BY run_id",
		quoteTableName(operationRunsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		switch rs.backend {
		case schema.SQLiteBackend:
			var startRaw string
			var endRaw *string
			if err := rows.Scan(&record.RunID, &record.Operation, &startRaw, &endRaw, &record.RunDurationMs, &record.Outcome, &record.Detail); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartTime, err = parseStoredTime(startRaw); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endRaw != nil {
				end, err := parseStoredTime(*endRaw)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &end
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.Operation, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.Outcome, &record.Detail); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllObservations retrieves all snapshot observations from the store.
func (rs *RunStoreImpl) GetAllObservations() ([]schema.ObservationRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, source, observed_at, created_at, total_count, category_count,
		avg_pressure, avg_temperature, distribution FROM %s ORDER BY run_id, observation_id`,
		quoteTableName(observationsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ObservationRecord
	for rows.Next() {
		var record schema.ObservationRecord
		switch rs.backend {
		case schema.SQLiteBackend:
			var observedRaw string
			if err := rows.Scan(&record.RunID, &record.Source, &observedRaw, &record.CreatedAt, &record.TotalCount,
				&record.CategoryCount, &record.AvgPressure, &record.AvgTemperature, &record.Distribution); err != nil {
				return nil, fmt.Errorf("failed to scan observation: %w", err)
			}
			if record.ObservedAt, err = parseStoredTime(observedRaw); err != nil {
				return nil, fmt.Errorf("failed to parse observed_at: %w", err)
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.Source, &record.ObservedAt, &record.CreatedAt, &record.TotalCount,
				&record.CategoryCount, &record.AvgPressure, &record.AvgTemperature, &record.Distribution); err != nil {
				return nil, fmt.Errorf("failed to scan observation: %w", err)
			}
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}
	return results, nil
}
