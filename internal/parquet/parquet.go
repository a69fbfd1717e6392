// Package parquet provides data structures and functions for exporting equipctl
// history and run tracking data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/chemflow/equipctl/schema"
	"github.com/parquet-go/parquet-go"
)

// OperationRun maps to the equipctl_operation_runs table.
type OperationRun struct {
	RunID         int64      `parquet:"run_id,snappy"`
	Operation     string     `parquet:"operation,snappy,dict"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	Outcome       *string    `parquet:"outcome,optional,snappy,dict"`
	Detail        *string    `parquet:"detail,optional,snappy"`
}

// SnapshotObservation maps to the equipctl_snapshot_observations table.
type SnapshotObservation struct {
	RunID          int64     `parquet:"run_id,snappy"`
	Source         string    `parquet:"source,snappy,dict"`
	ObservedAt     time.Time `parquet:"observed_at,snappy"`
	CreatedAt      string    `parquet:"created_at,snappy"`
	TotalCount     int64     `parquet:"total_count,snappy"`
	CategoryCount  int64     `parquet:"category_count,snappy"`
	AvgPressure    float64   `parquet:"avg_pressure,snappy"`
	AvgTemperature float64   `parquet:"avg_temperature,snappy"`

	// Distribution is the JSON encoded labels/values pair
	Distribution string `parquet:"distribution,snappy"`
}

// HistoryRow is one history entry flattened for analysis tools.
type HistoryRow struct {
	Position       int64    `parquet:"position,snappy"`
	CreatedAt      string   `parquet:"created_at,snappy"`
	TotalCount     int64    `parquet:"total_count,snappy"`
	AvgPressure    float64  `parquet:"avg_pressure,snappy"`
	AvgTemperature float64  `parquet:"avg_temperature,snappy"`
	AvgFlowrate    *float64 `parquet:"avg_flowrate,optional,snappy"`
	Labels         []string `parquet:"labels,list"`
	Values         []int64  `parquet:"values,list"`
}

// writeParquet writes rows to outputPath using the schema inferred from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteOperationRunsParquet writes run records to a Parquet file.
func WriteOperationRunsParquet(data []OperationRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteObservationsParquet writes snapshot observations to a Parquet file.
func WriteObservationsParquet(data []SnapshotObservation, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteHistoryParquet writes history rows to a Parquet file.
func WriteHistoryParquet(data []HistoryRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to OperationRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []OperationRun {
	result := make([]OperationRun, len(records))
	for i, record := range records {
		result[i] = OperationRun{
			RunID:         record.RunID,
			Operation:     record.Operation,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			Outcome:       record.Outcome,
			Detail:        record.Detail,
		}
	}
	return result
}

// ConvertObservationRecords converts schema.ObservationRecord to SnapshotObservation for Parquet export.
func ConvertObservationRecords(records []schema.ObservationRecord) []SnapshotObservation {
	result := make([]SnapshotObservation, len(records))
	for i, record := range records {
		result[i] = SnapshotObservation{
			RunID:          record.RunID,
			Source:         record.Source,
			ObservedAt:     record.ObservedAt,
			CreatedAt:      record.CreatedAt,
			TotalCount:     record.TotalCount,
			CategoryCount:  record.CategoryCount,
			AvgPressure:    record.AvgPressure,
			AvgTemperature: record.AvgTemperature,
			Distribution:   record.Distribution,
		}
	}
	return result
}

// ConvertHistoryEntries flattens history entries into Parquet rows.
func ConvertHistoryEntries(entries []schema.HistoryEntry) []HistoryRow {
	result := make([]HistoryRow, len(entries))
	for i, entry := range entries {
		pressure, _ := entry.Average(schema.PressureKey)
		temperature, _ := entry.Average(schema.TemperatureKey)
		row := HistoryRow{
			Position:       int64(entry.Position),
			CreatedAt:      entry.CreatedAt,
			TotalCount:     int64(entry.TotalCount),
			AvgPressure:    pressure,
			AvgTemperature: temperature,
			Labels:         append([]string(nil), entry.Distribution.Labels...),
			Values:         make([]int64, len(entry.Distribution.Values)),
		}
		if flow, ok := entry.Average(schema.FlowrateKey); ok {
			row.AvgFlowrate = &flow
		}
		for j, v := range entry.Distribution.Values {
			row.Values[j] = int64(v)
		}
		result[i] = row
	}
	return result
}
