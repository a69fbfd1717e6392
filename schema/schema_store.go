package schema

import "time"

// RunRecord represents a row from the equipctl_operation_runs table.
type RunRecord struct {
	RunID         int64
	Operation     string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	Outcome       *string
	Detail        *string
}

// ObservationRecord represents a row from the equipctl_snapshot_observations table.
type ObservationRecord struct {
	RunID          int64
	Source         string
	ObservedAt     time.Time
	CreatedAt      string
	TotalCount     int64
	CategoryCount  int64
	AvgPressure    float64
	AvgTemperature float64
	Distribution   string // JSON encoded
}
