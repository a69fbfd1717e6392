package schema

import "time"

// SessionStatus represents the status of the session store.
type SessionStatus struct {
	Backend     string    `json:"backend"`
	Connected   bool      `json:"connected"`
	HasSession  bool      `json:"has_session"`
	Username    string    `json:"username,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// RunStatus represents the status of the run store.
type RunStatus struct {
	Backend           string           `json:"backend"`
	Connected         bool             `json:"connected"`
	TotalRuns         int              `json:"total_runs"`
	LastRunID         int64            `json:"last_run_id"`
	LastRunTime       time.Time        `json:"last_run_time"`
	OldestRunTime     time.Time        `json:"oldest_run_time"`
	TotalObservations int              `json:"total_observations"`
	TableSizes        map[string]int64 `json:"table_sizes"`
}
