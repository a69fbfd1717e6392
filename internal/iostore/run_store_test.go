package iostore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/chemflow/equipctl/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() schema.StatsSnapshot {
	return schema.StatsSnapshot{
		TotalCount:   42,
		Averages:     map[string]float64{"pressure": 24.5, "temperature": 88.1},
		Distribution: schema.Distribution{Labels: []string{"Reactor", "Tank"}, Values: []int{30, 12}},
		CreatedAt:    "2024-05-01T10:00:00Z",
	}
}

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(schema.UploadOp, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.EndRun(runID, time.Now(), schema.SucceededOutcome, ""))
	assert.NoError(t, store.RecordObservation(runID, schema.UploadSource, sampleSnapshot()))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, store.Close())
}

func TestRunStore_SQLite(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Now().Add(-2 * time.Second)
	runID, err := store.BeginRun(schema.UploadOp, start)
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	require.NoError(t, store.RecordObservation(runID, schema.UploadSource, sampleSnapshot()))
	require.NoError(t, store.EndRun(runID, start.Add(1500*time.Millisecond), schema.SucceededOutcome, ""))

	failedID, err := store.BeginRun(schema.ExportOp, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.EndRun(failedID, time.Now(), schema.FailedOutcome, "export: timeout"))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "upload", runs[0].Operation)
	require.NotNil(t, runs[0].RunDurationMs)
	assert.Equal(t, int32(1500), *runs[0].RunDurationMs)
	require.NotNil(t, runs[0].Outcome)
	assert.Equal(t, "succeeded", *runs[0].Outcome)
	assert.Nil(t, runs[0].Detail)
	require.NotNil(t, runs[0].EndTime)

	assert.Equal(t, "export", runs[1].Operation)
	require.NotNil(t, runs[1].Detail)
	assert.Equal(t, "export: timeout", *runs[1].Detail)

	observations, err := store.GetAllObservations()
	require.NoError(t, err)
	require.Len(t, observations, 1)
	obs := observations[0]
	assert.Equal(t, runID, obs.RunID)
	assert.Equal(t, "upload", obs.Source)
	assert.Equal(t, int64(42), obs.TotalCount)
	assert.Equal(t, int64(2), obs.CategoryCount)
	assert.InDelta(t, 24.5, obs.AvgPressure, 1e-9)

	var dist schema.Distribution
	require.NoError(t, json.Unmarshal([]byte(obs.Distribution), &dist))
	assert.Equal(t, []string{"Reactor", "Tank"}, dist.Labels)
}

func TestRunStore_EndUnknownRun(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.EndRun(999, time.Now(), schema.SucceededOutcome, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "run 999")
}

func TestRunStore_Status(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[operationRunsTable])

	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := range 3 {
		id, err := store.BeginRun(schema.HistoryOp, first.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, store.RecordObservation(id, schema.HistorySource, sampleSnapshot()))
	}

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, int64(3), status.LastRunID)
	assert.True(t, status.LastRunTime.Equal(first.Add(2*time.Hour)))
	assert.True(t, status.OldestRunTime.Equal(first))
	assert.Equal(t, 3, status.TotalObservations)
	assert.Equal(t, int64(3), status.TableSizes[observationsTable])
}
