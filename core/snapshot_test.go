package core

import (
	"testing"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{
	"total_count": 42,
	"averages": {"pressure": 24.5, "temperature": 88.1, "flowrate": 120.25},
	"distribution": {"labels": ["Reactors", "Tanks"], "values": [30, 12]},
	"created_at": "2024-05-01T10:00:00Z",
	"message": "Analysis Complete"
}`

func TestFromCollaboratorPayload(t *testing.T) {
	snap, err := FromCollaboratorPayload([]byte(validPayload))
	require.NoError(t, err)

	assert.Equal(t, 42, snap.TotalCount)
	assert.Equal(t, 24.5, snap.Averages[schema.PressureKey])
	assert.Equal(t, 88.1, snap.Averages[schema.TemperatureKey])
	assert.Equal(t, 120.25, snap.Averages[schema.FlowrateKey], "unknown keys are preserved")
	assert.Equal(t, []string{"Reactors", "Tanks"}, snap.Distribution.Labels)
	assert.Equal(t, []int{30, 12}, snap.Distribution.Values)
	assert.Equal(t, "2024-05-01T10:00:00Z", snap.CreatedAt)
	assert.Equal(t, []string{"pressure", "temperature", "flowrate"}, snap.AverageKeys())
}

func TestFromCollaboratorPayload_ShapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"not json", `<html>`, "invalid character"},
		{"missing total", `{"averages":{"pressure":1,"temperature":2},"distribution":{"labels":[],"values":[]},"created_at":"2024-05-01T10:00:00Z"}`, "missing total_count"},
		{"negative total", `{"total_count":-1,"averages":{"pressure":1,"temperature":2},"distribution":{"labels":[],"values":[]},"created_at":"2024-05-01T10:00:00Z"}`, "negative total_count"},
		{"fractional total", `{"total_count":1.5,"averages":{"pressure":1,"temperature":2},"distribution":{"labels":[],"values":[]},"created_at":"2024-05-01T10:00:00Z"}`, "cannot unmarshal"},
		{"missing averages", `{"total_count":0,"distribution":{"labels":[],"values":[]},"created_at":"2024-05-01T10:00:00Z"}`, "missing averages"},
		{"missing temperature", `{"total_count":0,"averages":{"pressure":1},"distribution":{"labels":[],"values":[]},"created_at":"2024-05-01T10:00:00Z"}`, "averages.temperature"},
		{"missing distribution", `{"total_count":0,"averages":{"pressure":1,"temperature":2},"created_at":"2024-05-01T10:00:00Z"}`, "missing distribution"},
		{"length mismatch", `{"total_count":3,"averages":{"pressure":1,"temperature":2},"distribution":{"labels":["A","B"],"values":[3]},"created_at":"2024-05-01T10:00:00Z"}`, "2 labels but 1 values"},
		{"duplicate label", `{"total_count":3,"averages":{"pressure":1,"temperature":2},"distribution":{"labels":["A","A"],"values":[1,2]},"created_at":"2024-05-01T10:00:00Z"}`, "duplicate"},
		{"negative count", `{"total_count":3,"averages":{"pressure":1,"temperature":2},"distribution":{"labels":["A","B"],"values":[4,-1]},"created_at":"2024-05-01T10:00:00Z"}`, "negative count"},
		{"missing created_at", `{"total_count":0,"averages":{"pressure":1,"temperature":2},"distribution":{"labels":[],"values":[]}}`, "missing created_at"},
		{"bad created_at", `{"total_count":0,"averages":{"pressure":1,"temperature":2},"distribution":{"labels":[],"values":[]},"created_at":"yesterday"}`, "not ISO-8601"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromCollaboratorPayload([]byte(tt.payload))
			require.Error(t, err)
			assert.True(t, contract.IsKind(err, contract.ShapeFailure), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFromCollaboratorPayload_TimestampLayouts(t *testing.T) {
	for _, ts := range []string{
		"2024-05-01T10:00:00Z",
		"2024-05-01T10:00:00.123456+00:00",
		"2024-05-01T10:00:00.123456",
		"2024-05-01T10:00:00",
	} {
		payload := `{"total_count":0,"averages":{"pressure":1,"temperature":2},"distribution":{"labels":[],"values":[]},"created_at":"` + ts + `"}`
		snap, err := FromCollaboratorPayload([]byte(payload))
		require.NoError(t, err, ts)
		assert.False(t, snap.CreatedTime().IsZero(), ts)
	}
}

func TestCheckTotals(t *testing.T) {
	snap, err := FromCollaboratorPayload([]byte(validPayload))
	require.NoError(t, err)

	sum, ok := CheckTotals(snap)
	assert.True(t, ok)
	assert.Equal(t, 42, sum)

	snap.TotalCount = 40
	sum, ok = CheckTotals(snap)
	assert.False(t, ok)
	assert.Equal(t, 42, sum)
}
