package iostore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chemflow/equipctl/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() schema.Session {
	return schema.Session{
		Token: "abc123",
		User: schema.UserProfile{
			Username:  "ada",
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Role:      "engineer",
			Company:   "Analytical Engines",
		},
		IssuedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestSessionStore_RoundTrip(t *testing.T) {
	backends := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
	}{
		{"sqlite file", schema.SQLiteBackend, filepath.Join(t.TempDir(), "session.db")},
		{"sqlite memory", schema.SQLiteBackend, ":memory:"},
		{"none", schema.NoneBackend, ""},
	}

	for _, tt := range backends {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewSessionStore(tt.backend, tt.connStr)
			require.NoError(t, err)
			defer func() { _ = store.Close() }()

			_, ok, err := store.Load()
			require.NoError(t, err)
			assert.False(t, ok, "fresh store has no session")

			want := sampleSession()
			require.NoError(t, store.Save(want))

			got, ok, err := store.Load()
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want.Token, got.Token)
			assert.Equal(t, want.User, got.User)
			assert.True(t, want.IssuedAt.Equal(got.IssuedAt))

			// Save replaces rather than appends
			want.Token = "rotated"
			require.NoError(t, store.Save(want))
			got, _, err = store.Load()
			require.NoError(t, err)
			assert.Equal(t, "rotated", got.Token)

			require.NoError(t, store.Delete())
			_, ok, err = store.Load()
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting twice is fine
			assert.NoError(t, store.Delete())
		})
	}
}

func TestSessionStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")

	store, err := NewSessionStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Save(sampleSession()))
	require.NoError(t, store.Close())

	reopened, err := NewSessionStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, ok, err := reopened.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ada", got.User.Username)
}

func TestSessionStore_Status(t *testing.T) {
	store, err := NewSessionStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.False(t, status.HasSession)

	require.NoError(t, store.Save(sampleSession()))
	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.HasSession)
	assert.Equal(t, "ada", status.Username)
	assert.WithinDuration(t, time.Now(), status.LastUpdated, time.Minute)
}

func TestSessionStore_InvalidTableName(t *testing.T) {
	_, err := newSessionStore("sessions; DROP TABLE x", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

func TestSessionStore_UnsupportedBackend(t *testing.T) {
	_, err := NewSessionStore(schema.DatabaseBackend("redis"), "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")
}
