package iostore

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/chemflow/equipctl/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateRuns_NoneBackend(t *testing.T) {
	err := MigrateRuns(&bytes.Buffer{}, schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not supported for the none backend")
}

func TestMigrateRuns_UnknownVersion(t *testing.T) {
	err := MigrateRuns(&bytes.Buffer{}, schema.SQLiteBackend, ":memory:", LatestRunsVersion+1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestMigrateRuns_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	var out bytes.Buffer

	require.NoError(t, MigrateRuns(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "to version 2")

	out.Reset()
	require.NoError(t, MigrateRuns(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "already at the latest version")

	require.NoError(t, MigrateRuns(&out, schema.SQLiteBackend, dbPath, 1))
	require.NoError(t, MigrateRuns(&out, schema.SQLiteBackend, dbPath, 0))

	out.Reset()
	require.NoError(t, MigrateRuns(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "Successfully migrated")

	// A migrated database is usable by the run store
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, err = store.BeginRun(schema.LoginOp, sampleSession().IssuedAt)
	assert.NoError(t, err)
}

func TestMigrateRuns_AfterStoreCreatedTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.NoError(t, MigrateRuns(&bytes.Buffer{}, schema.SQLiteBackend, dbPath, -1))
}
