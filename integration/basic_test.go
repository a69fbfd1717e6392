//go:build basic

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chemflow/equipctl/internal/testutil/collabfake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIEndToEnd(t *testing.T) {
	fake := collabfake.New()
	defer fake.Close()
	env := newCLIEnv(t, fake, "EQUIPCTL_RUNS_BACKEND=sqlite")

	// Nothing works before signing in
	_, err := env.run(t, "upload", writeEquipmentCSV(t, env.home))
	assert.Error(t, err)
	assert.Zero(t, fake.Count("/upload/"))

	out := env.mustRun(t, "login", "--username", collabfake.Username, "--password", collabfake.Password)
	assert.Contains(t, out, "ada@example.com")

	out = env.mustRun(t, "whoami", "--output", "json")
	assert.Contains(t, out, collabfake.Username)
	assert.NotContains(t, out, collabfake.Token)

	out = env.mustRun(t, "upload", writeEquipmentCSV(t, env.home))
	assert.Contains(t, out, "Total equipment")
	assert.Contains(t, out, "Reactors")
	assert.Equal(t, "plant.csv", fake.LastUpload().Filename)

	out = env.mustRun(t, "history")
	assert.Contains(t, out, "2024-05-01T10:00:00Z")

	reports := filepath.Join(env.home, "reports")
	env.mustRun(t, "export", "--entry", "1", "--output-dir", reports)
	data, err := os.ReadFile(filepath.Join(reports, "2024-05-01T10-00-00Z.pdf"))
	require.NoError(t, err)
	assert.Equal(t, collabfake.FakePDF, data)

	out = env.mustRun(t, "runs", "status")
	assert.Contains(t, out, "sqlite")

	prefix := filepath.Join(env.home, "equipctl")
	env.mustRun(t, "runs", "export", "--output-file", prefix)
	_, err = os.Stat(prefix + ".operation_runs.parquet")
	assert.NoError(t, err)
	_, err = os.Stat(prefix + ".snapshot_observations.parquet")
	assert.NoError(t, err)

	env.mustRun(t, "logout")
	assert.True(t, fake.LoggedOut())
	_, err = env.run(t, "whoami")
	assert.Error(t, err)
}

func TestCLIRejectsNonCSV(t *testing.T) {
	fake := collabfake.New()
	defer fake.Close()
	env := newCLIEnv(t, fake, "EQUIPCTL_TOKEN="+collabfake.Token)

	path := filepath.Join(env.home, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	out, err := env.run(t, "upload", path)
	assert.Error(t, err)
	assert.Contains(t, out, "notes.txt is not a CSV file")
	assert.Zero(t, fake.Count("/upload/"))
}

func TestCLIHistoryUnavailableIsEmpty(t *testing.T) {
	fake := collabfake.New()
	defer fake.Close()
	fake.SetStatus("/record/", 500)
	env := newCLIEnv(t, fake, "EQUIPCTL_TOKEN="+collabfake.Token)

	out := env.mustRun(t, "history")
	assert.Contains(t, out, "No history available.")
}

func TestCLISessionAndRunsMaintenance(t *testing.T) {
	fake := collabfake.New()
	defer fake.Close()
	env := newCLIEnv(t, fake, "EQUIPCTL_RUNS_BACKEND=sqlite")

	env.mustRun(t, "login", "--username", collabfake.Username, "--password", collabfake.Password)
	out := env.mustRun(t, "session", "status")
	assert.Contains(t, out, "sqlite")

	env.mustRun(t, "session", "clear")
	_, err := os.Stat(filepath.Join(env.home, ".equipctl_session.db"))
	assert.True(t, os.IsNotExist(err))

	env.mustRun(t, "runs", "migrate")
	env.mustRun(t, "runs", "migrate", "--target-version", "0")
	env.mustRun(t, "runs", "migrate")
	env.mustRun(t, "runs", "clear")
	_, err = os.Stat(filepath.Join(env.home, ".equipctl_runs.db"))
	assert.True(t, os.IsNotExist(err))

	out = env.mustRun(t, "version")
	assert.Contains(t, out, "equipctl CLI")
}
