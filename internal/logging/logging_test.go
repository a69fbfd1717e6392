package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitWritesToFile(t *testing.T) {
	t.Cleanup(func() { Replace(zap.NewNop()) })

	logFile := filepath.Join(t.TempDir(), "equipctl.log")
	require.NoError(t, Init(false, logFile))

	Warnw("history entry skipped", "index", 3)
	Debugw("not written at info level")
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "history entry skipped")
	assert.Contains(t, string(data), `"index":3`)
	assert.NotContains(t, string(data), "not written")
}

func TestInitEmptyPathDiscards(t *testing.T) {
	t.Cleanup(func() { Replace(zap.NewNop()) })
	require.NoError(t, Init(true, ""))
	assert.NotPanics(t, func() { Errorw("dropped", "k", "v") })
}

func TestReplaceWithObserver(t *testing.T) {
	t.Cleanup(func() { Replace(zap.NewNop()) })

	core, logs := observer.New(zapcore.DebugLevel)
	Replace(zap.New(core))

	Infow("upload committed", "total_count", 12)

	entries := logs.FilterMessage("upload committed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(12), entries[0].ContextMap()["total_count"])
}
