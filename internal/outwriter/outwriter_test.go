package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(output schema.OutputMode, outputFile string) *contract.Config {
	return &contract.Config{
		Output:      output,
		OutputFile:  outputFile,
		OutputDir:   ".",
		Precision:   2,
		Width:       100,
		MinRows:     1,
		RunsBackend: schema.NoneBackend,
	}
}

func sampleView() schema.SnapshotView {
	snap := schema.StatsSnapshot{
		TotalCount:   42,
		Averages:     map[string]float64{"pressure": 24.5, "temperature": 88.4, "flowrate": 3},
		Distribution: schema.Distribution{Labels: []string{"Reactor", "Tank"}, Values: []int{30, 12}},
		CreatedAt:    "2024-05-01T10:00:00Z",
	}
	return schema.SnapshotView{
		Snapshot: snap,
		Chart: schema.ChartDataset{
			Labels: []string{"Reactor", "Tank"},
			Datasets: []schema.ChartSeries{{
				Label:        schema.ChartSeriesLabel,
				Data:         []int{30, 12},
				BorderWidth:  schema.ChartBorderWidth,
				BarThickness: schema.ChartBarThickness,
			}},
			XAxis: schema.DefaultAxisTicks,
		},
		Source: string(schema.UploadSource),
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		precision int
		value     float64
		expected  string
	}{
		{2, 3.14159, "3.14"},
		{0, 3.14159, "3"},
		{4, 3.14159, "3.1416"},
		{2, -42.567, "-42.57"},
	}
	for _, tt := range tests {
		fmtFloat, intFmt := createFormatters(tt.precision)
		assert.Equal(t, tt.expected, fmtFloat(tt.value))
		assert.Equal(t, "%d", intFmt)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	assert.ErrorContains(t, err, "failed to encode JSON")
}

func TestSaveOutput(t *testing.T) {
	var notices bytes.Buffer
	savedNotice = &notices
	t.Cleanup(func() { savedNotice = os.Stderr })

	path := filepath.Join(t.TempDir(), "stats.json")
	err := saveOutput(path, "equipment statistics", schema.JSONOut, func(w io.Writer) error {
		return writeJSON(w, map[string]int{"total_count": 42})
	})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_count": 42`)
	assert.Equal(t, "💾 Saved equipment statistics (json) to "+path+"\n", notices.String())

	notices.Reset()
	err = saveOutput(filepath.Join(t.TempDir(), "history.csv"), "snapshot history", schema.CSVOut, func(io.Writer) error {
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write snapshot history")
	assert.Empty(t, notices.String(), "no confirmation after a failed write")
}

func TestWriteSnapshotText(t *testing.T) {
	cfg := testConfig(schema.TextOut, "")
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	var buf bytes.Buffer
	require.NoError(t, writeSnapshotText(&buf, sampleView(), cfg, fmtFloat, intFmt, 1500*time.Millisecond))
	out := buf.String()

	assert.Contains(t, out, "Equipment statistics (upload, created 2024-05-01T10:00:00Z)")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "24.50")
	assert.Contains(t, out, "88.40")
	assert.Contains(t, out, "Avg flowrate")
	assert.Contains(t, out, "Distribution:")
	assert.Contains(t, out, "30 (71.43%)")
	assert.Contains(t, out, "12 (28.57%)")
	assert.Contains(t, out, "Completed in 1.5s")

	// Required averages come before the extra ones
	assert.Less(t, strings.Index(out, "Avg pressure"), strings.Index(out, "Avg flowrate"))
}

func TestWriteSnapshotText_NoData(t *testing.T) {
	cfg := testConfig(schema.TextOut, "")
	cfg.MinRows = 100
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	view := sampleView()
	view.NoData = true

	var buf bytes.Buffer
	require.NoError(t, writeSnapshotText(&buf, view, cfg, fmtFloat, intFmt, time.Second))
	assert.Contains(t, buf.String(), "No data to chart: 42 rows is below the minimum of 100")
	assert.NotContains(t, buf.String(), "Distribution:")
}

func TestWriteDistributionBars(t *testing.T) {
	cfg := testConfig(schema.TextOut, "")
	fmtFloat, _ := createFormatters(1)

	t.Run("largest bar fills the width", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeDistributionBars(&buf, sampleView().Chart, cfg, fmtFloat))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		reactor := strings.Count(lines[1], "█")
		tank := strings.Count(lines[2], "█")
		assert.Equal(t, getMaxBarWidth(cfg, len("Reactor")), reactor)
		assert.Greater(t, reactor, tank)
		assert.Greater(t, tank, 0)
	})

	t.Run("zero counts draw no bars", func(t *testing.T) {
		chart := schema.ChartDataset{
			Labels:   []string{"Pump"},
			Datasets: []schema.ChartSeries{{Data: []int{0}}},
		}
		var buf bytes.Buffer
		require.NoError(t, writeDistributionBars(&buf, chart, cfg, fmtFloat))
		assert.NotContains(t, buf.String(), "█")
		assert.Contains(t, buf.String(), "0 (0.0%)")
	})

	t.Run("no categories", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeDistributionBars(&buf, schema.ChartDataset{}, cfg, fmtFloat))
		assert.Contains(t, buf.String(), "no categories")
	})
}

func TestPrintSnapshotView_Formats(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "snap.json")
		require.NoError(t, PrintSnapshotView(sampleView(), testConfig(schema.JSONOut, path), time.Second))

		var got schema.SnapshotView
		require.NoError(t, json.Unmarshal([]byte(readFile(t, path)), &got))
		assert.Equal(t, 42, got.Snapshot.TotalCount)
		assert.Equal(t, []string{"Reactor", "Tank"}, got.Chart.Labels)
		assert.Equal(t, "upload", got.Source)
	})

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "snap.csv")
		require.NoError(t, PrintSnapshotView(sampleView(), testConfig(schema.CSVOut, path), time.Second))

		records, err := csv.NewReader(strings.NewReader(readFile(t, path))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"created_at", "source", "total_count", "avg_pressure", "avg_temperature", "avg_flowrate", "category", "count"}, records[0])
		assert.Equal(t, []string{"2024-05-01T10:00:00Z", "upload", "42", "24.50", "88.40", "3.00", "Reactor", "30"}, records[1])
		assert.Equal(t, "Tank", records[2][6])
	})

	t.Run("parquet", func(t *testing.T) {
		path := filepath.Join(dir, "snap.parquet")
		require.NoError(t, PrintSnapshotView(sampleView(), testConfig(schema.ParquetOut, path), time.Second))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	})

	t.Run("text to file", func(t *testing.T) {
		path := filepath.Join(dir, "snap.txt")
		require.NoError(t, PrintSnapshotView(sampleView(), testConfig(schema.TextOut, path), time.Second))
		assert.Contains(t, readFile(t, path), "Total equipment")
	})
}

func TestPrintHistory(t *testing.T) {
	dir := t.TempDir()
	older := sampleView()
	older.Snapshot.CreatedAt = "2024-04-30T08:00:00Z"
	older.Source = "history#2"
	views := []schema.SnapshotView{sampleView(), older}

	t.Run("text", func(t *testing.T) {
		path := filepath.Join(dir, "history.txt")
		require.NoError(t, PrintHistory(views, testConfig(schema.TextOut, path), time.Second))
		out := readFile(t, path)
		assert.Contains(t, out, "2024-04-30T08:00:00Z")
		assert.Contains(t, out, "Showing 2 history entries")
		assert.Less(t, strings.Index(out, "2024-05-01"), strings.Index(out, "2024-04-30"), "order is preserved")
	})

	t.Run("text empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.txt")
		require.NoError(t, PrintHistory(nil, testConfig(schema.TextOut, path), time.Second))
		assert.Equal(t, "No history available.\n", readFile(t, path))
	})

	t.Run("json empty is an array", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, PrintHistory(nil, testConfig(schema.JSONOut, path), time.Second))
		assert.Equal(t, "[]\n", readFile(t, path))
	})

	t.Run("json positions", func(t *testing.T) {
		path := filepath.Join(dir, "history.json")
		require.NoError(t, PrintHistory(views, testConfig(schema.JSONOut, path), time.Second))
		var got []schema.HistoryEntry
		require.NoError(t, json.Unmarshal([]byte(readFile(t, path)), &got))
		require.Len(t, got, 2)
		assert.Equal(t, 2, got[1].Position)
		assert.Equal(t, "2024-04-30T08:00:00Z", got[1].CreatedAt)
	})

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "history.csv")
		require.NoError(t, PrintHistory(views, testConfig(schema.CSVOut, path), time.Second))
		records, err := csv.NewReader(strings.NewReader(readFile(t, path))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "Reactor|Tank", records[1][5])
		assert.Equal(t, "30|12", records[1][6])
	})

	t.Run("parquet", func(t *testing.T) {
		path := filepath.Join(dir, "history.parquet")
		require.NoError(t, PrintHistory(views, testConfig(schema.ParquetOut, path), time.Second))
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})
}

func TestPrintSession(t *testing.T) {
	dir := t.TempDir()
	session := schema.Session{
		Token:    "super-secret",
		User:     schema.UserProfile{Username: "ada", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		IssuedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	for _, mode := range []schema.OutputMode{schema.TextOut, schema.JSONOut, schema.CSVOut} {
		t.Run(string(mode), func(t *testing.T) {
			path := filepath.Join(dir, "session."+string(mode))
			require.NoError(t, PrintSession(session, testConfig(mode, path)))
			out := readFile(t, path)
			assert.Contains(t, out, "ada@example.com")
			assert.NotContains(t, out, "super-secret", "the token is never printed")
		})
	}
}

func TestPrintExportResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	result := schema.ExportResult{Path: "/tmp/2024-05-01T10-00-00Z.pdf", Bytes: 2048, CreatedAt: "2024-05-01T10:00:00Z"}
	require.NoError(t, PrintExportResult(result, testConfig(schema.JSONOut, path)))

	var got schema.ExportResult
	require.NoError(t, json.Unmarshal([]byte(readFile(t, path)), &got))
	assert.Equal(t, result, got)
}

func TestLogExportHeader(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(schema.TextOut, "")
	cfg.OutputDir = "reports"
	logExportHeader(&buf, sampleView(), cfg)
	assert.Contains(t, buf.String(), "2024-05-01T10:00:00Z (upload, 42 rows) to reports")
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := newConsoleNotifier(&buf, false)

	n.Warn("data.txt is not a CSV file")
	n.Fail("upload", contract.NewAuthError("upload", 401, errors.New("Invalid token.")))
	n.Fail("export", errors.New("disk full"))
	n.Info("Report saved")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "data.txt is not a CSV file")
	assert.True(t, strings.HasPrefix(lines[1], "✖ Upload failed:"))
	assert.Contains(t, lines[1], "equipctl login")
	assert.Equal(t, "✖ Export failed: disk full", lines[2])
	assert.Equal(t, "Report saved", lines[3])
}

func TestFailureHint(t *testing.T) {
	assert.NotEmpty(t, failureHint(contract.TimeoutFailure))
	assert.NotEmpty(t, failureHint(contract.NetworkFailure))
	assert.NotEmpty(t, failureHint(contract.BusyFailure))
	assert.Empty(t, failureHint(contract.ServerFailure))
	assert.Equal(t, "Operation", opTitle(""))
}

func TestGetMaxBarWidth(t *testing.T) {
	cfg := &contract.Config{Width: 40}
	assert.Equal(t, minBarWidth, getMaxBarWidth(cfg, 20))

	cfg.Width = 300
	assert.Equal(t, maxBarWidth, getMaxBarWidth(cfg, 10))

	cfg.Width = 80
	assert.Equal(t, 80-10-22, getMaxBarWidth(cfg, 10))

	assert.Equal(t, 26, getMaxLabelWidth(cfg))
}

func TestChartRenderer_RenderPNG(t *testing.T) {
	r := NewChartRenderer()

	t.Run("dataset", func(t *testing.T) {
		data, err := r.RenderPNG(sampleView().Chart)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, chartHeight, img.Bounds().Dy())
		assert.GreaterOrEqual(t, img.Bounds().Dx(), chartMinWidth)
	})

	t.Run("empty dataset still renders", func(t *testing.T) {
		data, err := r.RenderPNG(schema.ChartDataset{})
		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(data))
		assert.NoError(t, err)
	})

	t.Run("all zero counts", func(t *testing.T) {
		data, err := r.RenderPNG(schema.ChartDataset{
			Labels:   []string{"Pump", "Valve"},
			Datasets: []schema.ChartSeries{{Data: []int{0, 0}}},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})
}
