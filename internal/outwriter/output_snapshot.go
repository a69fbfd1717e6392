package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/parquet"
	"github.com/chemflow/equipctl/schema"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gonum.org/v1/gonum/floats"
)

// barColors cycles through terminal colours close to the chart palette.
var barColors = []*color.Color{
	color.New(color.FgCyan),
	color.New(color.FgBlue),
	color.New(color.FgMagenta),
}

// PrintSnapshotView outputs one displayed snapshot, dispatching on the configured format.
func PrintSnapshotView(view schema.SnapshotView, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return saveOutput(cfg.OutputFile, "equipment statistics", cfg.Output, func(w io.Writer) error {
			return writeJSON(w, view)
		})
	case schema.CSVOut:
		return saveOutput(cfg.OutputFile, "equipment statistics", cfg.Output, func(w io.Writer) error {
			return writeSnapshotCSV(w, view, fmtFloat, intFmt)
		})
	case schema.ParquetOut:
		entry := schema.HistoryEntry{StatsSnapshot: view.Snapshot}
		if err := parquet.WriteHistoryParquet(parquet.ConvertHistoryEntries([]schema.HistoryEntry{entry}), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		noteSaved("equipment statistics", cfg.Output, cfg.OutputFile)
		return nil
	default:
		return saveOutput(cfg.OutputFile, "equipment statistics", cfg.Output, func(w io.Writer) error {
			return writeSnapshotText(w, view, cfg, fmtFloat, intFmt, duration)
		})
	}
}

// writeSnapshotText renders the statistics table and the distribution bars.
func writeSnapshotText(w io.Writer, view schema.SnapshotView, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	snap := view.Snapshot
	title := fmt.Sprintf("Equipment statistics (%s, created %s)", sourceText(view), snap.CreatedAt)
	if _, err := fmt.Fprintln(w, colorize(contract.LabelColor, cfg.UseColors, title)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight}
	})

	data := [][]string{{"Total equipment", fmt.Sprintf(intFmt, snap.TotalCount)}}
	for _, key := range snap.AverageKeys() {
		v, _ := snap.Average(key)
		data = append(data, []string{"Avg " + key, fmtFloat(v)})
	}
	data = append(data, []string{"Equipment types", fmt.Sprintf(intFmt, snap.Distribution.Len())})
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if view.NoData {
		if _, err := fmt.Fprintf(w, "No data to chart: %d rows is below the minimum of %d\n", snap.TotalCount, cfg.MinRows); err != nil {
			return err
		}
	} else if err := writeDistributionBars(w, view.Chart, cfg, fmtFloat); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Completed in %v. Runs backend: %s\n", duration.Round(time.Millisecond), cfg.RunsBackend)
	return err
}

// writeDistributionBars draws one horizontal bar per category, scaled to the largest count.
func writeDistributionBars(w io.Writer, chart schema.ChartDataset, cfg *contract.Config, fmtFloat func(float64) string) error {
	series := chart.Series()
	if len(chart.Labels) == 0 {
		_, err := fmt.Fprintln(w, "Distribution: (no categories)")
		return err
	}
	if _, err := fmt.Fprintln(w, "Distribution:"); err != nil {
		return err
	}

	values := make([]float64, len(series.Data))
	for i, v := range series.Data {
		values[i] = float64(v)
	}
	// shares in percent; bars are scaled against the largest category
	shares := make([]float64, len(values))
	if total := floats.Sum(values); total > 0 {
		floats.ScaleTo(shares, 100/total, values)
	}
	peak := 0.0
	if len(values) > 0 {
		peak = floats.Max(values)
	}

	maxLabel := getMaxLabelWidth(cfg)
	labelWidth := 0
	labels := make([]string, len(chart.Labels))
	for i, l := range chart.Labels {
		labels[i] = contract.TruncateText(l, maxLabel)
		labelWidth = max(labelWidth, len([]rune(labels[i])))
	}
	barWidth := getMaxBarWidth(cfg, labelWidth)

	for i, label := range labels {
		var v, share float64
		n := 0
		if i < len(values) {
			v, share = values[i], shares[i]
		}
		if peak > 0 {
			n = int(v * float64(barWidth) / peak)
		}
		if v > 0 && n == 0 {
			n = 1
		}
		bar := colorize(barColors[i%len(barColors)], cfg.UseColors, strings.Repeat("█", n))
		pad := strings.Repeat(" ", labelWidth-len([]rune(label)))
		if _, err := fmt.Fprintf(w, "  %s%s %s %d (%s%%)\n", label, pad, bar, int(v), fmtFloat(share)); err != nil {
			return err
		}
	}
	return nil
}

// writeSnapshotCSV writes one row per category with the snapshot fields repeated.
func writeSnapshotCSV(w io.Writer, view schema.SnapshotView, fmtFloat func(float64) string, intFmt string) error {
	snap := view.Snapshot
	keys := snap.AverageKeys()
	header := []string{"created_at", "source", "total_count"}
	for _, k := range keys {
		header = append(header, "avg_"+k)
	}
	header = append(header, "category", "count")

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		base := []string{snap.CreatedAt, sourceText(view), fmt.Sprintf(intFmt, snap.TotalCount)}
		for _, k := range keys {
			v, _ := snap.Average(k)
			base = append(base, fmtFloat(v))
		}
		for i, label := range snap.Distribution.Labels {
			rec := append(append([]string(nil), base...), label, strconv.Itoa(snap.Distribution.Values[i]))
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// PrintHistory outputs the history list, dispatching on the configured format.
func PrintHistory(views []schema.SnapshotView, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return saveOutput(cfg.OutputFile, "snapshot history", cfg.Output, func(w io.Writer) error {
			return writeJSON(w, historyEntries(views))
		})
	case schema.CSVOut:
		return saveOutput(cfg.OutputFile, "snapshot history", cfg.Output, func(w io.Writer) error {
			return writeHistoryCSV(w, views, fmtFloat, intFmt)
		})
	case schema.ParquetOut:
		if err := parquet.WriteHistoryParquet(parquet.ConvertHistoryEntries(historyEntries(views)), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		noteSaved("snapshot history", cfg.Output, cfg.OutputFile)
		return nil
	default:
		return saveOutput(cfg.OutputFile, "snapshot history", cfg.Output, func(w io.Writer) error {
			return writeHistoryTable(w, views, cfg, fmtFloat, intFmt, duration)
		})
	}
}

// historyEntries numbers the views in display order. An empty history stays [] in JSON.
func historyEntries(views []schema.SnapshotView) []schema.HistoryEntry {
	entries := make([]schema.HistoryEntry, len(views))
	for i, v := range views {
		entries[i] = schema.HistoryEntry{Position: i + 1, StatsSnapshot: v.Snapshot}
	}
	return entries
}

// writeHistoryTable renders the history as a table, newest first.
func writeHistoryTable(w io.Writer, views []schema.SnapshotView, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No history available.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Created", "Total", "Avg Pressure", "Avg Temperature", "Types"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, v := range views {
		pressure, _ := v.Snapshot.Average(schema.PressureKey)
		temperature, _ := v.Snapshot.Average(schema.TemperatureKey)
		data = append(data, []string{
			strconv.Itoa(i + 1),
			v.Snapshot.CreatedAt,
			fmt.Sprintf(intFmt, v.Snapshot.TotalCount),
			fmtFloat(pressure),
			fmtFloat(temperature),
			contract.TruncateText(strings.Join(v.Snapshot.Distribution.Labels, ", "), getMaxLabelWidth(cfg)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d history entries. Fetched in %v. Use 'equipctl export --entry N' to export one.\n",
		len(views), duration.Round(time.Millisecond))
	return err
}

// writeHistoryCSV writes one row per history entry.
func writeHistoryCSV(w io.Writer, views []schema.SnapshotView, fmtFloat func(float64) string, intFmt string) error {
	header := []string{"position", "created_at", "total_count", "avg_pressure", "avg_temperature", "labels", "values"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, v := range views {
			pressure, _ := v.Snapshot.Average(schema.PressureKey)
			temperature, _ := v.Snapshot.Average(schema.TemperatureKey)
			values := make([]string, len(v.Snapshot.Distribution.Values))
			for j, n := range v.Snapshot.Distribution.Values {
				values[j] = strconv.Itoa(n)
			}
			rec := []string{
				strconv.Itoa(i + 1),
				v.Snapshot.CreatedAt,
				fmt.Sprintf(intFmt, v.Snapshot.TotalCount),
				fmtFloat(pressure),
				fmtFloat(temperature),
				strings.Join(v.Snapshot.Distribution.Labels, "|"),
				strings.Join(values, "|"),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
