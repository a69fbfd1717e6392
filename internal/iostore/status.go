package iostore

import (
	"fmt"
	"io"
	"slices"

	"github.com/chemflow/equipctl/schema"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// PrintSessionStatus prints session store status information.
func PrintSessionStatus(w io.Writer, status schema.SessionStatus) {
	_, _ = fmt.Fprintf(w, "Session Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Signed In: %t\n", status.HasSession)
	if status.HasSession {
		_, _ = fmt.Fprintf(w, "Username: %s\n", status.Username)
		_, _ = fmt.Fprintf(w, "Last Updated: %s\n", status.LastUpdated.Format(statusTimeFormat))
	}
}

// PrintRunStatus prints run store status information.
func PrintRunStatus(w io.Writer, status schema.RunStatus) {
	_, _ = fmt.Fprintf(w, "Runs Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Total Observations: %d\n", status.TotalObservations)
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
