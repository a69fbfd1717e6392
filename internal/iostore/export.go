package iostore

import (
	"errors"
	"fmt"
	"io"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/parquet"
)

// Suffixes appended to the --output-file prefix by ExportRuns.
const (
	RunsParquetSuffix         = ".operation_runs.parquet"
	ObservationsParquetSuffix = ".snapshot_observations.parquet"
)

// ExportRuns writes the run log and the snapshot observations to two Parquet files.
func ExportRuns(out io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	_, _ = fmt.Fprintf(out, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(out, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(out, "Total observations: %d\n", status.TotalObservations)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	observations, err := store.GetAllObservations()
	if err != nil {
		return fmt.Errorf("failed to retrieve observations: %w", err)
	}

	runsFile := outputFile + RunsParquetSuffix
	if err := parquet.WriteOperationRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d runs to: %s\n", len(runs), runsFile)

	observationsFile := outputFile + ObservationsParquetSuffix
	if err := parquet.WriteObservationsParquet(parquet.ConvertObservationRecords(observations), observationsFile); err != nil {
		return fmt.Errorf("failed to write observations: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d observations to: %s\n", len(observations), observationsFile)

	return nil
}
