package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
)

// savedNotice is where "saved to file" confirmations go; stdout may carry the data itself.
var savedNotice io.Writer = os.Stderr

// saveOutput renders subject into outputFile, or to stdout when outputFile is empty.
// A confirmation naming the subject and format follows a successful file write.
func saveOutput(outputFile, subject string, mode schema.OutputMode, render func(io.Writer) error) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	toFile := file != os.Stdout
	if toFile {
		defer func() { _ = file.Close() }()
	}

	if err := render(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", subject, err)
	}
	if toFile {
		noteSaved(subject, mode, outputFile)
	}
	return nil
}

// noteSaved confirms that subject was written to path.
func noteSaved(subject string, mode schema.OutputMode, path string) {
	if mode == "" {
		mode = schema.TextOut
	}
	_, _ = fmt.Fprintf(savedNotice, "💾 Saved %s (%s) to %s\n", subject, mode, path)
}

// writeJSON encodes data as indented JSON.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader writes header, lets writeRows add the records, then flushes.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(cw); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// createFormatters returns the averages formatter for the configured precision
// and the verb used for equipment counts.
func createFormatters(precision int) (fmtFloat func(float64) string, countFmt string) {
	countFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
	return fmtFloat, countFmt
}
