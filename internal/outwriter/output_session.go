package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
	"github.com/olekukonko/tablewriter"
)

// sessionJSON is the printable part of a session. The token is never printed.
type sessionJSON struct {
	User     schema.UserProfile `json:"user"`
	IssuedAt time.Time          `json:"issued_at"`
}

// PrintSession prints the signed-in profile.
func PrintSession(session schema.Session, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return saveOutput(cfg.OutputFile, "session profile", cfg.Output, func(w io.Writer) error {
			return writeJSON(w, sessionJSON{User: session.User, IssuedAt: session.IssuedAt})
		})
	case schema.CSVOut:
		return saveOutput(cfg.OutputFile, "session profile", cfg.Output, func(w io.Writer) error {
			header := []string{"username", "first_name", "last_name", "email", "role", "company", "issued_at"}
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				u := session.User
				return cw.Write([]string{u.Username, u.FirstName, u.LastName, u.Email, u.Role, u.Company, formatIssued(session.IssuedAt)})
			})
		})
	default:
		return saveOutput(cfg.OutputFile, "session profile", cfg.Output, func(w io.Writer) error {
			return writeSessionTable(w, session)
		})
	}
}

func writeSessionTable(w io.Writer, session schema.Session) error {
	u := session.User
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	data := [][]string{
		{"Username", u.Username},
		{"Name", strings.TrimSpace(u.FirstName + " " + u.LastName)},
		{"Email", u.Email},
		{"Role", u.Role},
		{"Company", u.Company},
		{"Signed in", formatIssued(session.IssuedAt)},
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func formatIssued(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(contract.DateTimeFormat)
}

// PrintExportResult prints where a report was saved.
// Text output is just the path so it can be piped.
func PrintExportResult(result schema.ExportResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return saveOutput(cfg.OutputFile, "export result", cfg.Output, func(w io.Writer) error {
			return writeJSON(w, result)
		})
	case schema.CSVOut:
		return saveOutput(cfg.OutputFile, "export result", cfg.Output, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"path", "bytes", "created_at"}, func(cw *csv.Writer) error {
				return cw.Write([]string{result.Path, strconv.FormatInt(result.Bytes, 10), result.CreatedAt})
			})
		})
	default:
		_, err := fmt.Fprintln(os.Stdout, result.Path)
		return err
	}
}

// LogExportHeader announces which snapshot is about to be exported.
func LogExportHeader(view schema.SnapshotView, cfg *contract.Config) {
	logExportHeader(os.Stderr, view, cfg)
}

func logExportHeader(w io.Writer, view schema.SnapshotView, cfg *contract.Config) {
	msg := fmt.Sprintf("📄 Exporting report for snapshot %s (%s, %d rows) to %s",
		view.Snapshot.CreatedAt, sourceText(view), view.Snapshot.TotalCount, cfg.OutputDir)
	_, _ = fmt.Fprintln(w, colorize(contract.InfoColor, cfg.UseColors, msg))
}
