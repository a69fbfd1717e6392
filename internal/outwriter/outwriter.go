// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
	"github.com/fatih/color"
)

// ConsoleNotifier prints user-facing notices to the terminal.
type ConsoleNotifier struct {
	w         io.Writer
	useColors bool
}

var _ contract.Notifier = &ConsoleNotifier{} // Compile-time check

// NewConsoleNotifier returns a notifier that writes to stderr.
func NewConsoleNotifier(useColors bool) *ConsoleNotifier {
	return newConsoleNotifier(os.Stderr, useColors)
}

func newConsoleNotifier(w io.Writer, useColors bool) *ConsoleNotifier {
	return &ConsoleNotifier{w: w, useColors: useColors}
}

// Warn shows a non-blocking notice.
func (n *ConsoleNotifier) Warn(msg string) {
	n.print(contract.WarnColor, "⚠️  "+msg)
}

// Fail shows a blocking failure notice.
func (n *ConsoleNotifier) Fail(op string, err error) {
	msg := fmt.Sprintf("✖ %s failed: %v", opTitle(op), err)
	if hint := failureHint(contract.KindOf(err)); hint != "" {
		msg += ". " + hint
	}
	n.print(contract.FailColor, msg)
}

// Info shows an informational line.
func (n *ConsoleNotifier) Info(msg string) {
	n.print(contract.InfoColor, msg)
}

func (n *ConsoleNotifier) print(c *color.Color, msg string) {
	if n.useColors {
		_, _ = c.Fprintln(n.w, msg)
		return
	}
	_, _ = fmt.Fprintln(n.w, msg)
}

// opTitle capitalizes an operation name for display.
func opTitle(op string) string {
	if op == "" {
		return "Operation"
	}
	return strings.ToUpper(op[:1]) + op[1:]
}

// failureHint suggests what the user can do about a failure kind.
func failureHint(kind contract.FailureKind) string {
	switch kind {
	case contract.AuthFailure:
		return "Sign in with 'equipctl login'"
	case contract.NetworkFailure:
		return "Check that the server is reachable"
	case contract.TimeoutFailure:
		return "The server did not answer in time, try again"
	case contract.BusyFailure:
		return "Wait for the current operation to finish"
	default:
		return ""
	}
}

// colorize applies c when colors are enabled.
func colorize(c *color.Color, useColors bool, s string) string {
	if !useColors {
		return s
	}
	return c.Sprint(s)
}

// sourceText renders where a displayed snapshot came from.
func sourceText(view schema.SnapshotView) string {
	if view.Source == "" {
		return string(schema.UploadSource)
	}
	return view.Source
}
