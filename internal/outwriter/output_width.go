package outwriter

import (
	"os"

	"github.com/chemflow/equipctl/internal/contract"
	"golang.org/x/term"
)

// Bounds for the distribution bars drawn in text output.
const (
	minBarWidth = 10
	maxBarWidth = 50
)

// getTerminalWidth returns the --width override, the detected terminal width or 80.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Conservative default for narrow terminals and CI
		return 80
	}
	return detectedWidth
}

// getMaxBarWidth calculates the room left for a distribution bar once the
// category label and the count/share suffix are placed.
func getMaxBarWidth(cfg *contract.Config, labelWidth int) int {
	// "  " + label + " " + bar + " " + "12345 (100.00%)"
	available := getTerminalWidth(cfg) - labelWidth - 22
	if available < minBarWidth {
		return minBarWidth
	}
	if available > maxBarWidth {
		return maxBarWidth
	}
	return available
}

// getMaxLabelWidth caps category labels so bars stay on one line.
func getMaxLabelWidth(cfg *contract.Config) int {
	width := getTerminalWidth(cfg) / 3
	if width < 8 {
		return 8
	}
	if width > 30 {
		return 30
	}
	return width
}
