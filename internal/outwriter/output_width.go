package outwriter

import (
	"os"

	"golang.org/x/term"
)

const (
	minNameWidth = 12
	maxNameWidth = 60
)

// terminalWidth reports the width of stdout, and false when stdout is not a terminal.
var terminalWidth = func() (int, bool) {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 0, false
	}
	return w, true
}

// getMaxTextWidth returns how many runes of a free-text column fit into a table
// next to reservedWidth characters of other columns.
// It returns 0 (no limit) when the table goes to a file or stdout is not a terminal.
func getMaxTextWidth(reservedWidth int, toFile bool) int {
	if toFile {
		return 0
	}
	termWidth, ok := terminalWidth()
	if !ok {
		return 0
	}
	return clampWidth(termWidth - reservedWidth)
}

func clampWidth(available int) int {
	if available < minNameWidth {
		return minNameWidth
	}
	if available > maxNameWidth {
		return maxNameWidth
	}
	return available
}

// truncateLabel shortens s to maxWidth runes, marking the cut with "...".
// A maxWidth of 0 or less means no limit.
func truncateLabel(s string, maxWidth int) string {
	r := []rune(s)
	if maxWidth <= 0 || len(r) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return string(r[:maxWidth])
	}
	return string(r[:maxWidth-3]) + "..."
}
