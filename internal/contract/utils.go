package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/gwdetchar/segcoalesce/schema"
)

// Color variables for console output.
var (
	FailedColor     = color.New(color.FgRed, color.Bold) // FailedColor marks groups that broke the run.
	RolledBackColor = color.New(color.FgMagenta)         // RolledBackColor marks work undone by a later failure.
	SkippedColor    = color.New(color.FgYellow)          // SkippedColor marks groups never reached.
	SucceededColor  = color.New(color.FgGreen)           // SucceededColor marks groups that were rewritten.
	UnchangedColor  = color.New(color.FgCyan)            // UnchangedColor marks groups already canonical.
)

// GetColorLabel returns a colored outcome label for console output (table).
func GetColorLabel(outcome schema.Outcome) string {
	text := string(outcome)
	switch outcome {
	case schema.FailedOutcome:
		return FailedColor.Sprint(text)
	case schema.RolledBackOutcome:
		return RolledBackColor.Sprint(text)
	case schema.SkippedOutcome:
		return SkippedColor.Sprint(text)
	case schema.SucceededOutcome:
		return SucceededColor.Sprint(text)
	default:
		return UnchangedColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the path to the default SQLite segment database.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".segcoalesce.db"
	}
	return filepath.Join(homeDir, ".segcoalesce.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
