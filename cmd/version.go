package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/internal/segdb"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/spf13/cobra"
)

// versionCmd shows the build and the segment database schema this binary expects.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of segcoalesce.",
	Long: `Display build details and the schema version this binary migrates to.

Shows:
- Release version, commit and build timestamp
- Go runtime version
- Newest schema migration per backend
- Default SQLite database path

Compare the schema version with 'segcoalesce db migrate' output before
running a pass against a shared database.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeVersion(cmd.OutOrStdout())
	},
}

func writeVersion(w io.Writer) error {
	_, _ = fmt.Fprintf(w, "segcoalesce CLI\n")
	_, _ = fmt.Fprintf(w, "  Version: %s\n", version)
	_, _ = fmt.Fprintf(w, "  Commit:  %s\n", commit)
	_, _ = fmt.Fprintf(w, "  Built:   %s\n", date)
	_, _ = fmt.Fprintf(w, "  Runtime: %s\n", runtime.Version())
	_, _ = fmt.Fprintf(w, "  Schema:\n")
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		v, err := segdb.SchemaVersion(backend)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "    %-10s v%d\n", backend, v)
	}
	_, err := fmt.Fprintf(w, "  Default DB: %s\n", contract.GetDBFilePath())
	return err
}
