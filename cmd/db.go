package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/internal/segdb"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
)

// dbCmd focused on segment database management.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the segment database schema and contents",
	Long: `Manage the segment database that holds the process, segment_definer,
segment and segment_summary tables.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  migrate - Run database schema migrations
  status  - Show row counts and run statistics
  clear   - Remove every row

Examples:
  # Create the tables in a fresh MySQL database
  SEGCOALESCE_DB_BACKEND=mysql SEGCOALESCE_DB_CONNECT="..." segcoalesce db migrate

  # Check database status
  segcoalesce db status`,
}

// dbMigrateCmd runs database migrations.
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the segment database.

By default, migrates to the latest version. Use --target-version for specific versions.
This command does not create tables on its own, so it can run against a fresh database.

Examples:
  # Migrate to latest version (default)
  segcoalesce db migrate

  # Rollback everything (drops all tables)
  segcoalesce db migrate --target-version 0`,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		connStr := cfg.DBConnect
		// For SQLite backend with empty connection string, use default path
		if cfg.DBBackend == schema.SQLiteBackend && connStr == "" {
			connStr = contract.GetDBFilePath()
		}
		info("Migrating %s segment database", cfg.DBBackend)
		if err := segdb.Migrate(os.Stdout, cfg.DBBackend, connStr, cfg.TargetVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}

// dbStatusCmd shows database status.
var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display row counts and connection details",
	Long: `Show detailed information about the segment database.

Displays:
- Backend type and connection status
- Total and still-open runs
- The most recent run
- Number of segment definers
- Row counts per table

Examples:
  # Check database status
  segcoalesce db status`,
	PreRunE: sharedSetup,
	RunE: withStore(func(ctx context.Context, _ *contract.Config, store contract.SegmentStore, _ log15.Logger) error {
		status, err := store.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get database status: %w", err)
		}
		segdb.PrintStatus(os.Stdout, status)
		return nil
	}),
}

// dbClearCmd clears the database.
var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every row from the segment database",
	Long: `Delete all runs, definers and intervals. The tables themselves are kept.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  segcoalesce export --output-file backup
  segcoalesce db clear`,
	PreRunE: sharedSetup,
	RunE: withStore(func(ctx context.Context, _ *contract.Config, store contract.SegmentStore, _ log15.Logger) error {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
		fmt.Println("Segment database cleared successfully.")
		return nil
	}),
}
