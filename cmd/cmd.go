// Package cmd defines the command-line interface for segcoalesce.
package cmd

import (
	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(coalesceCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(segmentsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the db subcommands to the parent db command
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbClearCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsCloseCmd)

	// Add the segments subcommands to the parent segments command
	segmentsCmd.AddCommand(segmentsLoadCmd)
	segmentsCmd.AddCommand(segmentsShowCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("db-backend", string(schema.SQLiteBackend), "Segment database backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string (SQLite file path, or e.g. user:pass@tcp(host:port)/dbname for mysql)")
	rootCmd.PersistentFlags().Int("creator-db", contract.DefaultCreatorDB, "creator_db value written to new rows")
	rootCmd.PersistentFlags().String("start", "", "Window start: GPS seconds, RFC3339, 'now' or 'N [units] ago'")
	rootCmd.PersistentFlags().String("end", "", "Window end: GPS seconds, RFC3339, 'now' or 'N [units] ago'")
	rootCmd.PersistentFlags().String("ifos", "", "Comma-separated list of interferometers to include (e.g. H1,L1)")
	rootCmd.PersistentFlags().String("names", "", "Comma-separated list of segment_definer names to include")
	rootCmd.PersistentFlags().Int("definer-version", schema.DefaultDefinerVersion, "segment_definer version to process")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Report what would change without writing")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log per-group progress")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file in logfmt")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of coalesceCmd to Viper
	coalesceCmd.Flags().String("tx-mode", string(schema.WindowTx), "Transaction scope: window (all groups commit together) or group (one commit per group)")
	if err := viper.BindPFlags(coalesceCmd.Flags()); err != nil {
		contract.LogFatal("Error binding coalesce flags", err)
	}

	// Bind all flags of dbMigrateCmd to Viper
	dbMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(dbMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding db migrate flags", err)
	}

	// Bind all flags of segmentsLoadCmd to Viper
	segmentsLoadCmd.Flags().String("file", "", "CSV file of raw rows: table,ifos,name,version,start,end")
	if err := viper.BindPFlags(segmentsLoadCmd.Flags()); err != nil {
		contract.LogFatal("Error binding segments load flags", err)
	}
}
