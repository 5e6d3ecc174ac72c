package contract

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gwdetchar/segcoalesce/schema"
)

// Default values for configuration.
const (
	DefaultCreatorDB   = 1
	DefaultLockTimeout = 30 * time.Second
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration of a command.
// This struct is the "final, validated" config.
type Config struct {
	DBBackend schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext

	Window    schema.Window
	HasWindow bool // Both --start and --end were given

	Filter    schema.GroupFilter
	CreatorDB int
	TxMode    schema.TxMode
	DryRun    bool

	Output     schema.OutputMode
	OutputFile string
	UseColors  bool
	Verbose    bool

	TargetVersion int    // Migration target (< 0 = latest, 0 = drop everything)
	InputFile     string // CSV file for segments load
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	DBBackend  string `mapstructure:"db-backend"`
	DBConnect  string `mapstructure:"db-connect"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Color      string `mapstructure:"color"`
	Verbose    bool   `mapstructure:"verbose"`
	CreatorDB  int    `mapstructure:"creator-db"`

	// --- Fields shared by coalesceCmd and segmentsCmd ---
	Start          string `mapstructure:"start"`
	End            string `mapstructure:"end"`
	IFOs           string `mapstructure:"ifos"`
	Names          string `mapstructure:"names"`
	DefinerVersion int    `mapstructure:"definer-version"`

	// --- Fields from coalesceCmd.Flags() ---
	TxMode string `mapstructure:"tx-mode"`
	DryRun bool   `mapstructure:"dry-run"`

	// --- Fields from migrateCmd.Flags() ---
	TargetVersion int `mapstructure:"target-version"`

	// --- Fields from loadCmd.Flags() ---
	File string `mapstructure:"file"`
}

// ProcessProfilingConfig enables profiling when a prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// Clone returns a copy of the config that shares no slices with the original.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Filter.IFOs = slices.Clone(c.Filter.IFOs)
	clone.Filter.Names = slices.Clone(c.Filter.Names)
	return &clone
}

// RequireWindow returns an error unless a window was configured.
func (c *Config) RequireWindow() error {
	if !c.HasWindow {
		return fmt.Errorf("both --start and --end are required")
	}
	return nil
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processWindow(cfg, input, now); err != nil {
		return err
	}
	return processFilter(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' (e.g. user:pass@tcp(host:port)/dbname)")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the flag-like fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.DryRun = input.DryRun
	cfg.Verbose = input.Verbose
	cfg.InputFile = strings.TrimSpace(input.File)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	cfg.TxMode = schema.TxMode(strings.ToLower(input.TxMode))
	if _, ok := schema.ValidTxModes[cfg.TxMode]; !ok {
		return fmt.Errorf("invalid tx mode '%s'. must be window, group", input.TxMode)
	}

	if input.CreatorDB <= 0 {
		return fmt.Errorf("creator-db must be greater than 0 (received %d)", input.CreatorDB)
	}
	cfg.CreatorDB = input.CreatorDB

	cfg.TargetVersion = input.TargetVersion

	return nil
}

// validateBackendConfig validates the segment database backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.DBBackend = schema.DatabaseBackend(strings.ToLower(input.DBBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.DBBackend]; !ok {
		return fmt.Errorf("invalid database backend '%s'. must be sqlite, mysql, postgresql", input.DBBackend)
	}
	cfg.DBConnect = input.DBConnect
	return ValidateDatabaseConnectionString(cfg.DBBackend, cfg.DBConnect)
}

// processWindow parses the start and end of the coalescing window.
func processWindow(cfg *Config, input *ConfigRawInput, now time.Time) error {
	start, end := strings.TrimSpace(input.Start), strings.TrimSpace(input.End)
	if start == "" && end == "" {
		cfg.HasWindow = false
		return nil
	}
	if start == "" || end == "" {
		return fmt.Errorf("--start and --end must be given together")
	}

	startGPS, err := ParseGPSTime(start, now)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	endGPS, err := ParseGPSTime(end, now)
	if err != nil {
		return fmt.Errorf("invalid end: %w", err)
	}
	if startGPS > endGPS {
		return fmt.Errorf("start time (%d) cannot be after end time (%d)", startGPS, endGPS)
	}

	cfg.Window = schema.Window{Start: startGPS, End: endGPS}
	cfg.HasWindow = true
	return nil
}

// processFilter builds the definer filter.
func processFilter(cfg *Config, input *ConfigRawInput) error {
	if input.DefinerVersion <= 0 {
		return fmt.Errorf("definer-version must be greater than 0 (received %d)", input.DefinerVersion)
	}
	cfg.Filter = schema.GroupFilter{
		IFOs:    schema.SplitList(input.IFOs),
		Names:   schema.SplitList(input.Names),
		Version: input.DefinerVersion,
	}
	return nil
}
