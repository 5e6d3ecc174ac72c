package contract

import (
	"testing"
	"time"

	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

// validInput returns a raw input equivalent to the CLI defaults.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		DBBackend:      string(schema.SQLiteBackend),
		Output:         "text",
		Color:          "yes",
		TargetVersion:  -1,
		CreatorDB:      DefaultCreatorDB,
		DefinerVersion: schema.DefaultDefinerVersion,
		TxMode:         string(schema.WindowTx),
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*ConfigRawInput)
		expectError string
		check       func(*testing.T, *Config)
	}{
		{
			name: "valid minimal config",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.SQLiteBackend, cfg.DBBackend)
				assert.Equal(t, schema.WindowTx, cfg.TxMode)
				assert.Equal(t, schema.TextOut, cfg.Output)
				assert.True(t, cfg.UseColors)
				assert.False(t, cfg.HasWindow)
				assert.Equal(t, 1, cfg.Filter.Version)
			},
		},
		{
			name: "window in gps seconds",
			modify: func(in *ConfigRawInput) {
				in.Start = "1000000000"
				in.End = "1000003600"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.HasWindow)
				assert.Equal(t, schema.Window{Start: 1000000000, End: 1000003600}, cfg.Window)
			},
		},
		{
			name: "window in rfc3339",
			modify: func(in *ConfigRawInput) {
				in.Start = "2011-09-14T01:46:25Z"
				in.End = "now"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, int64(1000000000), cfg.Window.Start)
				assert.Equal(t, GPSFromTime(fixedNow), cfg.Window.End)
			},
		},
		{
			name: "start without end",
			modify: func(in *ConfigRawInput) {
				in.Start = "100"
			},
			expectError: "must be given together",
		},
		{
			name: "start after end",
			modify: func(in *ConfigRawInput) {
				in.Start = "200"
				in.End = "100"
			},
			expectError: "cannot be after end time",
		},
		{
			name: "ifos and names are split",
			modify: func(in *ConfigRawInput) {
				in.IFOs = "H1, H2,H1"
				in.Names = "DMT-SCIENCE"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"H1", "H2"}, cfg.Filter.IFOs)
				assert.Equal(t, []string{"DMT-SCIENCE"}, cfg.Filter.Names)
			},
		},
		{
			name:        "invalid output",
			modify:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: "invalid output format",
		},
		{
			name:        "invalid tx mode",
			modify:      func(in *ConfigRawInput) { in.TxMode = "row" },
			expectError: "invalid tx mode",
		},
		{
			name:        "invalid color",
			modify:      func(in *ConfigRawInput) { in.Color = "maybe" },
			expectError: "invalid --color value",
		},
		{
			name:        "invalid backend",
			modify:      func(in *ConfigRawInput) { in.DBBackend = "db2" },
			expectError: "invalid database backend",
		},
		{
			name:        "mysql without connection string",
			modify:      func(in *ConfigRawInput) { in.DBBackend = "mysql" },
			expectError: "db-connect is required",
		},
		{
			name:        "zero definer version",
			modify:      func(in *ConfigRawInput) { in.DefinerVersion = 0 },
			expectError: "definer-version",
		},
		{
			name:        "zero creator db",
			modify:      func(in *ConfigRawInput) { in.CreatorDB = 0 },
			expectError: "creator-db",
		},
		{
			name:   "upper case modes are normalized",
			modify: func(in *ConfigRawInput) { in.TxMode = "GROUP"; in.Output = "JSON" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.GroupTx, cfg.TxMode)
				assert.Equal(t, schema.JSONOut, cfg.Output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			if tt.modify != nil {
				tt.modify(input)
			}
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input, fixedNow)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestRequireWindow(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireWindow())
	cfg.HasWindow = true
	assert.NoError(t, cfg.RequireWindow())
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Filter: schema.GroupFilter{IFOs: []string{"H1"}, Names: []string{"A"}, Version: 1}, DryRun: true}
	clone := cfg.Clone()
	assert.Equal(t, cfg, clone)

	clone.Filter.IFOs[0] = "L1"
	clone.DryRun = false
	assert.Equal(t, "H1", cfg.Filter.IFOs[0])
	assert.True(t, cfg.DryRun)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/segments", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/segments", true},
		{"mysql missing db", schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=segments", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=segments", true},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "segcoalesce"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "segcoalesce", profile.Prefix)
}
