package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend holding the segment tables.
	DatabaseBackend string

	// Table names one of the two interval collections of a segment database.
	Table string

	// TxMode controls how much of a coalescing pass shares one transaction.
	TxMode string

	// Outcome is the final state of one group within a run.
	Outcome string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
)

// Interval collections. Both are coalesced independently and never merged with each other.
const (
	SegmentTable Table = "segment"         // primary
	SummaryTable Table = "segment_summary" // summary
)

// Transaction modes.
const (
	WindowTx TxMode = "window" // default: every group in one transaction
	GroupTx  TxMode = "group"  // commit after each group
)

// Group outcomes.
const (
	SucceededOutcome  Outcome = "succeeded"
	UnchangedOutcome  Outcome = "unchanged"
	FailedOutcome     Outcome = "failed"
	RolledBackOutcome Outcome = "rolled back"
	SkippedOutcome    Outcome = "skipped"
)

// DefaultDefinerVersion is the segment_definer version that gets coalesced.
const DefaultDefinerVersion = 1

// CoalesceDomain is recorded in the process table for runs of this tool.
const CoalesceDomain = "coalesce_local"

// LoadDomain is recorded in the process table for seeding runs.
const LoadDomain = "segment_load"

// AllTables lists the interval collections in processing order.
var AllTables = []Table{SegmentTable, SummaryTable}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
}

// ValidTxModes lists all valid transaction modes.
var ValidTxModes = map[TxMode]struct{}{
	WindowTx: {},
	GroupTx:  {},
}

// ValidTables lists all interval collections.
var ValidTables = map[Table]struct{}{
	SegmentTable: {},
	SummaryTable: {},
}
