// Package segdb implements the segment database on top of database/sql.
package segdb

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names of a segment database.
const (
	processTable = "process"
	definerTable = "segment_definer"
)

// deleteChunkSize bounds the number of ids in one DELETE ... IN (...) statement.
const deleteChunkSize = 500

//go:embed migrations
var migrationsFS embed.FS

// Store is a segment database reachable through database/sql.
type Store struct {
	db          *sql.DB
	backend     schema.DatabaseBackend
	driverName  string
	creatorDB   int
	lockTimeout time.Duration
	locks       *keyedLocker
}

var _ contract.SegmentStore = &Store{} // Compile-time check

// Open connects to the segment database and creates any missing table.
func Open(backend schema.DatabaseBackend, connStr string, creatorDB int) (*Store, error) {
	db, driverName, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is readable and its directory is writable."
		}
		return nil, fmt.Errorf("%w: failed to connect to %s database: %w. %s", contract.ErrStorageUnavailable, backend, err, connDetail)
	}

	if err := ensureSchema(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create segment tables: %w", err)
	}

	if creatorDB <= 0 {
		creatorDB = contract.DefaultCreatorDB
	}
	return &Store{
		db:          db,
		backend:     backend,
		driverName:  driverName,
		creatorDB:   creatorDB,
		lockTimeout: contract.DefaultLockTimeout,
		locks:       newKeyedLocker(),
	}, nil
}

// openDB opens a connection pool for the backend without touching the schema.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, string, error) {
	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetDBFilePath()
		}
		db, err = sql.Open(driverName, sqliteDSN(dbPath))
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to open SQLite database at %q: %w. Check that the directory is writable", contract.ErrStorageUnavailable, dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		driverName = "mysql"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", contract.ErrStorageUnavailable, err)
		}

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=secret dbname=segments
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=segments", contract.ErrStorageUnavailable, err)
		}

	default:
		return nil, "", fmt.Errorf("unsupported backend: %s", backend)
	}
	return db, driverName, nil
}

// sqliteDSN makes file databases wait on busy locks and take the write lock at BEGIN.
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_txlock=immediate"
}

// migrationDir returns the embedded migration directory of a backend.
func migrationDir(backend schema.DatabaseBackend) (fs.FS, error) {
	var dir string
	switch backend {
	case schema.MySQLBackend:
		dir = "migrations/mysql"
	case schema.PostgreSQLBackend:
		dir = "migrations/postgres"
	default:
		dir = "migrations/sqlite"
	}
	return fs.Sub(migrationsFS, dir)
}

// ensureSchema runs the initial up migration. Every statement in it is idempotent.
func ensureSchema(db *sql.DB, backend schema.DatabaseBackend) error {
	dir, err := migrationDir(backend)
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}
	body, err := fs.ReadFile(dir, "000001_init.up.sql")
	if err != nil {
		return fmt.Errorf("failed to read initial migration: %w", err)
	}
	for stmt := range strings.SplitSeq(string(body), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// Backend returns the backend of the store.
func (s *Store) Backend() schema.DatabaseBackend {
	return s.backend
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders into $N for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// idColumn returns the primary key column of an interval table.
func idColumn(table schema.Table) (string, error) {
	switch table {
	case schema.SegmentTable:
		return "segment_id", nil
	case schema.SummaryTable:
		return "segment_sum_id", nil
	default:
		return "", fmt.Errorf("unknown interval table: %q", table)
	}
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// queryFailure tags err as a failed statement.
func queryFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", contract.ErrQueryFailure, op, err)
}
