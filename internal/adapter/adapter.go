// Package adapter provides database adapter interfaces and implementations
// for executing compiled validation SQL against source databases.
package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResult is returned by QueryRowMap when the script produced no
// rows. The engine converts it into an ERROR outcome rather than a crash.
var ErrEmptyResult = errors.New("query returned no rows")

// Config holds the configuration for connecting to a database.
type Config struct {
	// Type specifies the database type (e.g., "duckdb", "postgres", "sqlite")
	Type string

	// Path is the file path for file-based databases (DuckDB, SQLite).
	// Use ":memory:" for an in-memory database.
	Path string

	// Host and Port locate network-based databases.
	Host string
	Port int

	// Database is the database name.
	Database string

	// Username and Password authenticate network databases.
	Username string
	Password string

	// Schema is the default schema to validate against.
	Schema string

	// Options contains additional driver-specific options.
	Options map[string]string
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is the executor collaborator: it runs compiled validation SQL
// and returns its single outcome row. Implementations must be safe for
// sequential use; the engine never shares one adapter across goroutines.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// QueryRowMap executes a script expected to yield exactly one row and
	// returns it as a column-name map. An empty result set returns
	// ErrEmptyResult.
	QueryRowMap(ctx context.Context, sql string) (map[string]any, error)

	// LoadCSV loads a CSV file into a table, creating it if needed.
	LoadCSV(ctx context.Context, tableName string, filePath string) error

	// DialectName returns the SQL dialect name for this adapter, used to
	// select the rule compiler's dialect automatically.
	DialectName() string
}

// ParseQualifiedName splits a table reference into schema and name,
// falling back to the given default schema.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// UnknownAdapterError is returned when an unknown adapter type is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q (available: %s)", e.Type, strings.Join(e.Available, ", "))
}
