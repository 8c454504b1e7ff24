package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", func(logger *slog.Logger) Adapter {
		return NewDuckDBAdapter(logger)
	})
}

// DuckDBAdapter validates data in DuckDB databases. It is the default
// target for local CSV workflows thanks to DuckDB's native CSV reader.
type DuckDBAdapter struct {
	BaseSQLAdapter
}

// NewDuckDBAdapter creates a new DuckDB adapter.
func NewDuckDBAdapter(logger *slog.Logger) *DuckDBAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuckDBAdapter{BaseSQLAdapter{Logger: logger}}
}

// Connect opens the DuckDB database at cfg.Path (":memory:" or "" for an
// in-memory database).
func (a *DuckDBAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.Logger.Debug("connected to duckdb", "path", cfg.Path)
	return nil
}

// LoadCSV loads a CSV file using DuckDB's read_csv_auto, which infers
// column types from the data.
func (a *DuckDBAdapter) LoadCSV(ctx context.Context, tableName, filePath string) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	loadSQL := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s')",
		tableName, filePath)
	if _, err := a.DB.ExecContext(ctx, loadSQL); err != nil {
		return fmt.Errorf("failed to load csv into %s: %w", tableName, err)
	}
	a.Logger.Debug("loaded csv", "table", tableName, "path", filePath)
	return nil
}

// DialectName returns the compiler dialect for DuckDB.
func (a *DuckDBAdapter) DialectName() string {
	return "duckdb"
}
