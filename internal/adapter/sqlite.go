package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	Register("sqlite", func(logger *slog.Logger) Adapter {
		return NewSQLiteAdapter(logger)
	})
}

// SQLiteAdapter validates data in SQLite databases. Note that stock
// SQLite has no REGEXP function, so template rules require a build with
// the regexp extension loaded.
type SQLiteAdapter struct {
	BaseSQLAdapter
}

// NewSQLiteAdapter creates a new SQLite adapter.
func NewSQLiteAdapter(logger *slog.Logger) *SQLiteAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteAdapter{BaseSQLAdapter{Logger: logger}}
}

// Connect opens the SQLite database at cfg.Path.
func (a *SQLiteAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.Logger.Debug("connected to sqlite", "path", path)
	return nil
}

// LoadCSV uses the generic row-by-row loader.
func (a *SQLiteAdapter) LoadCSV(ctx context.Context, tableName, filePath string) error {
	return a.LoadCSVGeneric(ctx, tableName, filePath)
}

// DialectName returns the compiler dialect for SQLite.
func (a *SQLiteAdapter) DialectName() string {
	return "sqlite"
}
