// Package engine orchestrates validation runs: it compiles rules into
// SQL, executes them against the target database, and aggregates the
// outcomes with per-rule error isolation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vigilsql/vigil/internal/adapter"
	"github.com/vigilsql/vigil/internal/state"
	"github.com/vigilsql/vigil/pkg/sqlgen"
)

// Config holds runner configuration.
type Config struct {
	// Adapter contains the target database configuration.
	Adapter adapter.Config
	// DefaultTable is used by rules that don't name their own table.
	DefaultTable string
	// StatePath is the path to the SQLite run-history database.
	// Empty disables run history.
	StatePath string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Runner executes rule sets against a target database.
type Runner struct {
	// Database adapter (lazy connected)
	db          adapter.Adapter
	dbConnected bool
	dbMu        sync.Mutex

	compiler *sqlgen.Compiler
	store    state.Store
	logger   *slog.Logger
	cfg      Config
}

// New creates a runner with a lazy database connection. The adapter is
// only connected when a run starts.
func New(cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := adapter.New(cfg.Adapter, logger)
	if err != nil {
		return nil, err
	}

	compiler := sqlgen.New(sqlgen.Context{
		Dialect:       db.DialectName(),
		DefaultSchema: cfg.Adapter.Schema,
		DefaultTable:  cfg.DefaultTable,
	})

	r := &Runner{
		db:       db,
		compiler: compiler,
		logger:   logger,
		cfg:      cfg,
	}

	if cfg.StatePath != "" {
		store := state.NewSQLiteStore(logger)
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to migrate state store: %w", err)
		}
		r.store = store
	}

	return r, nil
}

// Compiler exposes the rule compiler, for rendering SQL without executing.
func (r *Runner) Compiler() *sqlgen.Compiler {
	return r.compiler
}

// LoadCSV loads a CSV file into a table on the target database.
func (r *Runner) LoadCSV(ctx context.Context, tableName, filePath string) error {
	if err := r.ensureConnected(ctx); err != nil {
		return err
	}
	return r.db.LoadCSV(ctx, tableName, filePath)
}

// Close releases the database connection and the state store.
func (r *Runner) Close() error {
	var firstErr error
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			firstErr = err
		}
	}
	r.dbMu.Lock()
	defer r.dbMu.Unlock()
	if r.dbConnected {
		if err := r.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.dbConnected = false
	}
	return firstErr
}

func (r *Runner) ensureConnected(ctx context.Context) error {
	r.dbMu.Lock()
	defer r.dbMu.Unlock()
	if r.dbConnected {
		return nil
	}
	if err := r.db.Connect(ctx, r.cfg.Adapter); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", r.cfg.Adapter.Type, err)
	}
	r.dbConnected = true
	return nil
}
