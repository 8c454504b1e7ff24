package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/vigilsql/vigil/pkg/rule"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite run-history store.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the SQLite database at path, creating parent directories as
// needed. Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("opened state store", "path", path)
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func generateID() string {
	return uuid.New().String()
}

// CreateRun records the start of a validation run.
func (s *SQLiteStore) CreateRun(target, ruleSet string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Target:    target,
		RuleSet:   ruleSet,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("target", target))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, target, rule_set, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Target, run.RuleSet, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// CompleteRun marks a run as finished and records the aggregate counts.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, summary rule.Summary, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ?,
		        total_rules = ?, passed_rules = ?, failed_rules = ?, warning_rules = ?, error_rules = ?
		 WHERE id = ?`,
		status, now, errorPtr,
		summary.TotalRules, summary.PassedRules, summary.FailedRules, summary.WarningRules, summary.ErrorRules,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, target, rule_set, status, started_at, completed_at, error,
		        total_rules, passed_rules, failed_rules, warning_rules, error_rules
		 FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, target, rule_set, status, started_at, completed_at, error,
		        total_rules, passed_rules, failed_rules, warning_rules, error_rules
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&run.ID, &run.Target, &run.RuleSet, &run.Status, &run.StartedAt, &completedAt, &errMsg,
		&run.TotalRules, &run.PassedRules, &run.FailedRules, &run.WarningRules, &run.ErrorRules)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}

// SaveOutcome records one rule's result within a run.
func (s *SQLiteStore) SaveOutcome(runID string, res rule.Result) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errorPtr *string
	if res.ErrorMessage != "" {
		errorPtr = &res.ErrorMessage
	}

	_, err := s.db.Exec(
		`INSERT INTO rule_outcomes (id, run_id, rule_id, rule_name, status, total_rows, failed_rows, passed_rows, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		generateID(), runID, res.RuleID, res.RuleName, res.Status,
		res.TotalRows, res.FailedRows, res.PassedRows, errorPtr, res.DurationMS, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save rule outcome: %w", err)
	}
	return nil
}

// GetOutcomes retrieves all rule outcomes for a run in insertion order.
func (s *SQLiteStore) GetOutcomes(runID string) ([]*RuleOutcome, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, rule_id, rule_name, status, total_rows, failed_rows, passed_rows, error, duration_ms, created_at
		 FROM rule_outcomes WHERE run_id = ? ORDER BY created_at`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*RuleOutcome
	for rows.Next() {
		o := &RuleOutcome{}
		var errMsg sql.NullString
		err := rows.Scan(&o.ID, &o.RunID, &o.RuleID, &o.RuleName, &o.Status,
			&o.TotalRows, &o.FailedRows, &o.PassedRows, &errMsg, &o.DurationMS, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule outcome: %w", err)
		}
		if errMsg.Valid {
			o.Error = errMsg.String
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
