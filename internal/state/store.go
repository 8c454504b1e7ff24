// Package state persists validation run history in a local SQLite
// database, so past outcomes can be inspected and compared across runs.
package state

import (
	"time"

	"github.com/vigilsql/vigil/pkg/rule"
)

// RunStatus represents the lifecycle state of a validation run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one execution of a rule set against a target.
type Run struct {
	ID          string
	Target      string
	RuleSet     string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string

	TotalRules   int
	PassedRules  int
	FailedRules  int
	WarningRules int
	ErrorRules   int
}

// RuleOutcome is one rule's persisted result within a run.
type RuleOutcome struct {
	ID         string
	RunID      string
	RuleID     string
	RuleName   string
	Status     rule.Status
	TotalRows  int64
	FailedRows int64
	PassedRows int64
	Error      string
	DurationMS int64
	CreatedAt  time.Time
}

// Store records validation runs and their per-rule outcomes.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(target, ruleSet string) (*Run, error)
	CompleteRun(id string, status RunStatus, summary rule.Summary, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	SaveOutcome(runID string, res rule.Result) error
	GetOutcomes(runID string) ([]*RuleOutcome, error)
}
