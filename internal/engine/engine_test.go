package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsql/vigil/internal/adapter"
	"github.com/vigilsql/vigil/internal/testutil"
	"github.com/vigilsql/vigil/pkg/rule"
)

// fakeDB is the sqlmock connection handed to the next fake adapter that
// connects. Set it before calling New.
var fakeDB *sql.DB

func init() {
	adapter.Register("fake", func(logger *slog.Logger) adapter.Adapter {
		return &fakeAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
	})
}

// fakeAdapter speaks the duckdb dialect but executes against sqlmock.
type fakeAdapter struct {
	adapter.BaseSQLAdapter
}

func (a *fakeAdapter) Connect(ctx context.Context, cfg adapter.Config) error {
	if fakeDB == nil {
		return fmt.Errorf("no fake database installed")
	}
	a.DB = fakeDB
	a.Cfg = cfg
	return nil
}

func (a *fakeAdapter) LoadCSV(ctx context.Context, tableName, filePath string) error {
	return a.LoadCSVGeneric(ctx, tableName, filePath)
}

func (a *fakeAdapter) DialectName() string { return "duckdb" }

func newTestRunner(t *testing.T) (*Runner, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	fakeDB = db
	t.Cleanup(func() {
		fakeDB = nil
		_ = db.Close()
	})

	runner, err := New(Config{
		Adapter: adapter.Config{Type: "fake", Schema: "main"},
		Logger:  testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = runner.Close() })

	return runner, mock
}

func outcomeRow(name string, total, failed int64, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"rule_name", "total_rows", "failed_rows", "passed_rows", "status"}).
		AddRow(name, total, failed, total-failed, status)
}

func rangeRule(name, table, column string) rule.Rule {
	return rule.Rule{
		ID:      name,
		Name:    name,
		Type:    rule.ValueRange,
		Table1:  &rule.TableRef{Table: table},
		Params:  map[string]any{"min_value": float64(0), "max_value": float64(100)},
		Enabled: true,
	}
}

func TestRunAllPass(t *testing.T) {
	runner, mock := newTestRunner(t)

	r := rangeRule("age_range", "users", "")
	r.TargetColumn = "age"

	mock.ExpectQuery("SELECT").WillReturnRows(outcomeRow("age_range", 100, 0, "PASS"))

	summary, err := runner.Run(context.Background(), &rule.Set{
		Name:  "checks",
		Rules: []rule.Rule{r},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalRules)
	assert.Equal(t, 1, summary.PassedRules)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, rule.StatusPass, summary.Results[0].Status)
	assert.Equal(t, int64(100), summary.Results[0].TotalRows)
	assert.NotEmpty(t, summary.Results[0].GeneratedSQL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunErrorIsolation(t *testing.T) {
	runner, mock := newTestRunner(t)

	good := rangeRule("good", "users", "")
	good.TargetColumn = "age"

	// Invalid identifier fails compilation, never reaches the database.
	badCompile := rangeRule("bad_compile", "users", "")
	badCompile.TargetColumn = "age; DROP TABLE users"

	badExec := rangeRule("bad_exec", "missing_table", "")
	badExec.TargetColumn = "age"

	mock.ExpectQuery("SELECT").WillReturnRows(outcomeRow("good", 50, 0, "PASS"))
	mock.ExpectQuery("SELECT").WillReturnError(fmt.Errorf("table missing_table does not exist"))

	summary, err := runner.Run(context.Background(), &rule.Set{
		Name:  "checks",
		Rules: []rule.Rule{good, badCompile, badExec},
	})
	require.NoError(t, err, "rule failures must not abort the batch")

	assert.Equal(t, 3, summary.TotalRules)
	assert.Equal(t, 1, summary.PassedRules)
	assert.Equal(t, 2, summary.ErrorRules)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, rule.StatusError, summary.Results[1].Status)
	assert.Contains(t, summary.Results[1].ErrorMessage, "compilation failed")
	assert.Equal(t, rule.StatusError, summary.Results[2].Status)
	assert.Contains(t, summary.Results[2].ErrorMessage, "execution failed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunEmptyResultIsError(t *testing.T) {
	runner, mock := newTestRunner(t)

	r := rangeRule("empty", "users", "")
	r.TargetColumn = "age"

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"rule_name"}))

	summary, err := runner.Run(context.Background(), &rule.Set{
		Name:  "checks",
		Rules: []rule.Rule{r},
	})
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, rule.StatusError, summary.Results[0].Status)
	assert.Contains(t, summary.Results[0].ErrorMessage, "no rows")
}

func TestRunSeverityDowngrade(t *testing.T) {
	runner, mock := newTestRunner(t)

	r := rangeRule("soft_range", "users", "")
	r.TargetColumn = "age"
	r.Severity = rule.SeverityWarning

	mock.ExpectQuery("SELECT").WillReturnRows(outcomeRow("soft_range", 100, 5, "FAIL"))

	summary, err := runner.Run(context.Background(), &rule.Set{
		Name:  "checks",
		Rules: []rule.Rule{r},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.WarningRules)
	assert.Equal(t, 0, summary.FailedRules)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, rule.StatusWarning, summary.Results[0].Status)
}

func TestRunSkipsDisabledRules(t *testing.T) {
	runner, mock := newTestRunner(t)

	enabled := rangeRule("enabled", "users", "")
	enabled.TargetColumn = "age"
	disabled := rangeRule("disabled", "users", "")
	disabled.TargetColumn = "age"
	disabled.Enabled = false

	mock.ExpectQuery("SELECT").WillReturnRows(outcomeRow("enabled", 10, 0, "PASS"))

	summary, err := runner.Run(context.Background(), &rule.Set{
		Name:  "checks",
		Rules: []rule.Rule{enabled, disabled},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalRules)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunComplex(t *testing.T) {
	runner, mock := newTestRunner(t)

	r1 := rangeRule("range_check", "users", "")
	r1.TargetColumn = "age"
	r2 := rangeRule("score_check", "users", "")
	r2.TargetColumn = "score"

	rows := sqlmock.NewRows([]string{"rule_name", "total_rows", "failed_rows", "passed_rows", "status"}).
		AddRow("range_check", int64(100), int64(0), int64(100), "PASS").
		AddRow("score_check", int64(100), int64(3), int64(97), "FAIL")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	summary, err := runner.RunComplex(context.Background(), &rule.ComplexRule{
		Name:       "combined",
		Expression: "rule_1 AND rule_2",
		Rules:      map[string]rule.Rule{"rule_1": r1, "rule_2": r2},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalRules)
	assert.Equal(t, 1, summary.PassedRules)
	assert.Equal(t, 1, summary.FailedRules)
}

func TestParseOutcome(t *testing.T) {
	ru := &rule.Rule{ID: "r1", Name: "stat_match"}

	res := parseOutcome(ru, map[string]any{
		"rule_name":   "stat_match",
		"total_rows":  int64(1),
		"failed_rows": int64(0),
		"passed_rows": int64(1),
		"status":      "PASS",
		"table1_stat": 42.0,
		"table2_stat": 42.0,
	})

	assert.Equal(t, rule.StatusPass, res.Status)
	assert.Equal(t, int64(1), res.TotalRows)
	require.NotNil(t, res.Details)
	assert.Equal(t, 42.0, res.Details["table1_stat"])
}

func TestParseOutcomeUnexpectedStatus(t *testing.T) {
	ru := &rule.Rule{Name: "weird"}

	res := parseOutcome(ru, map[string]any{"status": "MAYBE"})
	assert.Equal(t, rule.StatusError, res.Status)
	assert.Contains(t, res.ErrorMessage, "unexpected status")
}
