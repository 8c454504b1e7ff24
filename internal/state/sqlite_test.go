package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsql/vigil/internal/testutil"
	"github.com/vigilsql/vigil/pkg/rule"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGetRun(t *testing.T) {
	store := newTestStore(t)

	run, err := store.CreateRun("duckdb", "checks.json")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "duckdb", got.Target)
	assert.Equal(t, "checks.json", got.RuleSet)
	assert.Nil(t, got.CompletedAt)
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRun("missing")
	assert.ErrorContains(t, err, "run not found")
}

func TestCompleteRun(t *testing.T) {
	store := newTestStore(t)

	run, err := store.CreateRun("duckdb", "checks.json")
	require.NoError(t, err)

	summary := rule.Summarize([]rule.Result{
		{RuleName: "a", Status: rule.StatusPass},
		{RuleName: "b", Status: rule.StatusFail},
		{RuleName: "c", Status: rule.StatusError, ErrorMessage: "boom"},
	})
	require.NoError(t, store.CompleteRun(run.ID, RunStatusCompleted, summary, ""))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 3, got.TotalRules)
	assert.Equal(t, 1, got.PassedRules)
	assert.Equal(t, 1, got.FailedRules)
	assert.Equal(t, 1, got.ErrorRules)
}

func TestCompleteRunNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.CompleteRun("missing", RunStatusCompleted, rule.Summary{}, "")
	assert.ErrorContains(t, err, "run not found")
}

func TestSaveAndGetOutcomes(t *testing.T) {
	store := newTestStore(t)

	run, err := store.CreateRun("duckdb", "checks.json")
	require.NoError(t, err)

	require.NoError(t, store.SaveOutcome(run.ID, rule.Result{
		RuleID:     "r1",
		RuleName:   "age_range",
		Status:     rule.StatusPass,
		TotalRows:  100,
		PassedRows: 100,
		DurationMS: 12,
	}))
	require.NoError(t, store.SaveOutcome(run.ID, rule.Result{
		RuleID:       "r2",
		RuleName:     "email_format",
		Status:       rule.StatusError,
		ErrorMessage: "table not found",
	}))

	outcomes, err := store.GetOutcomes(run.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "age_range", outcomes[0].RuleName)
	assert.Equal(t, rule.StatusPass, outcomes[0].Status)
	assert.Equal(t, int64(100), outcomes[0].TotalRows)
	assert.Equal(t, "table not found", outcomes[1].Error)
}

func TestListRuns(t *testing.T) {
	store := newTestStore(t)

	for range 3 {
		_, err := store.CreateRun("duckdb", "checks.json")
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
