package suggest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsql/vigil/pkg/rule"
	"github.com/vigilsql/vigil/pkg/tabular"
)

// mockProvider returns a canned response or error.
type mockProvider struct {
	response string
	err      error
}

func (m *mockProvider) Complete(_ context.Context, _, _ string, _ int, _ float64) (string, error) {
	return m.response, m.err
}

func installMock(t *testing.T, p Provider, err error) {
	t.Helper()
	orig := NewProvider
	NewProvider = func(_, _ string) (Provider, error) {
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	t.Cleanup(func() { NewProvider = orig })
}

func testTable(t *testing.T) *tabular.Table {
	t.Helper()
	tbl, err := tabular.New(
		[]string{"id", "age", "email"},
		map[string][]tabular.Value{
			"id":    {"1", "2", "3"},
			"age":   {"30", "45", nil},
			"email": {"a@example.com", "b@example.com", "c@example.com"},
		},
	)
	require.NoError(t, err)
	return tbl
}

func TestProfile(t *testing.T) {
	profile := Profile("users", testTable(t))

	assert.Equal(t, "users", profile.Table)
	assert.Equal(t, 3, profile.Rows)
	require.Len(t, profile.Columns, 3)

	id := profile.Columns[0]
	assert.Equal(t, 0, id.NullCount)
	assert.Equal(t, 3, id.DistinctCount)
	require.NotNil(t, id.Min)
	assert.Equal(t, 1.0, *id.Min)
	assert.Equal(t, 3.0, *id.Max)

	age := profile.Columns[1]
	assert.Equal(t, 1, age.NullCount)
	require.NotNil(t, age.Max)
	assert.Equal(t, 45.0, *age.Max)

	email := profile.Columns[2]
	assert.Nil(t, email.Min, "non-numeric column must not get bounds")
}

func TestSuggestUsesProvider(t *testing.T) {
	installMock(t, &mockProvider{response: "```json\n" + `[
		{"name": "age_range", "rule_type": "value_range", "target_column": "age",
		 "parameters": {"min_value": 0, "max_value": 120}}
	]` + "\n```"}, nil)

	rules := Suggest(context.Background(), TableProfile{Table: "users"}, Options{})
	require.Len(t, rules, 1)
	assert.Equal(t, "age_range", rules[0].Name)
	assert.Equal(t, rule.ValueRange, rules[0].Type)
	assert.False(t, rules[0].Enabled, "suggestions must come back disabled")
	assert.Equal(t, "llm", rules[0].CreatedBy)
	require.NotNil(t, rules[0].Table1)
	assert.Equal(t, "users", rules[0].Table1.Table)
}

func TestSuggestDropsInvalidRules(t *testing.T) {
	installMock(t, &mockProvider{response: `[
		{"name": "good", "tabular_type": "not_null", "target_column": "id"},
		{"name": "bad", "rule_type": "nonsense", "target_column": "id"}
	]`}, nil)

	rules := Suggest(context.Background(), TableProfile{Table: "users"}, Options{})
	require.Len(t, rules, 1)
	assert.Equal(t, "good", rules[0].Name)
}

func TestSuggestFallsBackOnProviderError(t *testing.T) {
	installMock(t, nil, fmt.Errorf("no api key"))

	profile := Profile("users", testTable(t))
	rules := Suggest(context.Background(), profile, Options{})
	assert.NotEmpty(t, rules, "heuristics must kick in when no provider is available")
}

func TestSuggestFallsBackOnGarbageResponse(t *testing.T) {
	installMock(t, &mockProvider{response: "I cannot help with that."}, nil)

	profile := Profile("users", testTable(t))
	rules := Suggest(context.Background(), profile, Options{})
	assert.NotEmpty(t, rules)
	for _, r := range rules {
		assert.Equal(t, "heuristic", r.CreatedBy)
	}
}

func TestHeuristic(t *testing.T) {
	profile := Profile("users", testTable(t))
	rules := Heuristic(profile)

	byName := make(map[string]rule.Rule, len(rules))
	for _, r := range rules {
		byName[r.Name] = r
		assert.False(t, r.Enabled)
		require.NoError(t, r.Validate())
	}

	assert.Contains(t, byName, "id_not_null")
	assert.Contains(t, byName, "id_unique")
	assert.Contains(t, byName, "id_range")
	assert.Contains(t, byName, "email_format")

	_, hasAgeNotNull := byName["age_not_null"]
	assert.False(t, hasAgeNotNull, "column with observed nulls must not get a not-null rule")

	ageRange := byName["age_range"]
	minVal, ok := ageRange.NumberParam("min_value")
	require.True(t, ok)
	assert.Less(t, minVal, 30.0, "range must be widened below the observed min")
}

func TestStripMarkdownFences(t *testing.T) {
	assert.Equal(t, `[1]`, stripMarkdownFences("```json\n[1]\n```"))
	assert.Equal(t, `[1]`, stripMarkdownFences("[1]"))
	assert.Equal(t, `[1]`, stripMarkdownFences("~~~\n[1]\n~~~"))
}

func TestBuildUserPrompt(t *testing.T) {
	profile := Profile("users", testTable(t))
	prompt := buildUserPrompt(profile)

	assert.True(t, strings.Contains(prompt, `"users"`))
	assert.Contains(t, prompt, "3 rows")
	assert.Contains(t, prompt, "age: 1 nulls")
}
