package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsql/vigil/pkg/rule"
)

func TestGetKnownDialects(t *testing.T) {
	for _, name := range []string{"postgres", "mysql", "duckdb", "sqlite"} {
		d := Get(name)
		require.NotNil(t, d, name)
		assert.Equal(t, name, d.Name)
	}
}

func TestGetCaseInsensitive(t *testing.T) {
	assert.Equal(t, "postgres", Get("PostgreS").Name)
}

func TestGetUnknownFallsBackToANSI(t *testing.T) {
	d := Get("oracle")
	assert.Equal(t, "ansi", d.Name)
	assert.Equal(t, "NOT REGEXP_LIKE(email, '^a+$')", d.NotMatches("email", "^a+$"))
}

func TestNotMatches(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
	}{
		{"postgres", `email !~ '^a+$'`},
		{"mysql", `email NOT REGEXP '^a+$'`},
		{"duckdb", `NOT regexp_matches(email, '^a+$')`},
		{"sqlite", `email NOT REGEXP '^a+$'`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			assert.Equal(t, tt.want, Get(tt.dialect).NotMatches("email", "^a+$"))
		})
	}
}

func TestNotMatchesQuotesPattern(t *testing.T) {
	got := Get("postgres").NotMatches("name", "it's")
	assert.Equal(t, `name !~ 'it''s'`, got)
}

func TestEpochDiff(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
	}{
		{"postgres", "EXTRACT(EPOCH FROM (a - b))"},
		{"mysql", "TIMESTAMPDIFF(SECOND, b, a)"},
		{"duckdb", "epoch(a - b)"},
		{"sqlite", "(strftime('%s', a) - strftime('%s', b))"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			assert.Equal(t, tt.want, Get(tt.dialect).EpochDiff("a", "b"))
		})
	}
}

func TestStatExpr(t *testing.T) {
	d := Get("postgres")

	expr, err := d.StatExpr(rule.Sum, "amount")
	require.NoError(t, err)
	assert.Equal(t, "SUM(amount)", expr)

	expr, err = d.StatExpr(rule.CountDistinct, "id")
	require.NoError(t, err)
	assert.Equal(t, "COUNT(DISTINCT id)", expr)

	_, err = d.StatExpr("MEDIAN", "amount")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown statistical function")
}

func TestDefaultSchemas(t *testing.T) {
	assert.Equal(t, "public", Get("postgres").DefaultSchema)
	assert.Equal(t, "main", Get("duckdb").DefaultSchema)
	assert.Equal(t, "main", Get("sqlite").DefaultSchema)
	assert.Equal(t, "", Get("mysql").DefaultSchema)
}
