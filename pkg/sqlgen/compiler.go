// Package sqlgen compiles data-quality rules into self-contained SQL
// scripts. Each script's final result set has exactly one row with
// rule_name, total_rows, failed_rows, passed_rows, and status columns
// (comparison rules add table1_stat and table2_stat). Compilation is pure:
// no generator touches a connection.
package sqlgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vigilsql/vigil/pkg/dialect"
	"github.com/vigilsql/vigil/pkg/rule"
)

// ErrUnsupportedRuleType is returned when a rule carries a tag the
// compiler has no generator for. It aborts only that rule's compilation.
var ErrUnsupportedRuleType = errors.New("unsupported rule type")

// Context carries the target the rules are compiled against. Connection
// metadata is opaque to the compiler; only the executor uses it.
type Context struct {
	// Dialect selects the SQL dialect; unknown names fall back to ANSI.
	Dialect string

	// DefaultSchema qualifies tables that name no schema of their own.
	// Empty means the dialect's default.
	DefaultSchema string

	// DefaultTable is the table single-table rules run against.
	DefaultTable string
}

// Compiler turns rules into SQL scripts for one generation context.
type Compiler struct {
	ctx Context
	d   *dialect.Dialect
}

// New creates a compiler for the given context.
func New(ctx Context) *Compiler {
	d := dialect.Get(ctx.Dialect)
	if ctx.DefaultSchema == "" {
		ctx.DefaultSchema = d.DefaultSchema
	}
	return &Compiler{ctx: ctx, d: d}
}

// Compile generates the SQL script for one rule, dispatching on its tag.
func (c *Compiler) Compile(r *rule.Rule) (string, error) {
	switch r.Type {
	case rule.ValueRange:
		return c.valueRangeSQL(r)
	case rule.ValueTemplate:
		return c.valueTemplateSQL(r)
	case rule.DataContinuity:
		return c.continuitySQL(r)
	case rule.SameStatComparison:
		return c.sameStatSQL(r)
	case rule.DifferentStatComparison:
		return c.differentStatSQL(r)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRuleType, r.Type)
	}
}

// targetTable returns the schema-qualified table a single-table rule runs
// against: the rule's own Table1 when set, otherwise the context default.
// Names are validated against the identifier allow-list.
func (c *Compiler) targetTable(r *rule.Rule) (string, error) {
	if r.Table1 != nil && r.Table1.Table != "" {
		return c.refTable(r.Table1)
	}
	if c.ctx.DefaultTable == "" {
		return "", fmt.Errorf("rule %q names no table and the generation context has no default", r.Name)
	}
	if !rule.ValidIdent(c.ctx.DefaultTable) {
		return "", fmt.Errorf("unsafe table name %q", c.ctx.DefaultTable)
	}
	if c.ctx.DefaultSchema == "" {
		return c.ctx.DefaultTable, nil
	}
	if !rule.ValidIdent(c.ctx.DefaultSchema) {
		return "", fmt.Errorf("unsafe schema name %q", c.ctx.DefaultSchema)
	}
	return c.ctx.DefaultSchema + "." + c.ctx.DefaultTable, nil
}

func checkColumn(col string) error {
	if col == "" {
		return fmt.Errorf("rule has no target column")
	}
	if !rule.ValidIdent(col) {
		return fmt.Errorf("unsafe column name %q", col)
	}
	return nil
}

// formatNumber renders a numeric parameter as a SQL literal without a
// trailing ".0" for whole values.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// predicateCheckSQL wraps a failing predicate in the standard one-row
// outcome scaffold. NULL target values are excluded from the denominator;
// they are neither pass nor fail.
func predicateCheckSQL(name, table, col, failing string) string {
	failed := fmt.Sprintf("SUM(CASE WHEN (%s) THEN 1 ELSE 0 END)", failing)
	return fmt.Sprintf(`SELECT
    %s AS rule_name,
    COUNT(*) AS total_rows,
    %s AS failed_rows,
    COUNT(*) - %s AS passed_rows,
    CASE WHEN %s = 0 THEN 'PASS' ELSE 'FAIL' END AS status
FROM %s
WHERE %s IS NOT NULL;`,
		rule.QuoteLiteral(name), failed, failed, failed, table, col)
}

// valueRangeSQL flags rows outside [min_value, max_value]. Either bound
// may be absent; with no bounds at all the predicate is the literal false,
// so the check passes vacuously. Absence of a constraint means nothing to
// check, not check everything.
func (c *Compiler) valueRangeSQL(r *rule.Rule) (string, error) {
	if err := checkColumn(r.TargetColumn); err != nil {
		return "", err
	}
	table, err := c.targetTable(r)
	if err != nil {
		return "", err
	}

	var conditions []string
	if minVal, ok := r.NumberParam("min_value"); ok {
		conditions = append(conditions, fmt.Sprintf("%s < %s", r.TargetColumn, formatNumber(minVal)))
	}
	if maxVal, ok := r.NumberParam("max_value"); ok {
		conditions = append(conditions, fmt.Sprintf("%s > %s", r.TargetColumn, formatNumber(maxVal)))
	}

	failing := "1=0"
	if len(conditions) > 0 {
		failing = strings.Join(conditions, " OR ")
	}

	return predicateCheckSQL(r.Name, table, r.TargetColumn, failing), nil
}

// valueTemplateSQL flags rows whose value does not match the configured
// regex. A missing pattern defaults to ".*", which matches everything and
// therefore passes vacuously.
func (c *Compiler) valueTemplateSQL(r *rule.Rule) (string, error) {
	if err := checkColumn(r.TargetColumn); err != nil {
		return "", err
	}
	table, err := c.targetTable(r)
	if err != nil {
		return "", err
	}

	pattern := r.StringParam("pattern", r.StringParam("regex_pattern", ".*"))
	failing := c.d.NotMatches(r.TargetColumn, pattern)

	return predicateCheckSQL(r.Name, table, r.TargetColumn, failing), nil
}

// continuitySQL checks for gaps in a sequence. In incremental mode a gap
// is any row whose value is not exactly one greater than its predecessor.
// In timestamp mode a gap is any adjacent pair more than max_gap_seconds
// apart (default one hour).
func (c *Compiler) continuitySQL(r *rule.Rule) (string, error) {
	if err := checkColumn(r.TargetColumn); err != nil {
		return "", err
	}
	table, err := c.targetTable(r)
	if err != nil {
		return "", err
	}

	col := r.TargetColumn
	if r.StringParam("sequence_type", "incremental") == "incremental" {
		return fmt.Sprintf(`WITH sequence_check AS (
    SELECT
        %s,
        LAG(%s) OVER (ORDER BY %s) AS prev_value
    FROM %s
    WHERE %s IS NOT NULL
),
gaps AS (
    SELECT COUNT(*) AS gap_count
    FROM sequence_check
    WHERE %s != prev_value + 1 AND prev_value IS NOT NULL
)
SELECT
    %s AS rule_name,
    (SELECT COUNT(*) FROM %s) AS total_rows,
    (SELECT gap_count FROM gaps) AS failed_rows,
    (SELECT COUNT(*) FROM %s) - (SELECT gap_count FROM gaps) AS passed_rows,
    CASE WHEN (SELECT gap_count FROM gaps) = 0 THEN 'PASS' ELSE 'FAIL' END AS status;`,
			col, col, col, table, col, col,
			rule.QuoteLiteral(r.Name), table, table), nil
	}

	maxGap := 3600.0
	if v, ok := r.NumberParam("max_gap_seconds"); ok {
		maxGap = v
	}
	diff := c.d.EpochDiff(col, fmt.Sprintf("LAG(%s) OVER (ORDER BY %s)", col, col))

	return fmt.Sprintf(`WITH timestamp_gaps AS (
    SELECT COUNT(*) AS gap_count
    FROM (
        SELECT
            %s,
            %s AS time_diff
        FROM %s
        WHERE %s IS NOT NULL
    ) t
    WHERE time_diff > %s
)
SELECT
    %s AS rule_name,
    (SELECT COUNT(*) FROM %s) AS total_rows,
    (SELECT gap_count FROM timestamp_gaps) AS failed_rows,
    (SELECT COUNT(*) FROM %s) - (SELECT gap_count FROM timestamp_gaps) AS passed_rows,
    CASE WHEN (SELECT gap_count FROM timestamp_gaps) = 0 THEN 'PASS' ELSE 'FAIL' END AS status;`,
		col, diff, table, col, formatNumber(maxGap),
		rule.QuoteLiteral(r.Name), table, table), nil
}

// refTable validates and qualifies one side of a comparison rule.
func (c *Compiler) refTable(ref *rule.TableRef) (string, error) {
	if ref == nil || ref.Table == "" {
		return "", fmt.Errorf("comparison rule is missing a table reference")
	}
	if !rule.ValidIdent(ref.Table) {
		return "", fmt.Errorf("unsafe table name %q", ref.Table)
	}
	if ref.Schema != "" && !rule.ValidIdent(ref.Schema) {
		return "", fmt.Errorf("unsafe schema name %q", ref.Schema)
	}
	return ref.Qualified(c.ctx.DefaultSchema), nil
}

// refColumns returns the validated column list of a reference, falling
// back to the rule's target column.
func refColumns(ref *rule.TableRef, fallback string) ([]string, error) {
	cols := ref.Columns
	if len(cols) == 0 && fallback != "" {
		cols = []string{fallback}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("comparison side %q has no columns", ref.Table)
	}
	for _, col := range cols {
		if err := checkColumn(col); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// comparisonSQL wraps two scalar statistics in the shared CTE scaffold.
// The logical result is a single row: total_rows is 1 and exactly one of
// failed_rows/passed_rows is 1.
func comparisonSQL(name, stat1, from1, filter1, stat2, from2, filter2 string, op rule.CompareOp) string {
	where1 := ""
	if filter1 != "" {
		where1 = "\n    WHERE " + filter1
	}
	where2 := ""
	if filter2 != "" {
		where2 = "\n    WHERE " + filter2
	}

	return fmt.Sprintf(`WITH stats1 AS (
    SELECT %s AS stat_value
    FROM %s%s
),
stats2 AS (
    SELECT %s AS stat_value
    FROM %s%s
),
comparison AS (
    SELECT
        s1.stat_value AS table1_stat,
        s2.stat_value AS table2_stat,
        CASE WHEN s1.stat_value %s s2.stat_value THEN 'PASS' ELSE 'FAIL' END AS status
    FROM stats1 s1, stats2 s2
)
SELECT
    %s AS rule_name,
    1 AS total_rows,
    CASE WHEN status = 'FAIL' THEN 1 ELSE 0 END AS failed_rows,
    CASE WHEN status = 'PASS' THEN 1 ELSE 0 END AS passed_rows,
    status,
    table1_stat,
    table2_stat
FROM comparison;`,
		stat1, from1, where1,
		stat2, from2, where2,
		op,
		rule.QuoteLiteral(name))
}

// sameStatSQL compares the same statistic computed over a column of each
// table, under optional independent filters.
func (c *Compiler) sameStatSQL(r *rule.Rule) (string, error) {
	table1, err := c.refTable(r.Table1)
	if err != nil {
		return "", err
	}
	table2, err := c.refTable(r.Table2)
	if err != nil {
		return "", err
	}

	cols1, err := refColumns(r.Table1, r.TargetColumn)
	if err != nil {
		return "", err
	}
	cols2, err := refColumns(r.Table2, r.TargetColumn)
	if err != nil {
		return "", err
	}

	fn := rule.StatFunction(r.StringParam("statistical_function", string(rule.CountDistinct)))
	op := rule.CompareOp(r.StringParam("comparison_operator", string(rule.OpEqual)))
	if !op.Valid() {
		return "", fmt.Errorf("unknown comparison operator %q", op)
	}

	stat1, err := c.d.StatExpr(fn, cols1[0])
	if err != nil {
		return "", err
	}
	stat2, err := c.d.StatExpr(fn, cols2[0])
	if err != nil {
		return "", err
	}

	return comparisonSQL(r.Name, stat1, table1, r.Table1.Filter, stat2, table2, r.Table2.Filter, op), nil
}

// differentStatSQL compares per-side statistics: table1 may apply its
// function to several columns and sum the results, which covers the
// ledger-reconciliation shape "sum of components equals a single total".
func (c *Compiler) differentStatSQL(r *rule.Rule) (string, error) {
	table1, err := c.refTable(r.Table1)
	if err != nil {
		return "", err
	}
	table2, err := c.refTable(r.Table2)
	if err != nil {
		return "", err
	}

	cols1, err := refColumns(r.Table1, r.TargetColumn)
	if err != nil {
		return "", err
	}
	cols2, err := refColumns(r.Table2, r.TargetColumn)
	if err != nil {
		return "", err
	}

	op := rule.CompareOp(r.StringParam("comparison_operator", string(rule.OpEqual)))
	if !op.Valid() {
		return "", fmt.Errorf("unknown comparison operator %q", op)
	}

	fn1 := r.Table1.Function
	if fn1 == "" {
		fn1 = rule.Sum
	}
	fn2 := r.Table2.Function
	if fn2 == "" {
		fn2 = rule.Sum
	}

	stat1, err := c.multiColumnStat(fn1, cols1)
	if err != nil {
		return "", err
	}
	stat2, err := c.d.StatExpr(fn2, cols2[0])
	if err != nil {
		return "", err
	}

	filter1 := r.Table1.Filter
	if filter1 == "" {
		filter1 = "1=1"
	}
	filter2 := r.Table2.Filter
	if filter2 == "" {
		filter2 = "1=1"
	}

	return comparisonSQL(r.Name, stat1, table1, filter1, stat2, table2, filter2, op), nil
}

// multiColumnStat applies fn to each column and sums the results when
// there is more than one.
func (c *Compiler) multiColumnStat(fn rule.StatFunction, cols []string) (string, error) {
	if len(cols) == 1 {
		return c.d.StatExpr(fn, cols[0])
	}
	parts := make([]string, len(cols))
	for i, col := range cols {
		expr, err := c.d.StatExpr(fn, col)
		if err != nil {
			return "", err
		}
		parts[i] = expr
	}
	return "(" + strings.Join(parts, " + ") + ")", nil
}
