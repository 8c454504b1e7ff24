// Package rule defines the data-quality rule vocabulary: rule types,
// parameters, table references, and the result/summary types produced by
// executing rules. It contains data and pure aggregation only; SQL
// generation lives in pkg/sqlgen and in-memory evaluation in pkg/tabular.
package rule

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Type identifies a SQL-oriented rule. Rules of these types compile to
// SQL scripts via pkg/sqlgen.
type Type string

const (
	ValueRange              Type = "value_range"
	ValueTemplate           Type = "value_template"
	DataContinuity          Type = "data_continuity"
	SameStatComparison      Type = "same_statistical_comparison"
	DifferentStatComparison Type = "different_statistical_comparison"
)

// SQLTypes lists all SQL-oriented rule types.
func SQLTypes() []Type {
	return []Type{ValueRange, ValueTemplate, DataContinuity, SameStatComparison, DifferentStatComparison}
}

// Valid reports whether t is a known SQL rule type.
func (t Type) Valid() bool {
	switch t {
	case ValueRange, ValueTemplate, DataContinuity, SameStatComparison, DifferentStatComparison:
		return true
	}
	return false
}

// TabularType identifies an in-memory rule evaluated by pkg/tabular.
// This is a separate vocabulary from Type; the two sets never mix on
// a single rule.
type TabularType string

const (
	NotNull TabularType = "not_null"
	Unique  TabularType = "unique"
	Range   TabularType = "range"
	Format  TabularType = "format"
	Enum    TabularType = "enum"
)

// TabularTypes lists all tabular rule types.
func TabularTypes() []TabularType {
	return []TabularType{NotNull, Unique, Range, Format, Enum}
}

// Valid reports whether t is a known tabular rule type.
func (t TabularType) Valid() bool {
	switch t {
	case NotNull, Unique, Range, Format, Enum:
		return true
	}
	return false
}

// StatFunction is an aggregate statistic used by comparison rules.
type StatFunction string

const (
	Sum           StatFunction = "SUM"
	Avg           StatFunction = "AVG"
	Min           StatFunction = "MIN"
	Max           StatFunction = "MAX"
	Count         StatFunction = "COUNT"
	CountDistinct StatFunction = "COUNT_DISTINCT"
	StdDev        StatFunction = "STDDEV"
	Variance      StatFunction = "VARIANCE"
)

// Valid reports whether f is a known statistical function.
func (f StatFunction) Valid() bool {
	switch f {
	case Sum, Avg, Min, Max, Count, CountDistinct, StdDev, Variance:
		return true
	}
	return false
}

// CompareOp is the scalar comparison operator for comparison rules.
type CompareOp string

const (
	OpEqual        CompareOp = "="
	OpNotEqual     CompareOp = "!="
	OpGreater      CompareOp = ">"
	OpLess         CompareOp = "<"
	OpGreaterEqual CompareOp = ">="
	OpLessEqual    CompareOp = "<="
)

// Valid reports whether op is a known comparison operator.
func (op CompareOp) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return true
	}
	return false
}

// Severity classifies how a rule failure should be treated downstream.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// TableRef identifies one side of a comparison rule: a table, the columns
// the statistic is computed over, and an optional opaque filter fragment.
type TableRef struct {
	Schema  string   `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table   string   `json:"table" yaml:"table"`
	Columns []string `json:"columns" yaml:"columns"`

	// Filter is an opaque SQL predicate appended as a WHERE clause.
	// It is not parsed or validated.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty"`

	// Function is the per-side statistic for different-statistical
	// comparison rules (e.g. SUM on one side, SUM on the other).
	Function StatFunction `json:"function,omitempty" yaml:"function,omitempty"`
}

// Qualified returns the schema-qualified table name, falling back to
// defaultSchema when the reference has no schema of its own.
func (t TableRef) Qualified(defaultSchema string) string {
	schema := t.Schema
	if schema == "" {
		schema = defaultSchema
	}
	if schema == "" {
		return t.Table
	}
	return schema + "." + t.Table
}

// Rule is a single declarative data-quality expectation. A rule carries
// exactly one tag: Type for SQL rules, TabularType for in-memory rules.
// Rules are constructed once and read-only during compilation and execution.
type Rule struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Type        Type        `json:"rule_type,omitempty" yaml:"rule_type,omitempty"`
	TabularType TabularType `json:"tabular_type,omitempty" yaml:"tabular_type,omitempty"`

	// TargetColumn is the column checked by single-table rules.
	TargetColumn string `json:"target_column,omitempty" yaml:"target_column,omitempty"`

	// Table1/Table2 are the two operands of comparison rules.
	Table1 *TableRef `json:"table1,omitempty" yaml:"table1,omitempty"`
	Table2 *TableRef `json:"table2,omitempty" yaml:"table2,omitempty"`

	// Params carries tag-specific keys: min_value/max_value for ranges,
	// pattern for templates, sequence_type/max_gap_seconds for continuity,
	// statistical_function/comparison_operator for comparisons.
	Params map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	Severity  Severity  `json:"severity,omitempty" yaml:"severity,omitempty"`
	Enabled   bool      `json:"enabled" yaml:"enabled"`
	CreatedBy string    `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Validate checks structural consistency: exactly one tag from one
// vocabulary, and a known tag value.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule has no name")
	}
	switch {
	case r.Type != "" && r.TabularType != "":
		return fmt.Errorf("rule %q mixes SQL type %q and tabular type %q", r.Name, r.Type, r.TabularType)
	case r.Type != "":
		if !r.Type.Valid() {
			return fmt.Errorf("rule %q: unknown rule type %q", r.Name, r.Type)
		}
	case r.TabularType != "":
		if !r.TabularType.Valid() {
			return fmt.Errorf("rule %q: unknown tabular rule type %q", r.Name, r.TabularType)
		}
	default:
		return fmt.Errorf("rule %q has no rule type", r.Name)
	}
	return nil
}

// StringParam returns a string parameter, or def when absent or not a string.
func (r *Rule) StringParam(key, def string) string {
	if v, ok := r.Params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// NumberParam returns a numeric parameter. JSON decoding produces float64;
// int and int64 are accepted for rules built in code.
func (r *Rule) NumberParam(key string) (float64, bool) {
	v, ok := r.Params[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// identPattern is the allow-list for schema, table, and column names that
// get interpolated into generated SQL. Anything else is rejected at
// compile time; generated SQL is never parameterized, so this is the only
// guard against identifier injection.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether name is safe to interpolate as an identifier.
func ValidIdent(name string) bool {
	return identPattern.MatchString(name)
}

// QuoteLiteral escapes a string for inclusion as a SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ComplexRule bundles sub-rules under a named boolean expression.
// The expression is recorded for provenance only; the compiler
// concatenates sub-rule scripts and does not evaluate it.
type ComplexRule struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Expression  string          `json:"expression" yaml:"expression"`
	Rules       map[string]Rule `json:"rules" yaml:"rules"`
	Enabled     bool            `json:"enabled" yaml:"enabled"`
}
