// Package dialect maps dialect-sensitive SQL primitives to concrete syntax.
//
// The rule compiler never branches on dialect names; it asks the active
// Dialect for a fragment. Adding a dialect means registering one more
// Dialect value, not touching the compiler.
package dialect

import (
	"fmt"
	"strings"

	"github.com/vigilsql/vigil/pkg/rule"
)

// Dialect holds the fragment builders for one SQL dialect. All fields are
// pure functions of their operands; a Dialect has no connection and no
// side effects.
type Dialect struct {
	Name string

	// DefaultSchema is the schema assumed when a rule names none
	// ("public" for postgres, "main" for duckdb/sqlite).
	DefaultSchema string

	// notMatches renders "column does not match regex pattern".
	notMatches func(col, pattern string) string

	// countDistinct renders a distinct-count aggregate over a column.
	countDistinct func(col string) string

	// epochDiff renders the elapsed seconds between two timestamps (a - b).
	epochDiff func(a, b string) string
}

// NotMatches returns the predicate "col does not match pattern".
// The pattern is escaped as a string literal.
func (d *Dialect) NotMatches(col, pattern string) string {
	return d.notMatches(col, rule.QuoteLiteral(pattern))
}

// CountDistinct returns the distinct-count aggregate expression for col.
func (d *Dialect) CountDistinct(col string) string {
	return d.countDistinct(col)
}

// EpochDiff returns an expression for the seconds elapsed between
// timestamp expressions a and b (a later, b earlier).
func (d *Dialect) EpochDiff(a, b string) string {
	return d.epochDiff(a, b)
}

// StatExpr renders an aggregate statistic over a column. COUNT_DISTINCT
// is the only function needing special syntax; the rest apply directly.
func (d *Dialect) StatExpr(fn rule.StatFunction, col string) (string, error) {
	if !fn.Valid() {
		return "", fmt.Errorf("unknown statistical function %q", fn)
	}
	if fn == rule.CountDistinct {
		return d.CountDistinct(col), nil
	}
	return fmt.Sprintf("%s(%s)", fn, col), nil
}

// ansi is the fallback dialect for unknown names: REGEXP_LIKE and
// EXTRACT(EPOCH ...) in their ANSI-ish forms.
var ansi = &Dialect{
	Name:          "ansi",
	DefaultSchema: "",
	notMatches: func(col, lit string) string {
		return fmt.Sprintf("NOT REGEXP_LIKE(%s, %s)", col, lit)
	},
	countDistinct: stdCountDistinct,
	epochDiff: func(a, b string) string {
		return fmt.Sprintf("EXTRACT(EPOCH FROM (%s - %s))", a, b)
	},
}

func stdCountDistinct(col string) string {
	return fmt.Sprintf("COUNT(DISTINCT %s)", col)
}

// Get returns the dialect registered under name, or the ANSI fallback
// when the name is unknown. Lookup is case-insensitive.
func Get(name string) *Dialect {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if d, ok := registry[strings.ToLower(name)]; ok {
		return d
	}
	return ansi
}
