package tabular

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/vigilsql/vigil/pkg/rule"
)

// Validate evaluates tabular rules against a table and aggregates the
// outcomes. Each rule yields exactly one result; a rule that cannot be
// evaluated (missing column, bad regex) yields an ERROR result and the
// batch continues.
func Validate(t *Table, rules []rule.Rule) rule.Summary {
	results := make([]rule.Result, 0, len(rules))
	for i := range rules {
		results = append(results, validateOne(t, &rules[i]))
	}
	return rule.Summarize(results)
}

func validateOne(t *Table, r *rule.Rule) rule.Result {
	col, ok := t.Column(r.TargetColumn)
	if !ok {
		return rule.ErrorResult(r, fmt.Sprintf("column %q not found in table", r.TargetColumn))
	}

	var failed int64
	var err error
	switch r.TabularType {
	case rule.NotNull:
		failed = countNulls(col)
	case rule.Unique:
		failed = duplicateCount(col)
	case rule.Range:
		failed = rangeFailures(col, r)
	case rule.Format:
		failed, err = formatFailures(col, r)
	case rule.Enum:
		failed = enumFailures(col, r)
	default:
		return rule.ErrorResult(r, fmt.Sprintf("unsupported tabular rule type %q", r.TabularType))
	}
	if err != nil {
		return rule.ErrorResult(r, err.Error())
	}

	total := int64(len(col))
	status := rule.StatusPass
	if failed > 0 {
		status = rule.StatusFail
	}
	return rule.Result{
		RuleName:   r.Name,
		RuleID:     r.ID,
		Status:     status,
		TotalRows:  total,
		FailedRows: failed,
		PassedRows: total - failed,
	}
}

func countNulls(col []Value) int64 {
	var n int64
	for _, v := range col {
		if v == nil {
			n++
		}
	}
	return n
}

// duplicateCount is row count minus distinct value count, independent of
// which rows are duplicated. NULLs count as one distinct value.
func duplicateCount(col []Value) int64 {
	seen := make(map[string]struct{}, len(col))
	for _, v := range col {
		seen[fmt.Sprintf("%v", v)] = struct{}{}
	}
	return int64(len(col) - len(seen))
}

// rangeFailures counts values outside [min_value, max_value]. Unlike the
// SQL range generator, NULLs and values that fail numeric coercion count
// as failing; the tabular engine has no way to exclude them from the
// denominator without changing the reported totals.
func rangeFailures(col []Value, r *rule.Rule) int64 {
	minVal, hasMin := r.NumberParam("min_value")
	maxVal, hasMax := r.NumberParam("max_value")

	var failed int64
	for _, v := range col {
		if v == nil {
			failed++
			continue
		}
		n, ok := toFloat(v)
		if !ok {
			failed++
			continue
		}
		if (hasMin && n < minVal) || (hasMax && n > maxVal) {
			failed++
		}
	}
	return failed
}

func toFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// formatFailures counts non-null values not matching the pattern. NULLs
// are excluded, matching the SQL engine's semantics for templates.
func formatFailures(col []Value, r *rule.Rule) (int64, error) {
	pattern := r.StringParam("pattern", ".*")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var failed int64
	for _, v := range col {
		if v == nil {
			continue
		}
		if !re.MatchString(fmt.Sprintf("%v", v)) {
			failed++
		}
	}
	return failed, nil
}

// enumFailures counts non-null values outside the allowed set; NULLs pass.
func enumFailures(col []Value, r *rule.Rule) int64 {
	allowed := make(map[string]struct{})
	if vs, ok := r.Params["allowed_values"].([]any); ok {
		for _, v := range vs {
			allowed[fmt.Sprintf("%v", v)] = struct{}{}
		}
	} else if vs, ok := r.Params["allowed_values"].([]string); ok {
		for _, v := range vs {
			allowed[v] = struct{}{}
		}
	}

	var failed int64
	for _, v := range col {
		if v == nil {
			continue
		}
		if _, ok := allowed[fmt.Sprintf("%v", v)]; !ok {
			failed++
		}
	}
	return failed
}
