package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vigilsql/vigil/internal/state"
	"github.com/vigilsql/vigil/pkg/rule"
)

// Run executes every enabled rule in the set sequentially. A rule that
// fails to compile or execute produces an ERROR result; the batch always
// runs to completion. The returned error reports infrastructure failures
// only (connection, run bookkeeping), never rule outcomes.
func (r *Runner) Run(ctx context.Context, set *rule.Set) (rule.Summary, error) {
	r.logger.Info("starting run", "rule_set", set.Name, "target", r.cfg.Adapter.Type)

	if err := r.ensureConnected(ctx); err != nil {
		return rule.Summary{}, err
	}

	var runID string
	if r.store != nil {
		run, err := r.store.CreateRun(r.cfg.Adapter.Type, set.Name)
		if err != nil {
			return rule.Summary{}, fmt.Errorf("failed to create run: %w", err)
		}
		runID = run.ID
		r.logger.Debug("created run", "run_id", runID)
	}

	rules := set.EnabledRules()
	results := make([]rule.Result, 0, len(rules))
	for i := range rules {
		res := r.executeRule(ctx, &rules[i])
		results = append(results, res)

		if r.store != nil {
			if err := r.store.SaveOutcome(runID, res); err != nil {
				r.logger.Warn("failed to save rule outcome", "rule", res.RuleName, "error", err)
			}
		}
	}

	summary := rule.Summarize(results)

	if r.store != nil {
		status := state.RunStatusCompleted
		if summary.ErrorRules > 0 {
			status = state.RunStatusFailed
		}
		if err := r.store.CompleteRun(runID, status, summary, ""); err != nil {
			r.logger.Warn("failed to complete run", "run_id", runID, "error", err)
		}
	}

	r.logger.Info("run completed",
		"total", summary.TotalRules,
		"passed", summary.PassedRules,
		"failed", summary.FailedRules,
		"errors", summary.ErrorRules)

	return summary, nil
}

// executeRule compiles and runs one rule, converting any failure along
// the way into an ERROR result.
func (r *Runner) executeRule(ctx context.Context, ru *rule.Rule) rule.Result {
	started := time.Now()

	sqlText, err := r.compiler.Compile(ru)
	if err != nil {
		r.logger.Error("rule compilation failed", "rule", ru.Name, "error", err)
		return rule.ErrorResult(ru, fmt.Sprintf("compilation failed: %v", err))
	}

	r.logger.Debug("executing rule", "rule", ru.Name)

	row, err := r.db.QueryRowMap(ctx, sqlText)
	if err != nil {
		r.logger.Error("rule execution failed", "rule", ru.Name, "error", err)
		res := rule.ErrorResult(ru, fmt.Sprintf("execution failed: %v", err))
		res.GeneratedSQL = sqlText
		res.DurationMS = time.Since(started).Milliseconds()
		return res
	}

	res := parseOutcome(ru, row)
	res.GeneratedSQL = sqlText
	res.DurationMS = time.Since(started).Milliseconds()
	return res
}

// RunComplex compiles a complex rule's combined script and executes it.
// Each UNION ALL branch yields one row; the rows are parsed against
// their sub-rules by rule_name and aggregated like a normal run.
func (r *Runner) RunComplex(ctx context.Context, cr *rule.ComplexRule) (rule.Summary, error) {
	r.logger.Info("starting complex rule run", "rule", cr.Name)

	if err := r.ensureConnected(ctx); err != nil {
		return rule.Summary{}, err
	}

	sqlText, err := r.compiler.CompileComplex(cr)
	if err != nil {
		return rule.Summary{}, fmt.Errorf("failed to compile complex rule %q: %w", cr.Name, err)
	}

	rows, err := r.db.Query(ctx, sqlText)
	if err != nil {
		return rule.Summary{}, fmt.Errorf("failed to execute complex rule %q: %w", cr.Name, err)
	}
	defer func() { _ = rows.Close() }()

	byName := make(map[string]*rule.Rule, len(cr.Rules))
	for id := range cr.Rules {
		ru := cr.Rules[id]
		byName[ru.Name] = &ru
	}

	cols, err := rows.Columns()
	if err != nil {
		return rule.Summary{}, fmt.Errorf("failed to read result columns: %w", err)
	}

	var results []rule.Result
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return rule.Summary{}, fmt.Errorf("failed to scan result row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			val := values[i]
			if bs, ok := val.([]byte); ok {
				val = string(bs)
			}
			row[col] = val
		}

		name, _ := row["rule_name"].(string)
		ru, ok := byName[name]
		if !ok {
			ru = &rule.Rule{Name: name}
		}
		results = append(results, parseOutcome(ru, row))
	}
	if err := rows.Err(); err != nil {
		return rule.Summary{}, fmt.Errorf("error reading complex rule results: %w", err)
	}

	return rule.Summarize(results), nil
}

// outcome columns every generated script produces.
const (
	colRuleName   = "rule_name"
	colTotalRows  = "total_rows"
	colFailedRows = "failed_rows"
	colPassedRows = "passed_rows"
	colStatus     = "status"
)

// parseOutcome converts the single outcome row of a generated script
// into a Result. A FAIL status is downgraded according to the rule's
// severity: warning rules report WARNING, info rules report INFO.
func parseOutcome(ru *rule.Rule, row map[string]any) rule.Result {
	res := rule.Result{
		RuleName:   ru.Name,
		RuleID:     ru.ID,
		TotalRows:  toInt64(row[colTotalRows]),
		FailedRows: toInt64(row[colFailedRows]),
		PassedRows: toInt64(row[colPassedRows]),
	}

	rawStatus, _ := row[colStatus].(string)
	switch rawStatus {
	case "PASS":
		res.Status = rule.StatusPass
	case "FAIL":
		switch ru.Severity {
		case rule.SeverityWarning:
			res.Status = rule.StatusWarning
		case rule.SeverityInfo:
			res.Status = rule.StatusInfo
		default:
			res.Status = rule.StatusFail
		}
	default:
		res.Status = rule.StatusError
		res.ErrorMessage = fmt.Sprintf("unexpected status %q in result row", rawStatus)
	}

	// Carry extra columns (comparison stats) into details.
	for k, v := range row {
		switch k {
		case colRuleName, colTotalRows, colFailedRows, colPassedRows, colStatus:
			continue
		}
		if res.Details == nil {
			res.Details = make(map[string]any)
		}
		res.Details[k] = v
	}

	return res
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}
