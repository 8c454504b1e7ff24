package rule

// Status is the outcome of executing one rule.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusError   Status = "ERROR"
	StatusWarning Status = "WARNING"
	StatusInfo    Status = "INFO"
)

// Result is the single-row verdict produced by executing one compiled
// check. Results are produced once per rule per run and never mutated.
// TotalRows = FailedRows + PassedRows whenever Status is PASS or FAIL.
type Result struct {
	RuleName   string `json:"rule_name"`
	RuleID     string `json:"rule_id,omitempty"`
	Status     Status `json:"status"`
	TotalRows  int64  `json:"total_rows"`
	FailedRows int64  `json:"failed_rows"`
	PassedRows int64  `json:"passed_rows"`

	// ErrorMessage is set for ERROR results and preserved verbatim from
	// whatever failed (compiler, executor, or result parsing).
	ErrorMessage string `json:"error_message,omitempty"`

	// GeneratedSQL carries the compiled script for SQL rules.
	GeneratedSQL string `json:"generated_sql,omitempty"`

	// Details carries auxiliary values; comparison rules store the two
	// raw statistics under "table1_stat" and "table2_stat".
	Details map[string]any `json:"details,omitempty"`

	DurationMS int64 `json:"duration_ms,omitempty"`
}

// ErrorResult builds an ERROR result for a rule, preserving the message.
func ErrorResult(r *Rule, msg string) Result {
	return Result{
		RuleName:     r.Name,
		RuleID:       r.ID,
		Status:       StatusError,
		ErrorMessage: msg,
	}
}

// Summary is an immutable snapshot over a completed batch of results.
// Build one with Summarize; never mutate it afterwards.
type Summary struct {
	TotalRules   int      `json:"total_rules"`
	PassedRules  int      `json:"passed_rules"`
	FailedRules  int      `json:"failed_rules"`
	WarningRules int      `json:"warning_rules"`
	ErrorRules   int      `json:"error_rules"`
	Results      []Result `json:"results"`
}

// Summarize folds per-rule results into a Summary. It is total: any list,
// including an empty or nil one, yields a valid summary.
func Summarize(results []Result) Summary {
	s := Summary{
		TotalRules: len(results),
		Results:    results,
	}
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.PassedRules++
		case StatusFail:
			s.FailedRules++
		case StatusWarning:
			s.WarningRules++
		case StatusError:
			s.ErrorRules++
		}
	}
	return s
}

// SuccessRate returns passed/total, or 0 when the summary is empty.
func (s Summary) SuccessRate() float64 {
	if s.TotalRules == 0 {
		return 0
	}
	return float64(s.PassedRules) / float64(s.TotalRules)
}
