package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/vigilsql/vigil/internal/state"
	"github.com/vigilsql/vigil/pkg/rule"
)

func renderSummary(w io.Writer, summary rule.Summary, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Status", "Total", "Failed", "Passed", "Detail"})

	for _, res := range summary.Results {
		detail := res.ErrorMessage
		if detail == "" && res.Details != nil {
			detail = fmt.Sprintf("%v vs %v", res.Details["table1_stat"], res.Details["table2_stat"])
		}
		t.AppendRow(table.Row{
			res.RuleName,
			colorStatus(res.Status),
			res.TotalRows,
			res.FailedRows,
			res.PassedRows,
			text.Trim(detail, 60),
		})
	}
	t.Render()

	fmt.Fprintf(w, "%d rules: %d passed, %d failed, %d warnings, %d errors (%.1f%% success)\n",
		summary.TotalRules, summary.PassedRules, summary.FailedRules,
		summary.WarningRules, summary.ErrorRules, summary.SuccessRate()*100)
	return nil
}

func colorStatus(s rule.Status) string {
	switch s {
	case rule.StatusPass:
		return text.FgGreen.Sprint(s)
	case rule.StatusFail, rule.StatusError:
		return text.FgRed.Sprint(s)
	case rule.StatusWarning:
		return text.FgYellow.Sprint(s)
	default:
		return string(s)
	}
}

func renderRuns(w io.Writer, runs []*state.Run, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Target", "Rule Set", "Status", "Started", "Passed", "Failed", "Errors"})

	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID[:8],
			run.Target,
			run.RuleSet,
			run.Status,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.PassedRules,
			run.FailedRules,
			run.ErrorRules,
		})
	}
	t.Render()
	return nil
}

func renderRules(w io.Writer, set *rule.Set, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Type", "Column", "Severity", "Enabled"})

	for _, r := range set.Rules {
		kind := string(r.Type)
		if kind == "" {
			kind = string(r.TabularType)
		}
		severity := r.Severity
		if severity == "" {
			severity = rule.SeverityError
		}
		t.AppendRow(table.Row{r.Name, kind, r.TargetColumn, severity, r.Enabled})
	}
	t.Render()

	fmt.Fprintf(w, "%d rules (%d enabled)\n", len(set.Rules), len(set.EnabledRules()))
	return nil
}
