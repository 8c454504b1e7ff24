// Package suggest proposes data-quality rules for a profiled table. It
// asks an LLM for suggestions and falls back to built-in heuristics when
// no provider is configured or the response cannot be used.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/vigilsql/vigil/pkg/rule"
	"github.com/vigilsql/vigil/pkg/tabular"
)

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating LLM providers. It is a
// package-level variable so tests can replace it with a mock without
// modifying the call site. Tests must restore the original value; use
// t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai", "":
		return newOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("suggest: unknown provider %q", providerName)
	}
}

// ColumnProfile summarizes one column of the profiled table.
type ColumnProfile struct {
	Name          string   `json:"name"`
	NullCount     int      `json:"null_count"`
	DistinctCount int      `json:"distinct_count"`
	Samples       []string `json:"samples,omitempty"`

	// Min/Max are set when every non-null value coerces to a number.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// TableProfile summarizes the profiled table.
type TableProfile struct {
	Table   string          `json:"table"`
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// Options configures a Suggest call.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	// Logger is optional; nil uses a discard logger.
	Logger *slog.Logger
}

// Suggest proposes rules for the profile. When the provider cannot be
// created, the call fails, or the response does not parse, it logs the
// problem and returns heuristic suggestions instead. The returned rules
// are disabled; the caller reviews and enables them.
func Suggest(ctx context.Context, profile TableProfile, opts Options) []rule.Rule {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	provider, err := NewProvider(opts.Provider, opts.Model)
	if err != nil {
		logger.Warn("llm provider unavailable, using heuristics", "error", err)
		return Heuristic(profile)
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	raw, err := provider.Complete(ctx, systemPrompt, buildUserPrompt(profile), maxTokens, opts.Temperature)
	if err != nil {
		logger.Warn("llm call failed, using heuristics", "error", err)
		return Heuristic(profile)
	}

	rules, err := parseResponse(raw, profile.Table)
	if err != nil {
		logger.Warn("llm response unusable, using heuristics", "error", err)
		return Heuristic(profile)
	}

	logger.Debug("llm suggested rules", "count", len(rules))
	return rules
}

// Profile builds a TableProfile from an in-memory table, collecting null
// counts, distinct counts, numeric bounds, and up to three sample values
// per column.
func Profile(tableName string, t *tabular.Table) TableProfile {
	profile := TableProfile{Table: tableName, Rows: t.NumRows()}

	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		cp := ColumnProfile{Name: name}

		distinct := make(map[string]struct{})
		numeric := true
		var minVal, maxVal float64
		sawNumber := false

		for _, v := range col {
			if v == nil {
				cp.NullCount++
				continue
			}
			s := fmt.Sprintf("%v", v)
			distinct[s] = struct{}{}
			if len(cp.Samples) < 3 {
				cp.Samples = append(cp.Samples, s)
			}
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				numeric = false
				continue
			}
			if !sawNumber || n < minVal {
				minVal = n
			}
			if !sawNumber || n > maxVal {
				maxVal = n
			}
			sawNumber = true
		}

		cp.DistinctCount = len(distinct)
		if numeric && sawNumber {
			cp.Min = &minVal
			cp.Max = &maxVal
		}
		profile.Columns = append(profile.Columns, cp)
	}

	return profile
}

const systemPrompt = `You are a data-quality assistant. Given a table profile,
propose validation rules as a JSON array. Each element must have: "name",
"rule_type" (one of value_range, value_template) or "tabular_type" (one of
not_null, unique, range, format, enum), "target_column", and "parameters"
(min_value/max_value for ranges, pattern for templates and formats,
allowed_values for enums). Output ONLY the JSON array, no prose.`

func buildUserPrompt(profile TableProfile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Table %q with %d rows.\n\nColumns:\n", profile.Table, profile.Rows)
	for _, c := range profile.Columns {
		fmt.Fprintf(&sb, "- %s: %d nulls, %d distinct", c.Name, c.NullCount, c.DistinctCount)
		if c.Min != nil && c.Max != nil {
			fmt.Fprintf(&sb, ", numeric range [%g, %g]", *c.Min, *c.Max)
		}
		if len(c.Samples) > 0 {
			fmt.Fprintf(&sb, ", samples: %s", strings.Join(c.Samples, ", "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nPropose the rules now.")
	return sb.String()
}

// fenceRe matches a markdown code fence block with an optional language
// tag; LLMs sometimes wrap JSON output in one.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// parseResponse parses the LLM response into rules, dropping elements
// that fail structural validation rather than rejecting the batch.
func parseResponse(raw, tableName string) ([]rule.Rule, error) {
	raw = stripMarkdownFences(raw)

	var rules []rule.Rule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		return nil, fmt.Errorf("failed to parse llm response: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("llm response contained no rules")
	}

	kept := rules[:0]
	for i := range rules {
		r := rules[i]
		r.Enabled = false
		r.CreatedBy = "llm"
		if r.Type != "" && r.Table1 == nil && tableName != "" {
			r.Table1 = &rule.TableRef{Table: tableName}
		}
		if err := r.Validate(); err != nil {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("llm response contained no valid rules")
	}
	return kept, nil
}
