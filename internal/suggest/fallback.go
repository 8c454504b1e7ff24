package suggest

import (
	"fmt"
	"strings"

	"github.com/vigilsql/vigil/pkg/rule"
)

const emailPattern = `^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`

// Heuristic proposes rules from the profile alone, without an LLM:
//   - a not-null rule for columns with no observed nulls
//   - a unique rule for fully-distinct columns and id-like names
//   - a range rule for numeric columns, widened 10% beyond the observed
//     bounds so ordinary drift doesn't trip it immediately
//   - an email format rule for columns whose name mentions email
//
// Returned rules are disabled; the caller reviews and enables them.
func Heuristic(profile TableProfile) []rule.Rule {
	var rules []rule.Rule

	for _, c := range profile.Columns {
		if profile.Rows > 0 && c.NullCount == 0 {
			rules = append(rules, rule.Rule{
				Name:         fmt.Sprintf("%s_not_null", c.Name),
				Description:  fmt.Sprintf("column %s had no nulls in the profiled sample", c.Name),
				TabularType:  rule.NotNull,
				TargetColumn: c.Name,
				CreatedBy:    "heuristic",
			})
		}

		nonNull := profile.Rows - c.NullCount
		if nonNull > 1 && (c.DistinctCount == nonNull || isIDLike(c.Name)) {
			rules = append(rules, rule.Rule{
				Name:         fmt.Sprintf("%s_unique", c.Name),
				Description:  fmt.Sprintf("column %s looks like a unique key", c.Name),
				TabularType:  rule.Unique,
				TargetColumn: c.Name,
				CreatedBy:    "heuristic",
			})
		}

		if c.Min != nil && c.Max != nil {
			span := *c.Max - *c.Min
			margin := span * 0.1
			rules = append(rules, rule.Rule{
				Name:         fmt.Sprintf("%s_range", c.Name),
				Description:  fmt.Sprintf("column %s observed in [%g, %g]", c.Name, *c.Min, *c.Max),
				Type:         rule.ValueRange,
				TargetColumn: c.Name,
				Table1:       &rule.TableRef{Table: profile.Table},
				Params: map[string]any{
					"min_value": *c.Min - margin,
					"max_value": *c.Max + margin,
				},
				CreatedBy: "heuristic",
			})
		}

		if strings.Contains(strings.ToLower(c.Name), "email") {
			rules = append(rules, rule.Rule{
				Name:         fmt.Sprintf("%s_format", c.Name),
				Description:  fmt.Sprintf("column %s should hold email addresses", c.Name),
				Type:         rule.ValueTemplate,
				TargetColumn: c.Name,
				Table1:       &rule.TableRef{Table: profile.Table},
				Params:       map[string]any{"pattern": emailPattern},
				CreatedBy:    "heuristic",
			})
		}
	}

	return rules
}

func isIDLike(name string) bool {
	lower := strings.ToLower(name)
	return lower == "id" || strings.HasSuffix(lower, "_id") || lower == "uuid"
}
