package sqlgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vigilsql/vigil/pkg/rule"
)

// CompileComplex concatenates the scripts of a complex rule's sub-rules
// with UNION ALL, in sorted sub-rule-ID order for determinism.
//
// The boolean expression is emitted as a comment only. Evaluating it
// (folding sub-rule outcomes through AND/OR/NOT) is not implemented; the
// combined script simply yields one outcome row per sub-rule.
func (c *Compiler) CompileComplex(cr *rule.ComplexRule) (string, error) {
	if len(cr.Rules) == 0 {
		return "", fmt.Errorf("complex rule %q has no sub-rules", cr.Name)
	}

	ids := make([]string, 0, len(cr.Rules))
	for id := range cr.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "-- Complex Rule: %s\n", cr.Name)
	fmt.Fprintf(&b, "-- Boolean Expression: %s\n", cr.Expression)

	for i, id := range ids {
		sub := cr.Rules[id]
		sql, err := c.Compile(&sub)
		if err != nil {
			return "", fmt.Errorf("sub-rule %q: %w", id, err)
		}

		b.WriteString("\n-- Rule ID: " + id + "\n")
		// Strip trailing semicolons so the scripts can be chained.
		b.WriteString(strings.TrimSuffix(strings.TrimSpace(sql), ";"))
		if i < len(ids)-1 {
			b.WriteString("\n\nUNION ALL\n")
		}
	}
	b.WriteString(";")

	return b.String(), nil
}
