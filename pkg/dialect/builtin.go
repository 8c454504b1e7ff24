package dialect

import "fmt"

// Built-in dialects. Each entry is one registry row; the compiler never
// sees these names.
func init() {
	Register(&Dialect{
		Name:          "postgres",
		DefaultSchema: "public",
		notMatches: func(col, lit string) string {
			return fmt.Sprintf("%s !~ %s", col, lit)
		},
		countDistinct: stdCountDistinct,
		epochDiff: func(a, b string) string {
			return fmt.Sprintf("EXTRACT(EPOCH FROM (%s - %s))", a, b)
		},
	})

	Register(&Dialect{
		Name:          "mysql",
		DefaultSchema: "",
		notMatches: func(col, lit string) string {
			return fmt.Sprintf("%s NOT REGEXP %s", col, lit)
		},
		countDistinct: stdCountDistinct,
		epochDiff: func(a, b string) string {
			return fmt.Sprintf("TIMESTAMPDIFF(SECOND, %s, %s)", b, a)
		},
	})

	Register(&Dialect{
		Name:          "duckdb",
		DefaultSchema: "main",
		notMatches: func(col, lit string) string {
			return fmt.Sprintf("NOT regexp_matches(%s, %s)", col, lit)
		},
		countDistinct: stdCountDistinct,
		epochDiff: func(a, b string) string {
			return fmt.Sprintf("epoch(%s - %s)", a, b)
		},
	})

	Register(&Dialect{
		Name:          "sqlite",
		DefaultSchema: "main",
		notMatches: func(col, lit string) string {
			return fmt.Sprintf("%s NOT REGEXP %s", col, lit)
		},
		countDistinct: stdCountDistinct,
		epochDiff: func(a, b string) string {
			return fmt.Sprintf("(strftime('%%s', %s) - strftime('%%s', %s))", a, b)
		},
	})
}
