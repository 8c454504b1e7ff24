package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vigilsql/vigil/pkg/rule"
	"github.com/vigilsql/vigil/pkg/tabular"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file.csv>",
		Short: "Validate a CSV file in memory, without a database",
		Long: `Evaluate the tabular rules of a rule set (not_null, unique, range,
format, enum) directly against a CSV file. SQL rules in the set are
skipped; use "vigil run" to execute those against a database.`,
		Example: `  # Check a CSV against the configured rule set
  vigil check data/users.csv

  # Check with an explicit rule set
  vigil check data/users.csv --rules checks.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadRuleSet(cmd, nil)
			if err != nil {
				return err
			}

			var tabularRules []rule.Rule
			for _, r := range set.EnabledRules() {
				if r.TabularType != "" {
					tabularRules = append(tabularRules, r)
				}
			}
			if len(tabularRules) == 0 {
				return fmt.Errorf("rule set %q has no enabled tabular rules", set.Name)
			}

			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("failed to open csv file: %w", err)
			}
			defer func() { _ = f.Close() }()

			tbl, err := tabular.FromCSV(f)
			if err != nil {
				return err
			}

			summary := tabular.Validate(tbl, tabularRules)

			cfg := getConfig(cmd)
			if err := renderSummary(cmd.OutOrStdout(), summary, cfg.OutputFormat); err != nil {
				return err
			}

			if summary.FailedRules > 0 || summary.ErrorRules > 0 {
				return &FailedChecksError{Failed: summary.FailedRules, Errored: summary.ErrorRules}
			}
			return nil
		},
	}

	return cmd
}
