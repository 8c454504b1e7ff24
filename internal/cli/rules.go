package cli

import (
	"github.com/spf13/cobra"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules [rules-file]",
		Short: "List and validate the rules in a rule set",
		Example: `  # List the configured rule set
  vigil rules

  # List a specific rule set as JSON
  vigil rules checks.yaml -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadRuleSet(cmd, args)
			if err != nil {
				return err
			}
			return renderRules(cmd.OutOrStdout(), set, getConfig(cmd).OutputFormat)
		},
	}
	return cmd
}
