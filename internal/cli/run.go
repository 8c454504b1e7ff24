package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// FailedChecksError signals that rules failed or errored, so callers can
// map outcomes to exit codes without string matching.
type FailedChecksError struct {
	Failed  int
	Errored int
}

func (e *FailedChecksError) Error() string {
	return fmt.Sprintf("%d rule(s) failed, %d errored", e.Failed, e.Errored)
}

func newRunCommand() *cobra.Command {
	var (
		loadSpecs []string
		noFail    bool
	)

	cmd := &cobra.Command{
		Use:   "run [rules-file]",
		Short: "Run a rule set against the target database",
		Long: `Compile every enabled rule into SQL, execute it against the target,
and report the aggregated outcomes. A rule that fails to compile or
execute is reported as ERROR; the batch always runs to completion.`,
		Example: `  # Run the configured rule set
  vigil run

  # Run a specific rule set against an in-memory DuckDB
  vigil run checks.yaml --database :memory:

  # Load CSVs as tables before running
  vigil run checks.yaml --load users=testdata/users.csv

  # JSON output for CI
  vigil run checks.yaml -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadRuleSet(cmd, args)
			if err != nil {
				return err
			}

			runner, err := newRunner(cmd, true)
			if err != nil {
				return err
			}
			defer func() { _ = runner.Close() }()

			ctx := cmd.Context()
			for _, spec := range loadSpecs {
				name, path, ok := strings.Cut(spec, "=")
				if !ok {
					return fmt.Errorf("invalid --load %q (expected table=file.csv)", spec)
				}
				if err := runner.LoadCSV(ctx, name, path); err != nil {
					return err
				}
			}

			started := time.Now()
			summary, err := runner.Run(ctx, set)
			if err != nil {
				return err
			}

			cfg := getConfig(cmd)
			if err := renderSummary(cmd.OutOrStdout(), summary, cfg.OutputFormat); err != nil {
				return err
			}
			if cfg.OutputFormat != "json" {
				fmt.Fprintf(cmd.OutOrStdout(), "Completed in %s\n", time.Since(started).Round(time.Millisecond))
			}

			if !noFail && (summary.FailedRules > 0 || summary.ErrorRules > 0) {
				return &FailedChecksError{Failed: summary.FailedRules, Errored: summary.ErrorRules}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&loadSpecs, "load", nil, "Load a CSV as a table before running (table=file.csv, repeatable)")
	cmd.Flags().BoolVar(&noFail, "no-fail", false, "Exit zero even when rules fail")

	return cmd
}
