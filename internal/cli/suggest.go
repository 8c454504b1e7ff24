package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vigilsql/vigil/internal/suggest"
	"github.com/vigilsql/vigil/pkg/rule"
	"github.com/vigilsql/vigil/pkg/tabular"
)

func newSuggestCommand() *cobra.Command {
	var (
		tableName string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "suggest <file.csv>",
		Short: "Propose rules for a CSV file",
		Long: `Profile a CSV file and propose data-quality rules for it. Uses the
configured LLM provider when available and falls back to built-in
heuristics otherwise. Suggested rules come back disabled for review.`,
		Example: `  # Print suggestions for a CSV
  vigil suggest data/users.csv --table users

  # Write suggestions to a rule-set file
  vigil suggest data/users.csv --table users --write suggested.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("failed to open csv file: %w", err)
			}
			defer func() { _ = f.Close() }()

			tbl, err := tabular.FromCSV(f)
			if err != nil {
				return err
			}

			if tableName == "" {
				base := filepath.Base(args[0])
				tableName = strings.TrimSuffix(base, filepath.Ext(base))
			}

			cfg := getConfig(cmd)
			profile := suggest.Profile(tableName, tbl)
			rules := suggest.Suggest(cmd.Context(), profile, suggest.Options{
				Provider:    cfg.Suggest.Provider,
				Model:       cfg.Suggest.Model,
				MaxTokens:   cfg.Suggest.MaxTokens,
				Temperature: cfg.Suggest.Temperature,
				Logger:      getLogger(cmd),
			})
			if len(rules) == 0 {
				return fmt.Errorf("no rules could be suggested for %s", args[0])
			}

			set := &rule.Set{
				Name:        tableName + "_suggested",
				Description: fmt.Sprintf("suggested rules for %s", args[0]),
				Rules:       rules,
			}

			if outPath != "" {
				if err := rule.SaveSet(outPath, set); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d suggested rules to %s\n", len(rules), outPath)
				return nil
			}

			return renderRules(cmd.OutOrStdout(), set, cfg.OutputFormat)
		},
	}

	cmd.Flags().StringVar(&tableName, "table", "", "Table name for suggested SQL rules (defaults to the file name)")
	cmd.Flags().StringVar(&outPath, "write", "", "Write suggestions to a rule-set file instead of printing")

	return cmd
}
