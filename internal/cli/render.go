package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vigilsql/vigil/pkg/sqlgen"
)

func newRenderCommand() *cobra.Command {
	var dialectName string

	cmd := &cobra.Command{
		Use:   "render [rules-file]",
		Short: "Show the SQL a rule set compiles to, without executing",
		Example: `  # Render the configured rule set for the configured target
  vigil render

  # Render a rule set for postgres
  vigil render checks.yaml --dialect postgres`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadRuleSet(cmd, args)
			if err != nil {
				return err
			}

			cfg := getConfig(cmd)
			if dialectName == "" {
				dialectName = cfg.Target.Type
			}

			compiler := sqlgen.New(sqlgen.Context{
				Dialect:       dialectName,
				DefaultSchema: cfg.Target.Schema,
				DefaultTable:  cfg.DefaultTable,
			})

			w := cmd.OutOrStdout()
			for _, r := range set.EnabledRules() {
				if r.Type == "" {
					continue // tabular rules have no SQL form
				}
				fmt.Fprintf(w, "-- %s (%s)\n", r.Name, r.Type)
				sql, err := compiler.Compile(&r)
				if err != nil {
					fmt.Fprintf(w, "-- ERROR: %v\n\n", err)
					continue
				}
				fmt.Fprintf(w, "%s\n\n", sql)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dialectName, "dialect", "", "SQL dialect to render for (defaults to the target type)")

	return cmd
}
