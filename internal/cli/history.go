package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vigilsql/vigil/internal/state"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past validation runs",
		Long: `List recent validation runs from the run-history database, or show
the per-rule outcomes of one run by ID (any unique prefix works).`,
		Example: `  # List the last 20 runs
  vigil history

  # Show the outcomes of one run
  vigil history 3f2a91c4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)

			store := state.NewSQLiteStore(getLogger(cmd))
			if err := store.Open(cfg.StatePath); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.Migrate(); err != nil {
				return err
			}

			if len(args) == 1 {
				return showRun(cmd, store, args[0])
			}

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}
			return renderRuns(cmd.OutOrStdout(), runs, cfg.OutputFormat)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func showRun(cmd *cobra.Command, store *state.SQLiteStore, idPrefix string) error {
	runs, err := store.ListRuns(1000)
	if err != nil {
		return err
	}

	var match *state.Run
	for _, run := range runs {
		if run.ID == idPrefix || (len(idPrefix) >= 4 && strings.HasPrefix(run.ID, idPrefix)) {
			if match != nil {
				return fmt.Errorf("run id prefix %q is ambiguous", idPrefix)
			}
			match = run
		}
	}
	if match == nil {
		return fmt.Errorf("run not found: %s", idPrefix)
	}

	outcomes, err := store.GetOutcomes(match.ID)
	if err != nil {
		return err
	}

	cfg := getConfig(cmd)
	if cfg.OutputFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"run": match, "outcomes": outcomes})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s (%s) on %s, started %s\n",
		match.ID, match.Status, match.Target, match.StartedAt.Format("2006-01-02 15:04:05"))

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Status", "Total", "Failed", "Passed", "Duration", "Error"})
	for _, o := range outcomes {
		t.AppendRow(table.Row{
			o.RuleName, o.Status, o.TotalRows, o.FailedRows, o.PassedRows,
			fmt.Sprintf("%dms", o.DurationMS), o.Error,
		})
	}
	t.Render()
	return nil
}
