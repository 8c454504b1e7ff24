// Package cli provides the vigil command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vigilsql/vigil/internal/config"
	"github.com/vigilsql/vigil/internal/engine"
	"github.com/vigilsql/vigil/pkg/rule"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

type configKey struct{}
type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vigil",
		Short: "Vigil - Data Quality Rule Engine",
		Long: `Vigil compiles declarative data-quality rules into SQL scripts and
executes them against your database. Rules cover value ranges, format
templates, sequence continuity, and cross-table statistical comparisons.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Data Quality Rule Engine
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./vigil.yaml)")
	rootCmd.PersistentFlags().StringP("rules", "r", "", "Path to the rule-set file (JSON or YAML)")
	rootCmd.PersistentFlags().String("database", "", "Database path or name (\":memory:\" for in-memory)")
	rootCmd.PersistentFlags().String("target-type", "", "Target database type (duckdb|postgres|sqlite)")
	rootCmd.PersistentFlags().String("schema", "", "Default schema for unqualified tables")
	rootCmd.PersistentFlags().String("state", "", "Path to the run-history database")
	rootCmd.PersistentFlags().String("default-table", "", "Table for rules that name no table")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("target-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"duckdb", "postgres", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newSuggestCommand())
	rootCmd.AddCommand(newRulesCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// getConfig retrieves the config from the command context.
func getConfig(cmd *cobra.Command) *config.Config {
	if c, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		StatePath:    config.DefaultStateFile,
		OutputFormat: config.DefaultOutput,
		Target:       &config.TargetConfig{Type: "duckdb"},
	}
}

// getLogger retrieves the logger from the command context.
func getLogger(cmd *cobra.Command) *slog.Logger {
	if l, ok := cmd.Context().Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// newRunner builds an engine runner from the configuration.
func newRunner(cmd *cobra.Command, withState bool) (*engine.Runner, error) {
	cfg := getConfig(cmd)

	statePath := ""
	if withState {
		statePath = cfg.StatePath
	}

	return engine.New(engine.Config{
		Adapter:      cfg.Target.ToAdapterConfig(),
		DefaultTable: cfg.DefaultTable,
		StatePath:    statePath,
		Logger:       getLogger(cmd),
	})
}

// loadRuleSet loads the rule set named by the first positional argument,
// falling back to the configured rules path.
func loadRuleSet(cmd *cobra.Command, args []string) (*rule.Set, error) {
	path := getConfig(cmd).RulesPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, fmt.Errorf("no rule-set file given (pass a path or set rules in vigil.yaml)")
	}

	set, err := rule.LoadSet(path)
	if err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}
