package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, "table", cfg.OutputFormat)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Equal(t, "openai", cfg.Suggest.Provider)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
rules: checks.yaml
output: json
target:
  type: postgres
  host: db.internal
  port: 5433
  database: warehouse
  schema: analytics
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "checks.yaml", cfg.RulesPath)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "db.internal", cfg.Target.Host)
	assert.Equal(t, 5433, cfg.Target.Port)
	assert.Equal(t, "analytics", cfg.Target.Schema)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "target:\n  type: duckdb\n")
	t.Setenv("VIGIL_TARGET__TYPE", "sqlite")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Target.Type)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("VIGIL_OUTPUT", "json")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "table", "")
	flags.String("database", "", "")
	flags.String("state", "", "")
	require.NoError(t, flags.Parse([]string{"--output", "table", "--database", "data.db", "--state", "runs.db"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.OutputFormat)
	assert.Equal(t, "data.db", cfg.Target.Database)
	assert.Equal(t, "runs.db", cfg.StatePath)
}

func TestUnchangedFlagsIgnored(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "json", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.OutputFormat, "flag defaults must not override config defaults")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DB_PASS", "hunter2")

	path := writeConfig(t, `
target:
  type: postgres
  database: warehouse
  password: ${DB_PASS}
  user: ${MISSING_VAR}
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Target.Password)
	assert.Equal(t, "${MISSING_VAR}", cfg.Target.User, "unresolved references stay literal")
}

func TestValidate(t *testing.T) {
	cfg := &Config{OutputFormat: "table", Target: &TargetConfig{Type: "duckdb"}}
	assert.NoError(t, cfg.Validate())

	cfg.Target.Type = "oracle"
	assert.Error(t, cfg.Validate())

	cfg.Target.Type = "duckdb"
	cfg.OutputFormat = "csv"
	assert.ErrorContains(t, cfg.Validate(), "unknown output format")

	cfg.OutputFormat = "table"
	cfg.Target = nil
	assert.ErrorContains(t, cfg.Validate(), "no target")
}
