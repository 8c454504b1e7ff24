// Package config loads vigil configuration from file, environment
// variables, and flags. Precedence (highest to lowest): flags > env vars
// > config file > defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/vigilsql/vigil/internal/adapter"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, sqlite

	// Database is the file path for file-based databases (":memory:" for
	// in-memory) or the database name for network databases.
	Database string `koanf:"database"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Schema is the default schema rules run against.
	Schema string `koanf:"schema"`

	// Options contains additional driver-specific options.
	Options map[string]string `koanf:"options"`
}

// Validate checks the target configuration against the adapter registry.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.List(),
		}
	}
	return nil
}

// ToAdapterConfig converts the target to the adapter layer's config.
func (t *TargetConfig) ToAdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     strings.ToLower(t.Type),
		Path:     t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
	}
}

// SuggestConfig holds LLM rule-suggestion configuration.
type SuggestConfig struct {
	Provider    string  `koanf:"provider"`
	Model       string  `koanf:"model"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
}

// Config holds all configuration options.
type Config struct {
	// RulesPath is the rule-set file to run (JSON or YAML).
	RulesPath string `koanf:"rules"`

	// StatePath is the SQLite run-history database.
	StatePath string `koanf:"state_path"`

	// DefaultTable is used by rules that name no table of their own.
	DefaultTable string `koanf:"default_table"`

	Verbose bool `koanf:"verbose"`

	// OutputFormat selects result rendering: table or json.
	OutputFormat string `koanf:"output"`

	Target  *TargetConfig `koanf:"target"`
	Suggest SuggestConfig `koanf:"suggest"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.OutputFormat != "table" && c.OutputFormat != "json" {
		return fmt.Errorf("unknown output format %q (expected table or json)", c.OutputFormat)
	}
	if c.Target == nil {
		return fmt.Errorf("no target configured")
	}
	return c.Target.Validate()
}
