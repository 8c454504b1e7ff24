package rule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set is a named collection of rules, typically loaded from a JSON or
// YAML definition file.
type Set struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       []Rule `json:"rules" yaml:"rules"`
}

// EnabledRules returns the rules flagged enabled, in definition order.
func (s *Set) EnabledRules() []Rule {
	var enabled []Rule
	for _, r := range s.Rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	return enabled
}

// Validate checks every rule in the set.
func (s *Set) Validate() error {
	for i := range s.Rules {
		if err := s.Rules[i].Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// LoadSet reads a rule set from a .json, .yaml, or .yml file.
func LoadSet(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule set: %w", err)
	}

	var set Set
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("failed to parse rule set %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("failed to parse rule set %s: %w", path, err)
		}
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule set %s: %w", path, err)
	}
	return &set, nil
}

// SaveSet writes a rule set as indented JSON.
func SaveSet(path string, set *Set) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rule set: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create rule set directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rule set: %w", err)
	}
	return nil
}
