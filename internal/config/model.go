// Package config loads the HCL pipeline definition file into a
// format-agnostic model consumed by the assembler.
package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Model is the unified representation of one pipeline configuration file.
type Model struct {
	Series   Series
	State    State
	Progress *Progress
	Steps    []*StepConfig
}

// Series identifies the series a run operates on and where artifacts live.
type Series struct {
	Name       string
	MediaDir   string
	OutputRoot string
}

// State selects the StateManager backend.
type State struct {
	// Backend is one of "sqlite", "memory" or "none".
	Backend string
	// Path is the database location for the sqlite backend.
	Path string
}

// Progress configures the optional live progress emitter.
type Progress struct {
	URL       string
	Namespace string
}

// StepConfig is the format-agnostic representation of a `step` block.
type StepConfig struct {
	ID          string
	Uses        string
	Description string
	Phase       string
	DependsOn   []string
	Settings    Settings
}

// Settings holds a step's evaluated configuration attributes. Concrete step
// factories decode the values they understand; the pipeline core never
// interprets them.
type Settings map[string]cty.Value

// GetString returns the named string setting, or fallback when absent.
func (s Settings) GetString(name, fallback string) (string, error) {
	val, ok := s[name]
	if !ok || val.IsNull() {
		return fallback, nil
	}
	var out string
	if err := gocty.FromCtyValue(val, &out); err != nil {
		return "", fmt.Errorf("setting %q: %w", name, err)
	}
	return out, nil
}

// GetInt returns the named integer setting, or fallback when absent.
func (s Settings) GetInt(name string, fallback int) (int, error) {
	val, ok := s[name]
	if !ok || val.IsNull() {
		return fallback, nil
	}
	var out int
	if err := gocty.FromCtyValue(val, &out); err != nil {
		return 0, fmt.Errorf("setting %q: %w", name, err)
	}
	return out, nil
}

// GetBool returns the named boolean setting, or fallback when absent.
func (s Settings) GetBool(name string, fallback bool) (bool, error) {
	val, ok := s[name]
	if !ok || val.IsNull() {
		return fallback, nil
	}
	var out bool
	if err := gocty.FromCtyValue(val, &out); err != nil {
		return false, fmt.Errorf("setting %q: %w", name, err)
	}
	return out, nil
}
