package config

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/clipforge/internal/ctxlog"
)

// fileSchema mirrors the HCL surface of a pipeline configuration file.
type fileSchema struct {
	Series   *seriesSchema   `hcl:"series,block"`
	State    *stateSchema    `hcl:"state,block"`
	Progress *progressSchema `hcl:"progress,block"`
	Steps    []*stepSchema   `hcl:"step,block"`
}

type seriesSchema struct {
	Name       string `hcl:"name"`
	MediaDir   string `hcl:"media_dir"`
	OutputRoot string `hcl:"output_root"`
}

type stateSchema struct {
	Backend string `hcl:"backend"`
	Path    string `hcl:"path,optional"`
}

type progressSchema struct {
	URL       string `hcl:"url"`
	Namespace string `hcl:"namespace,optional"`
}

type stepSchema struct {
	ID          string         `hcl:"id,label"`
	Uses        string         `hcl:"uses"`
	Description string         `hcl:"description,optional"`
	Phase       string         `hcl:"phase,optional"`
	DependsOn   []string       `hcl:"depends_on,optional"`
	Settings    *settingsBlock `hcl:"settings,block"`
}

type settingsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Load parses and validates the pipeline configuration at path.
func Load(ctx context.Context, path string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", path, diags)
	}

	var schema fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &schema); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", path, diags)
	}

	if schema.Series == nil {
		return nil, fmt.Errorf("%s: missing required 'series' block", path)
	}
	if len(schema.Steps) == 0 {
		return nil, fmt.Errorf("%s: at least one 'step' block is required", path)
	}

	model := &Model{
		Series: Series{
			Name:       schema.Series.Name,
			MediaDir:   schema.Series.MediaDir,
			OutputRoot: schema.Series.OutputRoot,
		},
		State: State{Backend: "none"},
	}

	if schema.State != nil {
		switch schema.State.Backend {
		case "sqlite", "memory", "none":
			// valid
		default:
			return nil, fmt.Errorf("%s: unknown state backend %q (supported: sqlite, memory, none)", path, schema.State.Backend)
		}
		if schema.State.Backend == "sqlite" && schema.State.Path == "" {
			return nil, fmt.Errorf("%s: state backend 'sqlite' requires 'path'", path)
		}
		model.State = State{Backend: schema.State.Backend, Path: schema.State.Path}
	}

	if schema.Progress != nil {
		model.Progress = &Progress{URL: schema.Progress.URL, Namespace: schema.Progress.Namespace}
	}

	for _, s := range schema.Steps {
		settings, err := evalSettings(s.Settings)
		if err != nil {
			return nil, fmt.Errorf("%s: step %q: %w", path, s.ID, err)
		}
		model.Steps = append(model.Steps, &StepConfig{
			ID:          s.ID,
			Uses:        s.Uses,
			Description: s.Description,
			Phase:       s.Phase,
			DependsOn:   s.DependsOn,
			Settings:    settings,
		})
	}

	logger.Debug("Pipeline configuration loaded.", "path", path, "steps", len(model.Steps))
	return model, nil
}

// evalSettings evaluates a settings block's attributes as literal values.
// Expressions referencing variables are rejected; settings are static
// configuration, not templates.
func evalSettings(block *settingsBlock) (Settings, error) {
	if block == nil {
		return nil, nil
	}
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("settings block: %w", diags)
	}

	settings := make(Settings, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("setting %q: %w", name, diags)
		}
		if val == cty.NilVal {
			continue
		}
		settings[name] = val
	}
	return settings, nil
}
