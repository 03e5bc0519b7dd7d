// Package app wires configuration, the step registry, and the pipeline core
// into a runnable application.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/clipforge/internal/config"
	"github.com/vk/clipforge/internal/ctxlog"
	"github.com/vk/clipforge/internal/pipeline"
	"github.com/vk/clipforge/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
	graph    *pipeline.Definition
	impls    map[string]pipeline.Step
}

// New constructs the application: it loads the pipeline configuration,
// populates the step registry, builds every step implementation, and
// assembles the validated dependency graph.
func New(ctx context.Context, outW io.Writer, appConfig *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	model, err := config.Load(ctx, appConfig.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("load pipeline configuration: %w", err)
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("Step modules registered.", "count", len(modules))

	graph, impls, err := assemble(model, reg)
	if err != nil {
		return nil, err
	}
	if err := graph.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate pipeline: %w", err)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
		graph:    graph,
		impls:    impls,
	}, nil
}

// assemble turns config step blocks into registered StepDefinitions bound to
// built implementations. Output descriptors come from the implementations
// themselves via pipeline.OutputDeclarer.
func assemble(model *config.Model, reg *registry.Registry) (*pipeline.Definition, map[string]pipeline.Step, error) {
	graph := pipeline.NewDefinition()
	impls := make(map[string]pipeline.Step, len(model.Steps))

	for _, sc := range model.Steps {
		builder := pipeline.NewStep(sc.ID).
			Description(sc.Description).
			Phase(pipeline.Phase(sc.Phase)).
			Uses(sc.Uses).
			Config(sc.Settings).
			DependsOn(sc.DependsOn...)

		def, err := builder.Build()
		if err != nil {
			return nil, nil, err
		}

		impl, err := reg.Build(def)
		if err != nil {
			return nil, nil, err
		}
		if declarer, ok := impl.(pipeline.OutputDeclarer); ok {
			def.Outputs = declarer.DeclaredOutputs()
		}

		if err := graph.Register(def); err != nil {
			return nil, nil, err
		}
		impls[def.ID] = impl
	}

	return graph, impls, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the validated pipeline definition.
func (a *App) Graph() *pipeline.Definition {
	return a.graph
}
