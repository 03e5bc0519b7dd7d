// Package registry maps step implementation names to factories. The mapping
// is static and populated at startup, so a definition referencing a missing
// implementation fails at assembly time with the full list of known names,
// not at run time.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/clipforge/internal/pipeline"
)

// Factory builds a step implementation from its opaque definition config.
type Factory func(cfg any) (pipeline.Step, error)

// Module is implemented by packages that contribute step factories.
type Module interface {
	Register(r *Registry)
}

// Registry holds the step factories for a single application instance.
type Registry struct {
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterFactory adds a factory under the given implementation name.
// Registering the same name twice is a programmer error.
func (r *Registry) RegisterFactory(name string, f Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("step factory %q already registered", name))
	}
	r.factories[name] = f
}

// Build resolves the implementation named by def.Uses and constructs it with
// the definition's config payload.
func (r *Registry) Build(def pipeline.StepDefinition) (pipeline.Step, error) {
	factory, ok := r.factories[def.Uses]
	if !ok {
		return nil, fmt.Errorf("step %q uses unknown implementation %q; known implementations: %s",
			def.ID, def.Uses, strings.Join(r.Known(), ", "))
	}
	step, err := factory(def.Config)
	if err != nil {
		return nil, fmt.Errorf("step %q: building implementation %q: %w", def.ID, def.Uses, err)
	}
	return step, nil
}

// BuildAll constructs one implementation per registered definition, returning
// the binding consumed by the executor.
func (r *Registry) BuildAll(defs []pipeline.StepDefinition) (map[string]pipeline.Step, error) {
	impls := make(map[string]pipeline.Step, len(defs))
	for _, def := range defs {
		step, err := r.Build(def)
		if err != nil {
			return nil, err
		}
		impls[def.ID] = step
	}
	return impls, nil
}

// Known returns the sorted list of registered implementation names.
func (r *Registry) Known() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
