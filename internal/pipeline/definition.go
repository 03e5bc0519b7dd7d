// Package pipeline contains the orchestration core: the step registry and
// dependency graph, the step runtime contract, and the executor that drives
// work items through an ordered set of steps with caching and bounded
// concurrency.
package pipeline

import (
	"fmt"
	"regexp"

	"github.com/vk/clipforge/internal/pipeline/output"
)

// Phase groups steps for reporting and graph rendering. It has no effect on
// execution order.
type Phase string

const (
	PhaseScraping   Phase = "scraping"
	PhaseProcessing Phase = "processing"
	PhaseIndexing   Phase = "indexing"
	PhaseValidation Phase = "validation"
)

// phaseOrder fixes the rendering order of phase groups.
var phaseOrder = []Phase{PhaseScraping, PhaseProcessing, PhaseIndexing, PhaseValidation}

// stepIDRe constrains step identifiers to a shell- and path-safe alphabet.
var stepIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// StepDefinition is the immutable descriptor of one pipeline stage. Two
// definitions with the same ID are the same step for graph purposes; all
// other fields are informational or consumed at assembly time.
type StepDefinition struct {
	// ID is the unique step identifier within a pipeline definition.
	ID string
	// Description is a human-readable summary used in reports.
	Description string
	// Phase groups the step for rendering.
	Phase Phase
	// Uses names the registered step implementation backing this definition.
	Uses string
	// Config is the opaque typed payload handed to the implementation's
	// factory. The core never interprets it.
	Config any
	// DependsOn lists the IDs of upstream steps.
	DependsOn []string
	// Outputs declares what the step promises to produce.
	Outputs []output.Descriptor
}

// StepBuilder assembles a StepDefinition. Field validation happens in Build
// so assembly code can chain calls without intermediate error checks.
type StepBuilder struct {
	def StepDefinition
}

// NewStep starts building a step definition with the given ID.
func NewStep(id string) *StepBuilder {
	return &StepBuilder{def: StepDefinition{ID: id}}
}

// Description sets the human-readable summary.
func (b *StepBuilder) Description(d string) *StepBuilder {
	b.def.Description = d
	return b
}

// Phase sets the reporting phase.
func (b *StepBuilder) Phase(p Phase) *StepBuilder {
	b.def.Phase = p
	return b
}

// Uses names the step implementation this definition binds to.
func (b *StepBuilder) Uses(impl string) *StepBuilder {
	b.def.Uses = impl
	return b
}

// Config attaches the opaque configuration payload.
func (b *StepBuilder) Config(cfg any) *StepBuilder {
	b.def.Config = cfg
	return b
}

// DependsOn appends upstream step IDs.
func (b *StepBuilder) DependsOn(ids ...string) *StepBuilder {
	b.def.DependsOn = append(b.def.DependsOn, ids...)
	return b
}

// Outputs appends declared output descriptors.
func (b *StepBuilder) Outputs(descs ...output.Descriptor) *StepBuilder {
	b.def.Outputs = append(b.def.Outputs, descs...)
	return b
}

// Build validates the assembled definition and returns it by value. The
// returned definition is never mutated by the builder afterwards.
func (b *StepBuilder) Build() (StepDefinition, error) {
	if !stepIDRe.MatchString(b.def.ID) {
		return StepDefinition{}, fmt.Errorf("invalid step ID %q: must match %s", b.def.ID, stepIDRe.String())
	}
	for _, dep := range b.def.DependsOn {
		if !stepIDRe.MatchString(dep) {
			return StepDefinition{}, fmt.Errorf("step %q: invalid dependency ID %q", b.def.ID, dep)
		}
	}
	def := b.def
	def.DependsOn = append([]string(nil), b.def.DependsOn...)
	def.Outputs = append([]output.Descriptor(nil), b.def.Outputs...)
	return def, nil
}

// MustBuild is Build for static pipeline assembly where an invalid ID is a
// programmer error.
func (b *StepBuilder) MustBuild() StepDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
