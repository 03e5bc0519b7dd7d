package pipeline

import (
	"fmt"
	"strings"
)

// Render returns a textual view of the pipeline grouped by phase, listing
// each step with its dependencies and declared outputs. It is for operator
// tooling; execution never consults it.
func (d *Definition) Render() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Pipeline (%d steps)\n", len(d.order)))

	grouped := make(map[Phase][]StepDefinition)
	var extra []Phase
	for _, id := range d.order {
		step := d.steps[id]
		if _, known := grouped[step.Phase]; !known {
			found := false
			for _, p := range phaseOrder {
				if p == step.Phase {
					found = true
					break
				}
			}
			if !found {
				extra = append(extra, step.Phase)
			}
		}
		grouped[step.Phase] = append(grouped[step.Phase], step)
	}

	for _, phase := range append(append([]Phase(nil), phaseOrder...), extra...) {
		steps := grouped[phase]
		if len(steps) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n[%s]\n", phase))
		for _, step := range steps {
			b.WriteString(fmt.Sprintf("  %s", step.ID))
			if step.Description != "" {
				b.WriteString(fmt.Sprintf(" - %s", step.Description))
			}
			b.WriteString("\n")
			if len(step.DependsOn) > 0 {
				b.WriteString(fmt.Sprintf("    depends on: %s\n", strings.Join(step.DependsOn, ", ")))
			}
			for _, out := range step.Outputs {
				b.WriteString(fmt.Sprintf("    produces: %s\n", out.Describe()))
			}
		}
	}
	return b.String()
}
