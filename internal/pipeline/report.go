package pipeline

import (
	"fmt"
	"strings"
)

// maxRenderedFailures caps how many failure messages a step report prints
// before collapsing the rest into a "+N more" suffix.
const maxRenderedFailures = 3

// ItemError records one work item's processing failure within a step.
type ItemError struct {
	ItemID  string
	Message string
}

// StepReport aggregates the outcome of one step over all work items.
type StepReport struct {
	// StepID is the definition ID, StepName the implementation name.
	StepID   string
	StepName string
	// Skipped counts cache hits, Succeeded fresh completions, Failed
	// isolated per-item errors.
	Skipped   int
	Succeeded int
	Failed    int
	// Errors holds every per-item failure, in completion order.
	Errors []ItemError
}

// RunReport is the aggregate outcome of a pipeline run, one entry per
// executed step in execution order.
type RunReport struct {
	RunID string
	Steps []StepReport
}

// TotalFailed returns the number of item failures across all steps.
func (r *RunReport) TotalFailed() int {
	n := 0
	for _, s := range r.Steps {
		n += s.Failed
	}
	return n
}

// Render returns the operator-facing run summary: per-step counts and the
// first few failure messages, truncated rather than dumped unbounded.
func (r *RunReport) Render() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Run %s\n", r.RunID))
	for _, s := range r.Steps {
		b.WriteString(fmt.Sprintf("  %-20s skipped=%d succeeded=%d failed=%d\n",
			s.StepID, s.Skipped, s.Succeeded, s.Failed))
		for i, e := range s.Errors {
			if i == maxRenderedFailures {
				b.WriteString(fmt.Sprintf("    ... +%d more\n", len(s.Errors)-maxRenderedFailures))
				break
			}
			b.WriteString(fmt.Sprintf("    %s: %s\n", e.ItemID, e.Message))
		}
	}
	return b.String()
}
