package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/clipforge/internal/ctxlog"
)

// Definition is the registry of pipeline steps and their derived dependency
// graph. Steps are registered once, the graph is validated once, and ordering
// queries are answered from the validated graph. Registering another step
// after Validate invalidates the graph until Validate runs again.
type Definition struct {
	steps map[string]StepDefinition
	// order preserves registration order for deterministic topological
	// tie-breaking and rendering.
	order []string
	// dependents is the derived forward adjacency (dependency -> dependents),
	// built by Validate.
	dependents map[string][]string
	validated  bool
}

// NewDefinition returns an empty pipeline definition.
func NewDefinition() *Definition {
	return &Definition{
		steps: make(map[string]StepDefinition),
	}
}

// Register adds a step to the registry. Registering the same ID twice is an
// assembly bug and fails immediately, before Validate is ever reached.
func (d *Definition) Register(step StepDefinition) error {
	if _, exists := d.steps[step.ID]; exists {
		return fmt.Errorf("duplicate step %q: each step ID may be registered once; check the pipeline assembly for a repeated step block", step.ID)
	}
	d.steps[step.ID] = step
	d.order = append(d.order, step.ID)
	d.validated = false
	return nil
}

// Validate builds the dependency graph and checks it is fully resolved and
// acyclic. It must be called before any ordering query.
func (d *Definition) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	dependents := make(map[string][]string, len(d.steps))
	for _, id := range d.order {
		step := d.steps[id]
		for _, dep := range step.DependsOn {
			if _, ok := d.steps[dep]; !ok {
				return fmt.Errorf("step %q depends on unregistered step %q: register %q or remove it from the dependency list of %q", id, dep, dep, id)
			}
			dependents[dep] = append(dependents[dep], id)
		}
	}

	if cycle := d.findCycle(dependents); len(cycle) > 0 {
		return fmt.Errorf("dependency cycle detected: %s (steps involved: %s)",
			strings.Join(cycle, " -> "), strings.Join(cycle[:len(cycle)-1], ", "))
	}

	d.dependents = dependents
	d.validated = true
	logger.Info("Pipeline definition validated.", "steps", len(d.steps), "acyclic", true)
	return nil
}

// findCycle runs a DFS over the forward adjacency and reconstructs the first
// cycle it encounters as a path ending on its starting node, e.g.
// [a b c a]. It returns nil for an acyclic graph.
func (d *Definition) findCycle(dependents map[string][]string) []string {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(d.steps))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = inStack
		stack = append(stack, id)

		for _, next := range dependents[id] {
			switch state[next] {
			case inStack:
				// Slice the stack from the first occurrence of next to close the loop.
				for i, s := range stack {
					if s == next {
						cycle = append(append([]string(nil), stack[i:]...), next)
						return true
					}
				}
			case unvisited:
				if visit(next) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range d.order {
		if state[id] == unvisited {
			if visit(id) {
				return cycle
			}
		}
	}
	return nil
}

// Step returns the definition registered under id. An unknown ID fails with
// the full list of known IDs, which makes typos in assembly code and CLI
// arguments obvious.
func (d *Definition) Step(id string) (StepDefinition, error) {
	step, ok := d.steps[id]
	if !ok {
		known := append([]string(nil), d.order...)
		sort.Strings(known)
		return StepDefinition{}, fmt.Errorf("step %q not found; known steps: %s", id, strings.Join(known, ", "))
	}
	return step, nil
}

// AllSteps returns every registered step in registration order.
func (d *Definition) AllSteps() []StepDefinition {
	out := make([]StepDefinition, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.steps[id])
	}
	return out
}

// ExecutionOrder computes a topological order over the validated graph.
//
// When targets is non-empty the result is restricted to the targets and their
// transitive dependencies, preserving topological order; every target must be
// a registered step.
//
// Skip removes exactly the named steps from the final order. Dependents of a
// skipped step are NOT removed: a step downstream of a skipped one stays in
// the order and must tolerate the missing upstream artifact. Callers use this
// to re-run parts of a pipeline whose upstream outputs already exist on disk.
func (d *Definition) ExecutionOrder(targets, skip []string) ([]string, error) {
	if !d.validated {
		return nil, fmt.Errorf("pipeline definition not validated: call Validate before querying the execution order")
	}

	full, err := d.topoSort()
	if err != nil {
		return nil, err
	}

	include := make(map[string]bool, len(full))
	if len(targets) == 0 {
		for _, id := range full {
			include[id] = true
		}
	} else {
		for _, target := range targets {
			if _, ok := d.steps[target]; !ok {
				return nil, fmt.Errorf("unknown target step %q", target)
			}
			d.collectAncestors(target, include)
		}
	}

	skipped := make(map[string]bool, len(skip))
	for _, id := range skip {
		skipped[id] = true
	}

	var orderOut []string
	for _, id := range full {
		if include[id] && !skipped[id] {
			orderOut = append(orderOut, id)
		}
	}
	return orderOut, nil
}

// collectAncestors marks id and all of its transitive dependencies in set.
func (d *Definition) collectAncestors(id string, set map[string]bool) {
	if set[id] {
		return
	}
	set[id] = true
	for _, dep := range d.steps[id].DependsOn {
		d.collectAncestors(dep, set)
	}
}

// topoSort is Kahn's algorithm with registration order as the tie-break, so
// the full order is stable across runs.
func (d *Definition) topoSort() ([]string, error) {
	indegree := make(map[string]int, len(d.steps))
	for _, id := range d.order {
		indegree[id] = len(d.steps[id].DependsOn)
	}

	emitted := make(map[string]bool, len(d.steps))
	result := make([]string, 0, len(d.steps))
	for len(result) < len(d.order) {
		progressed := false
		for _, id := range d.order {
			if emitted[id] || indegree[id] != 0 {
				continue
			}
			emitted[id] = true
			result = append(result, id)
			for _, dep := range d.dependents[id] {
				indegree[dep]--
			}
			progressed = true
		}
		if !progressed {
			// Unreachable after Validate, which rejects cycles.
			return nil, fmt.Errorf("topological sort stalled with %d of %d steps ordered", len(result), len(d.order))
		}
	}
	return result, nil
}
