package pipeline

import (
	"context"
	"errors"

	"github.com/vk/clipforge/internal/artifact"
	"github.com/vk/clipforge/internal/pipeline/output"
)

// Step is the runtime contract every concrete step implementation satisfies.
// Process must be safe to call concurrently for different items of the same
// step when the implementation also declares BatchCapable; the only shared
// state allowed is what Setup established, and that must itself be safe for
// concurrent use.
type Step interface {
	// Name is the stable stage identifier used as the cache namespace in the
	// StateManager. It is distinct from the StepDefinition ID: one
	// implementation may back several definitions.
	Name() string
	// Process performs the actual work for one item and returns the produced
	// artifact.
	Process(ctx context.Context, item artifact.Artifact, run *Context) (artifact.Artifact, error)
}

// ResourceLifecycle is implemented by steps holding expensive run-scoped
// resources (a loaded model, a warmed connection). Setup runs once before the
// first item of the first definition using the implementation; Teardown runs
// after the last definition using it, releasing the resource before later
// steps execute.
type ResourceLifecycle interface {
	Setup(ctx context.Context, run *Context) error
	Teardown(ctx context.Context, run *Context) error
}

// BatchCapable marks a step whose pending items may be dispatched across a
// bounded worker pool instead of one at a time. MaxParallel returns the pool
// size; values < 1 mean "use the executor default".
type BatchCapable interface {
	MaxParallel() int
}

// Cacher is implemented by steps that can skip recomputation. CachePath
// returns the path whose presence (confirmed complete by the StateManager,
// when one is configured) lets the executor skip the item; LoadFromCache
// reconstructs the output artifact from that path without re-running Process.
type Cacher interface {
	CachePath(item artifact.Artifact, run *Context) string
	LoadFromCache(path string, item artifact.Artifact, run *Context) (artifact.Artifact, error)
}

// OutputDeclarer lets an implementation declare the output descriptors for
// the definitions that bind it, so assembly code does not repeat them.
type OutputDeclarer interface {
	DeclaredOutputs() []output.Descriptor
}

// ErrAbortStep marks a processing failure from an all-or-nothing step. An
// item error wrapping it aborts the whole step instead of being isolated:
// used by steps with no meaningful partial result, such as index-wide
// operations.
var ErrAbortStep = errors.New("step has no partial result, aborting")
