package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/vk/clipforge/internal/artifact"
	"github.com/vk/clipforge/internal/ctxlog"
)

// Notifier receives execution progress events. Implementations must be safe
// for concurrent ItemFinished calls.
type Notifier interface {
	StepStarted(stepID string, pending, cached int)
	ItemFinished(stepID, itemID string, err error)
	StepFinished(stepID string, report StepReport)
}

// Executor drives work items through an ordered list of steps, applying
// caching and bounded per-step concurrency while isolating per-item failures.
// It holds no state beyond the current run.
type Executor struct {
	graph *Definition
	// impls binds definition IDs to step implementation instances.
	impls map[string]Step
	// defaultWorkers bounds batch fan-out for steps that do not set their own
	// pool size.
	defaultWorkers int
	notifier       Notifier
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithDefaultWorkers sets the fallback worker-pool size for batch-capable
// steps.
func WithDefaultWorkers(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.defaultWorkers = n
		}
	}
}

// WithNotifier attaches a progress notifier.
func WithNotifier(n Notifier) ExecutorOption {
	return func(e *Executor) { e.notifier = n }
}

// NewExecutor creates an executor over a validated definition and its bound
// step implementations.
func NewExecutor(graph *Definition, impls map[string]Step, opts ...ExecutorOption) *Executor {
	e := &Executor{
		graph:          graph,
		impls:          impls,
		defaultWorkers: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// itemResult carries one item's outcome out of a worker.
type itemResult struct {
	itemID string
	art    artifact.Artifact
	err    error
}

// Run executes the given order against the starting work items. Per-item
// failures are aggregated into the report and drop the item from the forward
// flow; they do not abort the run. The returned error is non-nil only for
// run-level failures: unbound or missing steps, resource setup failures,
// all-or-nothing step aborts, and context cancellation.
//
// Resources set up during the run are torn down best-effort on every exit
// path, including cancellation.
func (e *Executor) Run(ctx context.Context, order []string, items []artifact.Artifact, run *Context) (report *RunReport, retErr error) {
	logger := run.Logger
	ctx = ctxlog.WithLogger(ctx, logger)

	report = &RunReport{RunID: run.RunID}

	// remainingUses counts, per implementation instance, how many steps in
	// the order still need it. Teardown fires when the count reaches zero.
	remainingUses := make(map[Step]int)
	for _, id := range order {
		if impl, ok := e.impls[id]; ok {
			remainingUses[impl]++
		}
	}
	setUp := make(map[Step]bool)
	defer func() {
		// Best-effort cleanup for resources still held on early exits.
		for impl, up := range setUp {
			if !up {
				continue
			}
			if lc, ok := impl.(ResourceLifecycle); ok {
				if err := lc.Teardown(context.WithoutCancel(ctx), run); err != nil {
					logger.Warn("Resource teardown failed during cleanup.", "step", impl.Name(), "error", err)
				}
			}
		}
	}()

	current := items
	for _, stepID := range order {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		def, err := e.graph.Step(stepID)
		if err != nil {
			return report, err
		}
		impl, ok := e.impls[stepID]
		if !ok {
			return report, fmt.Errorf("no implementation bound for step %q", stepID)
		}

		if lc, isResource := impl.(ResourceLifecycle); isResource && !setUp[impl] {
			if err := lc.Setup(ctx, run); err != nil {
				return report, fmt.Errorf("resource setup for step %q failed: %w", stepID, err)
			}
			setUp[impl] = true
		}

		stepReport, next, err := e.runStep(ctx, def, impl, current, run)
		report.Steps = append(report.Steps, stepReport)
		if e.notifier != nil {
			e.notifier.StepFinished(stepID, stepReport)
		}
		if err != nil {
			return report, err
		}
		current = next

		remainingUses[impl]--
		if remainingUses[impl] == 0 && setUp[impl] {
			if lc, isResource := impl.(ResourceLifecycle); isResource {
				if terr := lc.Teardown(ctx, run); terr != nil {
					// Teardown failures never hide a step's recorded success.
					logger.Warn("Resource teardown failed.", "step", stepID, "error", terr)
				}
				setUp[impl] = false
			}
		}
	}

	return report, nil
}

// runStep executes one step over the current items: cache partition, batch or
// sequential dispatch, and forward-flow merge.
func (e *Executor) runStep(ctx context.Context, def StepDefinition, impl Step, items []artifact.Artifact, run *Context) (StepReport, []artifact.Artifact, error) {
	logger := run.Logger.With("step", def.ID, "impl", impl.Name())
	report := StepReport{StepID: def.ID, StepName: impl.Name()}

	cached, pending := e.partition(ctx, impl, items, run, logger)
	logger.Info("Step starting.", "cached", len(cached), "pending", len(pending))
	if e.notifier != nil {
		e.notifier.StepStarted(def.ID, len(pending), len(cached))
	}

	produced := make(map[string]artifact.Artifact, len(items))

	// Cache hits reconstruct their artifact without re-invoking Process. A
	// failed reconstruction demotes the item to pending: recompute beats
	// trusting a stale artifact.
	cacher, _ := impl.(Cacher)
	for _, item := range cached {
		art, err := cacher.LoadFromCache(cacher.CachePath(item, run), item, run)
		if err != nil {
			logger.Warn("Cache load failed, recomputing item.", "item", item.EpisodeCode, "error", err)
			pending = append(pending, item)
			continue
		}
		produced[item.EpisodeCode] = art
		report.Skipped++
	}

	var results []itemResult
	batch, _ := impl.(BatchCapable)
	if batch != nil && len(pending) > 1 {
		results = e.runBatch(ctx, impl, batch, pending, run)
	} else {
		results = e.runSequential(ctx, impl, pending, run)
	}

	var abortErr error
	for _, res := range results {
		if e.notifier != nil {
			e.notifier.ItemFinished(def.ID, res.itemID, res.err)
		}
		if res.err != nil {
			logger.Error("Item processing failed.", "item", res.itemID, "error", res.err)
			report.Failed++
			report.Errors = append(report.Errors, ItemError{ItemID: res.itemID, Message: res.err.Error()})
			if errors.Is(res.err, ErrAbortStep) && abortErr == nil {
				abortErr = fmt.Errorf("step %q aborted: %w", def.ID, res.err)
			}
			continue
		}
		produced[res.itemID] = res.art
		report.Succeeded++
	}

	if abortErr != nil {
		return report, nil, abortErr
	}
	if err := ctx.Err(); err != nil {
		return report, nil, err
	}

	// Items whose processing failed are dropped from the forward flow; input
	// order is preserved for the survivors.
	next := make([]artifact.Artifact, 0, len(produced))
	for _, item := range items {
		if art, ok := produced[item.EpisodeCode]; ok {
			next = append(next, art)
		}
	}
	return report, next, nil
}

// partition splits items into cache hits and items that must run. An item is
// a cache hit only when the cache path exists on disk and, unless ForceRerun,
// the StateManager (when configured) confirms completion. A present path
// without a completion record is treated as stale and recomputed.
func (e *Executor) partition(ctx context.Context, impl Step, items []artifact.Artifact, run *Context, logger *slog.Logger) (cached, pending []artifact.Artifact) {
	cacher, isCacher := impl.(Cacher)
	if !isCacher || run.ForceRerun {
		return nil, items
	}

	for _, item := range items {
		path := cacher.CachePath(item, run)
		if path == "" {
			pending = append(pending, item)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			pending = append(pending, item)
			continue
		}
		if run.State != nil {
			done, err := run.State.IsStepCompleted(ctx, impl.Name(), item.EpisodeCode)
			if err != nil {
				logger.Warn("State lookup failed, recomputing item.", "item", item.EpisodeCode, "error", err)
				pending = append(pending, item)
				continue
			}
			if !done {
				pending = append(pending, item)
				continue
			}
		}
		cached = append(cached, item)
	}
	return cached, pending
}

// runSequential processes items one at a time, checking for cancellation
// between items. Cancellation mid-item is not supported: an item either
// completes or fails.
func (e *Executor) runSequential(ctx context.Context, impl Step, pending []artifact.Artifact, run *Context) []itemResult {
	results := make([]itemResult, 0, len(pending))
	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			results = append(results, itemResult{itemID: item.EpisodeCode, err: err})
			continue
		}
		results = append(results, e.runItem(ctx, impl, item, run))
	}
	return results
}

// runBatch fans pending items out over a bounded worker pool. Results are
// collected over a channel, never a shared slice.
func (e *Executor) runBatch(ctx context.Context, impl Step, batch BatchCapable, pending []artifact.Artifact, run *Context) []itemResult {
	workers := batch.MaxParallel()
	if workers < 1 {
		workers = e.defaultWorkers
	}
	if workers > len(pending) {
		workers = len(pending)
	}

	itemChan := make(chan artifact.Artifact, len(pending))
	resultChan := make(chan itemResult, len(pending))
	for _, item := range pending {
		itemChan <- item
	}
	close(itemChan)

	for i := 0; i < workers; i++ {
		go func() {
			for item := range itemChan {
				if err := ctx.Err(); err != nil {
					resultChan <- itemResult{itemID: item.EpisodeCode, err: err}
					continue
				}
				resultChan <- e.runItem(ctx, impl, item, run)
			}
		}()
	}

	results := make([]itemResult, 0, len(pending))
	for range pending {
		results = append(results, <-resultChan)
	}
	return results
}

// runItem marks the item started, invokes Process, and marks completion.
// Marker failures are logged, never escalated: the StateManager is advisory.
func (e *Executor) runItem(ctx context.Context, impl Step, item artifact.Artifact, run *Context) (res itemResult) {
	res.itemID = item.EpisodeCode

	if run.State != nil {
		if err := run.State.MarkStepStarted(ctx, impl.Name(), item.EpisodeCode); err != nil {
			run.Logger.Warn("Failed to mark step started.", "step", impl.Name(), "item", item.EpisodeCode, "error", err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("step %q panicked on item %s: %v", impl.Name(), item.EpisodeCode, r)
		}
	}()

	art, err := impl.Process(ctx, item, run)
	if err != nil {
		res.err = err
		return res
	}

	if run.State != nil {
		if err := run.State.MarkStepCompleted(ctx, impl.Name(), item.EpisodeCode); err != nil {
			run.Logger.Warn("Failed to mark step completed.", "step", impl.Name(), "item", item.EpisodeCode, "error", err)
		}
	}

	res.art = art
	return res
}
