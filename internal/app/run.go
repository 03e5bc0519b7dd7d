package app

import (
	"context"
	"fmt"

	"github.com/vk/clipforge/internal/artifact"
	"github.com/vk/clipforge/internal/ctxlog"
	"github.com/vk/clipforge/internal/pipeline"
	"github.com/vk/clipforge/internal/progress"
	"github.com/vk/clipforge/internal/state"
)

// Run executes the configured pipeline: compute the execution order, discover
// work items, and drive the executor. The run report is printed to the app's
// output writer; a non-nil error means the run itself failed, not that
// individual items did.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if appConfig.RenderOnly {
		fmt.Fprint(a.outW, a.graph.Render())
		return nil
	}

	order, err := a.graph.ExecutionOrder(appConfig.Targets, appConfig.Skip)
	if err != nil {
		return fmt.Errorf("compute execution order: %w", err)
	}
	a.logger.Info("Execution order computed.", "steps", order)

	mgr, closeMgr, err := a.newStateManager()
	if err != nil {
		return err
	}
	defer closeMgr()

	run := pipeline.NewContext(
		a.model.Series.Name,
		a.model.Series.OutputRoot,
		appConfig.ForceRerun,
		a.logger,
		mgr,
	)

	items, err := artifact.Discover(ctx, a.model.Series.Name, a.model.Series.MediaDir)
	if err != nil {
		return fmt.Errorf("discover work items: %w", err)
	}
	if len(items) == 0 {
		a.logger.Warn("No episodes found, nothing to do.", "media_dir", a.model.Series.MediaDir)
		return nil
	}

	opts := []pipeline.ExecutorOption{pipeline.WithDefaultWorkers(appConfig.WorkerCount)}
	if a.model.Progress != nil {
		emitter, err := progress.Dial(ctx, a.model.Progress.URL, a.model.Progress.Namespace, run.RunID)
		if err != nil {
			// Progress is best-effort: a dead dashboard never blocks a run.
			a.logger.Warn("Progress endpoint unavailable, continuing without it.", "error", err)
		} else {
			defer emitter.Close()
			opts = append(opts, pipeline.WithNotifier(emitter))
		}
	}

	exec := pipeline.NewExecutor(a.graph, a.impls, opts...)
	report, runErr := exec.Run(ctx, order, items, run)
	if report != nil {
		fmt.Fprint(a.outW, report.Render())
	}
	if runErr != nil {
		return fmt.Errorf("pipeline run failed: %w", runErr)
	}

	a.logger.Info("Pipeline run finished.", "run_id", run.RunID, "failed_items", report.TotalFailed())
	return nil
}

// newStateManager builds the configured StateManager backend. The returned
// close function is a no-op for backends without resources.
func (a *App) newStateManager() (state.Manager, func(), error) {
	switch a.model.State.Backend {
	case "sqlite":
		mgr, err := state.NewSQLiteManager(a.model.State.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open state backend: %w", err)
		}
		return mgr, func() { _ = mgr.Close() }, nil
	case "memory":
		return state.NewMemoryManager(), func() {}, nil
	default:
		// "none": cache decisions fall back to output-path existence.
		return nil, func() {}, nil
	}
}
