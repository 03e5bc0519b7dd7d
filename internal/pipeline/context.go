package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vk/clipforge/internal/artifact"
	"github.com/vk/clipforge/internal/state"
)

// Context is the per-run state handed to every step invocation. It is a live
// handle, created once per pipeline run and passed by reference; it is never
// persisted.
type Context struct {
	// RunID uniquely identifies this pipeline run.
	RunID string
	// Series is the series slug the run operates on.
	Series string
	// OutputRoot is the directory all artifacts are written under.
	OutputRoot string
	// ForceRerun bypasses every cache decision: when true, steps recompute
	// even where the StateManager reports completion.
	ForceRerun bool
	// Logger is the run-scoped structured logger.
	Logger *slog.Logger
	// State is the external completion-marker collaborator. A nil Manager
	// means every item is treated as not completed and cache decisions fall
	// back purely to output-path existence.
	State state.Manager
}

// NewContext creates a run context with a fresh run ID. A nil logger falls
// back to slog.Default.
func NewContext(series, outputRoot string, force bool, logger *slog.Logger, mgr state.Manager) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		RunID:      uuid.New().String(),
		Series:     series,
		OutputRoot: outputRoot,
		ForceRerun: force,
		Logger:     logger,
		State:      mgr,
	}
}

// EpisodeDir returns the per-episode artifact directory for a work item.
func (c *Context) EpisodeDir(episodeCode string) string {
	return filepath.Join(c.OutputRoot, "episodes", episodeCode)
}

// Vars returns the path-template variables for a work item, used when
// validating output descriptors.
func (c *Context) Vars(item artifact.Artifact) map[string]string {
	return map[string]string{
		"series":  c.Series,
		"episode": item.EpisodeCode,
		"season":  fmt.Sprintf("%02d", item.Episode.Season),
	}
}
