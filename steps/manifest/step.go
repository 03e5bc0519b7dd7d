// Package manifest provides the series_manifest step: it collects a summary
// of every episode that survived the pipeline and writes one run-wide
// manifest file at the output root.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vk/clipforge/internal/artifact"
	"github.com/vk/clipforge/internal/fsutil"
	"github.com/vk/clipforge/internal/pipeline"
	"github.com/vk/clipforge/internal/pipeline/output"
	"github.com/vk/clipforge/internal/registry"
)

const outputName = "manifest.json"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the step factory with the registry.
func (m Module) Register(r *registry.Registry) {
	r.RegisterFactory("series_manifest", New)
}

// Entry is one episode's line in the manifest.
type Entry struct {
	Episode string `json:"episode"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Clips   int    `json:"clips,omitempty"`
	Path    string `json:"path"`
}

// Manifest is the run-wide document written at the output root.
type Manifest struct {
	Series      string  `json:"series"`
	RunID       string  `json:"run_id"`
	GeneratedAt string  `json:"generated_at"`
	Episodes    []Entry `json:"episodes"`
}

// Step accumulates entries across items and writes the manifest when the
// executor tears the step down after its last use.
type Step struct {
	mu      sync.Mutex
	entries []Entry
}

// New builds the step. The manifest step takes no settings.
func New(cfg any) (pipeline.Step, error) {
	return &Step{}, nil
}

// Name implements pipeline.Step.
func (s *Step) Name() string { return "series_manifest" }

// Setup implements pipeline.ResourceLifecycle.
func (s *Step) Setup(ctx context.Context, run *pipeline.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// Process implements pipeline.Step. It records the episode and passes the
// artifact through unchanged.
func (s *Step) Process(ctx context.Context, item artifact.Artifact, run *pipeline.Context) (artifact.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{
		Episode: item.EpisodeCode,
		Season:  item.Episode.Season,
		Number:  item.Episode.Number,
		Clips:   item.Count,
		Path:    item.Path,
	})
	return item, nil
}

// Teardown implements pipeline.ResourceLifecycle: the manifest is written
// once, after the last item has been recorded.
func (s *Step) Teardown(ctx context.Context, run *pipeline.Context) error {
	s.mu.Lock()
	entries := append([]Entry(nil), s.entries...)
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Episode < entries[j].Episode })

	doc := Manifest{
		Series:      run.Series,
		RunID:       run.RunID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Episodes:    entries,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	dest := filepath.Join(run.OutputRoot, outputName)
	if err := fsutil.EnsureParentDir(dest); err != nil {
		return err
	}
	return fsutil.WriteAtomic(dest, data, 0o644)
}

// DeclaredOutputs implements pipeline.OutputDeclarer.
func (s *Step) DeclaredOutputs() []output.Descriptor {
	return []output.Descriptor{
		output.Global{Pattern: outputName, MinSizeBytes: 2},
	}
}
