// Package probe provides the media_probe step: it runs ffprobe against each
// episode's source video and stores the stream/format report as JSON.
package probe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/vk/clipforge/internal/artifact"
	"github.com/vk/clipforge/internal/config"
	"github.com/vk/clipforge/internal/fsutil"
	"github.com/vk/clipforge/internal/pipeline"
	"github.com/vk/clipforge/internal/pipeline/output"
	"github.com/vk/clipforge/internal/registry"
)

const outputName = "probe.json"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the step factory with the registry.
func (m Module) Register(r *registry.Registry) {
	r.RegisterFactory("media_probe", New)
}

// Step probes episode videos with ffprobe.
type Step struct {
	binary      string
	maxParallel int
}

// New builds the step from its settings block.
func New(cfg any) (pipeline.Step, error) {
	settings, _ := cfg.(config.Settings)

	binary, err := settings.GetString("ffprobe_binary", "ffprobe")
	if err != nil {
		return nil, err
	}
	maxParallel, err := settings.GetInt("max_parallel", 0)
	if err != nil {
		return nil, err
	}

	return &Step{binary: binary, maxParallel: maxParallel}, nil
}

// Name implements pipeline.Step.
func (s *Step) Name() string { return "media_probe" }

// MaxParallel implements pipeline.BatchCapable: probing is I/O bound and safe
// to fan out.
func (s *Step) MaxParallel() int { return s.maxParallel }

// CachePath implements pipeline.Cacher.
func (s *Step) CachePath(item artifact.Artifact, run *pipeline.Context) string {
	return filepath.Join(run.EpisodeDir(item.EpisodeCode), outputName)
}

// LoadFromCache implements pipeline.Cacher.
func (s *Step) LoadFromCache(path string, item artifact.Artifact, run *pipeline.Context) (artifact.Artifact, error) {
	if _, err := os.Stat(path); err != nil {
		return artifact.Artifact{}, fmt.Errorf("cached probe report missing: %w", err)
	}
	return artifact.New(item.Episode, path), nil
}

// Process implements pipeline.Step.
func (s *Step) Process(ctx context.Context, item artifact.Artifact, run *pipeline.Context) (artifact.Artifact, error) {
	cmd := exec.CommandContext(ctx, s.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		item.Episode.VideoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("ffprobe %s: %w", item.Episode.VideoPath, err)
	}

	dest := s.CachePath(item, run)
	if err := fsutil.EnsureParentDir(dest); err != nil {
		return artifact.Artifact{}, err
	}
	if err := fsutil.WriteAtomic(dest, out, 0o644); err != nil {
		return artifact.Artifact{}, err
	}

	return artifact.New(item.Episode, dest), nil
}

// DeclaredOutputs implements pipeline.OutputDeclarer.
func (s *Step) DeclaredOutputs() []output.Descriptor {
	return []output.Descriptor{
		output.JSONFile{File: output.File{
			Pattern:      outputName,
			Subdir:       "episodes/{episode}",
			MinSizeBytes: 2,
		}},
	}
}
