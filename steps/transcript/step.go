// Package transcript provides the transcript_normalize step: it converts an
// episode's SubRip subtitle file into the clip JSONL format downstream
// indexing consumes.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/clipforge/internal/artifact"
	"github.com/vk/clipforge/internal/config"
	"github.com/vk/clipforge/internal/fsutil"
	"github.com/vk/clipforge/internal/pipeline"
	"github.com/vk/clipforge/internal/pipeline/output"
	"github.com/vk/clipforge/internal/registry"
)

const outputName = "clips.jsonl"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the step factory with the registry.
func (m Module) Register(r *registry.Registry) {
	r.RegisterFactory("transcript_normalize", New)
}

// Clip is one JSONL record in the normalized transcript.
type Clip struct {
	Episode string `json:"episode"`
	Index   int    `json:"index"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// Step normalizes per-episode subtitle files into clip JSONL.
type Step struct {
	minChars    int
	maxParallel int
}

// New builds the step from its settings block.
func New(cfg any) (pipeline.Step, error) {
	settings, _ := cfg.(config.Settings)

	minChars, err := settings.GetInt("min_clip_chars", 1)
	if err != nil {
		return nil, err
	}
	maxParallel, err := settings.GetInt("max_parallel", 0)
	if err != nil {
		return nil, err
	}

	return &Step{minChars: minChars, maxParallel: maxParallel}, nil
}

// Name implements pipeline.Step.
func (s *Step) Name() string { return "transcript_normalize" }

// MaxParallel implements pipeline.BatchCapable.
func (s *Step) MaxParallel() int { return s.maxParallel }

// CachePath implements pipeline.Cacher.
func (s *Step) CachePath(item artifact.Artifact, run *pipeline.Context) string {
	return filepath.Join(run.EpisodeDir(item.EpisodeCode), outputName)
}

// LoadFromCache implements pipeline.Cacher. The clip count is recovered by
// counting JSONL lines so downstream reporting matches a fresh run.
func (s *Step) LoadFromCache(path string, item artifact.Artifact, run *pipeline.Context) (artifact.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("cached clips missing: %w", err)
	}
	count := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return artifact.New(item.Episode, path).WithCount(count), nil
}

// Process implements pipeline.Step.
func (s *Step) Process(ctx context.Context, item artifact.Artifact, run *pipeline.Context) (artifact.Artifact, error) {
	srtPath := subtitlePath(item.Episode.VideoPath)
	f, err := os.Open(srtPath)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("no subtitle file for %s: %w", item.EpisodeCode, err)
	}
	defer func() { _ = f.Close() }()

	cues, err := parseSRT(f)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("parse %s: %w", srtPath, err)
	}

	var count int
	dest := s.CachePath(item, run)
	if err := fsutil.EnsureParentDir(dest); err != nil {
		return artifact.Artifact{}, err
	}
	err = fsutil.WriteAtomicFunc(dest, 0o644, func(w *os.File) error {
		enc := json.NewEncoder(w)
		for _, c := range cues {
			if len(c.Text) < s.minChars {
				continue
			}
			clip := Clip{
				Episode: item.EpisodeCode,
				Index:   c.Index,
				StartMS: c.StartMS,
				EndMS:   c.EndMS,
				Text:    c.Text,
			}
			if err := enc.Encode(clip); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return artifact.Artifact{}, err
	}

	return artifact.New(item.Episode, dest).WithCount(count), nil
}

// DeclaredOutputs implements pipeline.OutputDeclarer.
func (s *Step) DeclaredOutputs() []output.Descriptor {
	return []output.Descriptor{
		output.File{
			Pattern: outputName,
			Subdir:  "episodes/{episode}",
		},
	}
}

// subtitlePath maps a video path to its sibling .srt file.
func subtitlePath(videoPath string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + ".srt"
}
