// Package artifact defines the immutable work-item values that flow between
// pipeline steps: one Artifact per episode per producing step.
package artifact

import "fmt"

// Episode is the metadata for a single episode of a series.
type Episode struct {
	// Code is the canonical episode identifier, e.g. "S03E07".
	Code string
	// Series is the series slug the episode belongs to.
	Series string
	// Season and Number are parsed from Code.
	Season int
	Number int
	// VideoPath is the absolute path of the source video file.
	VideoPath string
}

// Artifact describes a unit of produced data for one episode. It is a value
// object: a step that transforms data returns a new Artifact pointing at a
// new path rather than mutating its input.
type Artifact struct {
	// EpisodeCode identifies the work item this artifact belongs to.
	EpisodeCode string
	// Episode carries the episode metadata for downstream steps.
	Episode Episode
	// Path is the on-disk location of the payload.
	Path string
	// Count is an optional payload summary (e.g. clips in a JSONL file).
	Count int
}

// String implements fmt.Stringer for log output.
func (a Artifact) String() string {
	return fmt.Sprintf("%s (%s)", a.EpisodeCode, a.Path)
}

// New returns an Artifact for the given episode and payload path.
func New(ep Episode, path string) Artifact {
	return Artifact{
		EpisodeCode: ep.Code,
		Episode:     ep,
		Path:        path,
	}
}

// WithCount returns a copy of the artifact with the summary count set.
func (a Artifact) WithCount(n int) Artifact {
	a.Count = n
	return a
}
