package artifact

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/vk/clipforge/internal/ctxlog"
	"github.com/vk/clipforge/internal/fsutil"
)

// videoExtensions are the file suffixes considered episode video sources.
var videoExtensions = []string{".mkv", ".mp4", ".avi", ".webm"}

// episodeCodeRe matches an SxxEyy episode code anywhere in a file name,
// case-insensitively.
var episodeCodeRe = regexp.MustCompile(`(?i)S(\d{1,2})E(\d{1,2})`)

// ParseEpisodeCode extracts and canonicalizes an SxxEyy code from a file name.
// It returns the season and episode numbers alongside the canonical upper-case
// zero-padded code, e.g. "s3e7" -> "S03E07".
func ParseEpisodeCode(name string) (code string, season, number int, err error) {
	m := episodeCodeRe.FindStringSubmatch(name)
	if m == nil {
		return "", 0, 0, fmt.Errorf("no SxxEyy episode code in %q", name)
	}
	season, _ = strconv.Atoi(m[1])
	number, _ = strconv.Atoi(m[2])
	return fmt.Sprintf("S%02dE%02d", season, number), season, number, nil
}

// Discover enumerates the initial set of work items for a pipeline run: every
// video file under seriesDir whose name carries an episode code becomes one
// Artifact. Files without a recognizable code are logged and skipped. Results
// are sorted by episode code for deterministic runs.
func Discover(ctx context.Context, series, seriesDir string) ([]Artifact, error) {
	logger := ctxlog.FromContext(ctx)

	paths, err := fsutil.FindFilesByExtensions(seriesDir, videoExtensions...)
	if err != nil {
		return nil, fmt.Errorf("scan series directory %s: %w", seriesDir, err)
	}

	seen := make(map[string]string)
	var items []Artifact
	for _, path := range paths {
		base := filepath.Base(path)
		code, season, number, err := ParseEpisodeCode(base)
		if err != nil {
			logger.Warn("Skipping video without episode code.", "path", path)
			continue
		}
		if prev, dup := seen[code]; dup {
			return nil, fmt.Errorf("duplicate episode %s: %s and %s", code, prev, path)
		}
		seen[code] = path

		ep := Episode{
			Code:      code,
			Series:    series,
			Season:    season,
			Number:    number,
			VideoPath: path,
		}
		items = append(items, New(ep, path))
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].EpisodeCode < items[j].EpisodeCode
	})

	logger.Info("Discovered episodes.", "series", series, "count", len(items))
	return items, nil
}
