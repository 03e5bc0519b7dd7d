package output

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Global declares a run-wide artifact resolved against the run root rather
// than a per-episode subdirectory: a series-level manifest, a shared index
// checkpoint. The target may be a single file or a directory, in which case
// sizes are summed recursively.
type Global struct {
	// Pattern is the path pattern relative to the run root.
	Pattern string
	// MinSizeBytes is the minimum total size across the file or directory.
	MinSizeBytes int64
}

// Describe implements Descriptor.
func (g Global) Describe() string {
	return fmt.Sprintf("global %s", g.Pattern)
}

// Validate implements Descriptor. baseDir is the run root; vars may still
// carry run-level placeholders such as {series}.
func (g Global) Validate(baseDir string, vars map[string]string) Result {
	path := filepath.Join(baseDir, expand(g.Pattern, vars))
	info, err := os.Stat(path)
	if err != nil {
		return Result{Message: fmt.Sprintf("missing global output %s", path)}
	}

	if !info.IsDir() {
		if info.Size() < g.MinSizeBytes {
			return Result{
				Message: fmt.Sprintf("%s is %d bytes, below minimum %d", path, info.Size(), g.MinSizeBytes),
				Files:   1,
				Bytes:   info.Size(),
			}
		}
		return Result{
			Valid:   true,
			Message: fmt.Sprintf("%s (%d bytes)", path, info.Size()),
			Files:   1,
			Bytes:   info.Size(),
		}
	}

	var (
		files      int
		totalBytes int64
	)
	walkErr := filepath.WalkDir(path, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		fi, err := entry.Info()
		if err != nil {
			return err
		}
		files++
		totalBytes += fi.Size()
		return nil
	})
	if walkErr != nil {
		return Result{Message: fmt.Sprintf("walk %s: %v", path, walkErr), Files: files, Bytes: totalBytes}
	}

	if totalBytes < g.MinSizeBytes {
		return Result{
			Message: fmt.Sprintf("%s totals %d bytes across %d files, below minimum %d", path, totalBytes, files, g.MinSizeBytes),
			Files:   files,
			Bytes:   totalBytes,
		}
	}
	return Result{
		Valid:   true,
		Message: fmt.Sprintf("%s (%d files, %d bytes)", path, files, totalBytes),
		Files:   files,
		Bytes:   totalBytes,
	}
}
