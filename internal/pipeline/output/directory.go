package output

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Directory declares an expected output directory containing a minimum number
// of (optionally pattern-matched) files.
type Directory struct {
	// Pattern is the directory name pattern, {var} placeholders substituted
	// at validation time (e.g. "{episode}_frames").
	Pattern string
	// Subdir is an optional directory between the base dir and the target.
	Subdir string
	// FilePattern is a doublestar glob applied to entries inside the
	// directory ("*.jpg", "**/*.json"). Empty matches every file.
	FilePattern string
	// MinFiles is the minimum number of matching files required.
	MinFiles int
	// MinSizePerFileBytes, when > 0, requires every matching file to be at
	// least this large.
	MinSizePerFileBytes int64
}

// Describe implements Descriptor.
func (d Directory) Describe() string {
	glob := d.FilePattern
	if glob == "" {
		glob = "*"
	}
	return fmt.Sprintf("dir %s (%s, min %d)", filepath.Join(d.Subdir, d.Pattern), glob, d.MinFiles)
}

// Validate implements Descriptor.
func (d Directory) Validate(baseDir string, vars map[string]string) Result {
	dir := filepath.Join(baseDir, expand(d.Subdir, vars), expand(d.Pattern, vars))
	info, err := os.Stat(dir)
	if err != nil {
		return Result{Message: fmt.Sprintf("missing directory %s", dir)}
	}
	if !info.IsDir() {
		return Result{Message: fmt.Sprintf("%s is a file, expected a directory", dir)}
	}

	var (
		matched    int
		totalBytes int64
		undersized string
	)
	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if d.FilePattern != "" {
			ok, err := doublestar.Match(d.FilePattern, filepath.ToSlash(rel))
			if err != nil {
				return fmt.Errorf("bad file pattern %q: %w", d.FilePattern, err)
			}
			if !ok {
				return nil
			}
		}
		fi, err := entry.Info()
		if err != nil {
			return err
		}
		matched++
		totalBytes += fi.Size()
		if d.MinSizePerFileBytes > 0 && fi.Size() < d.MinSizePerFileBytes && undersized == "" {
			undersized = fmt.Sprintf("%s is %d bytes, below per-file minimum %d", path, fi.Size(), d.MinSizePerFileBytes)
		}
		return nil
	})
	if walkErr != nil {
		return Result{Message: fmt.Sprintf("walk %s: %v", dir, walkErr), Files: matched, Bytes: totalBytes}
	}

	if matched < d.MinFiles {
		return Result{
			Message: fmt.Sprintf("%s has %d matching files, expected at least %d", dir, matched, d.MinFiles),
			Files:   matched,
			Bytes:   totalBytes,
		}
	}
	if undersized != "" {
		return Result{Message: undersized, Files: matched, Bytes: totalBytes}
	}

	return Result{
		Valid:   true,
		Message: fmt.Sprintf("%s (%d files, %d bytes)", dir, matched, totalBytes),
		Files:   matched,
		Bytes:   totalBytes,
	}
}
