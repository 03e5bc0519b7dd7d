package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// WriteAtomic writes data to path with atomic-replace semantics: the bytes go
// to a temp file beside the final path, are fsynced, and are renamed over the
// final path only on success. On any error the temp file is removed and the
// final path is left untouched.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(perm))
	if err != nil {
		return fmt.Errorf("create pending file for %s: %w", path, err)
	}
	defer func() {
		// Cleanup is a no-op once the file has been committed.
		_ = pending.Cleanup()
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write pending file for %s: %w", path, err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}

	return nil
}

// WriteAtomicFunc is the streaming variant of WriteAtomic. The write callback
// receives the pending temp file; if it returns an error, or the final rename
// fails, no file appears at path and the temp file is cleaned up. The callback
// must not retain the file handle.
func WriteAtomicFunc(path string, perm os.FileMode, write func(f *os.File) error) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(perm))
	if err != nil {
		return fmt.Errorf("create pending file for %s: %w", path, err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if err := write(pending.File); err != nil {
		return fmt.Errorf("write pending file for %s: %w", path, err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}

	return nil
}

// EnsureDir creates dir (and parents) if it does not already exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// EnsureParentDir creates the parent directory of path if it does not exist.
func EnsureParentDir(path string) error {
	return EnsureDir(filepath.Dir(path))
}
