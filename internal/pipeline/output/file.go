package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File declares a single expected output file.
type File struct {
	// Pattern is the file name pattern, with {var} placeholders substituted
	// at validation time (e.g. "{episode}.jsonl").
	Pattern string
	// Subdir is an optional directory between the base dir and the file.
	Subdir string
	// MinSizeBytes is the minimum acceptable file size. Zero-byte outputs are
	// accepted only when this is 0.
	MinSizeBytes int64
}

// Describe implements Descriptor.
func (f File) Describe() string {
	return fmt.Sprintf("file %s", filepath.Join(f.Subdir, f.Pattern))
}

// Validate implements Descriptor.
func (f File) Validate(baseDir string, vars map[string]string) Result {
	path := filepath.Join(baseDir, expand(f.Subdir, vars), expand(f.Pattern, vars))
	info, err := os.Stat(path)
	if err != nil {
		return Result{Message: fmt.Sprintf("missing file %s", path)}
	}
	if info.IsDir() {
		return Result{Message: fmt.Sprintf("%s is a directory, expected a file", path)}
	}
	if info.Size() < f.MinSizeBytes {
		return Result{
			Message: fmt.Sprintf("%s is %d bytes, below minimum %d", path, info.Size(), f.MinSizeBytes),
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

// JSONFile declares a single expected JSON output file. On top of the File
// checks the payload must parse as JSON, and SchemaCheck, when set, must
// accept the parsed document.
type JSONFile struct {
	File
	// SchemaCheck is an optional callback over the decoded document. A
	// returned error marks the result invalid with the error text.
	SchemaCheck func(doc any) error
}

// Describe implements Descriptor.
func (j JSONFile) Describe() string {
	return fmt.Sprintf("json %s", filepath.Join(j.Subdir, j.Pattern))
}

// Validate implements Descriptor.
func (j JSONFile) Validate(baseDir string, vars map[string]string) Result {
	res := j.File.Validate(baseDir, vars)
	if !res.Valid {
		return res
	}

	path := filepath.Join(baseDir, expand(j.Subdir, vars), expand(j.Pattern, vars))
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Message: fmt.Sprintf("read %s: %v", path, err), Files: res.Files, Bytes: res.Bytes}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{Message: fmt.Sprintf("%s is not valid JSON: %v", path, err), Files: res.Files, Bytes: res.Bytes}
	}

	if j.SchemaCheck != nil {
		if err := j.SchemaCheck(doc); err != nil {
			return Result{Message: fmt.Sprintf("%s failed schema check: %v", path, err), Files: res.Files, Bytes: res.Bytes}
		}
	}

	return res
}
