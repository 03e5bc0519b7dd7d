// Package output declares and validates the artifacts a pipeline step
// promises to produce.
//
// Descriptors are pure value objects: Validate never returns an error for an
// expected absence or a malformed payload. Those conditions are reported
// through the Result so callers can render them, because output validation is
// advisory, not a gate the pipeline trips over.
package output

import "strings"

// Result is the outcome of validating one descriptor against the filesystem.
type Result struct {
	// Valid reports whether every declared constraint held.
	Valid bool
	// Message is a human-readable explanation, including the specific parse
	// or I/O error when one occurred.
	Message string
	// Files is the number of files observed (1 for single-file descriptors).
	Files int
	// Bytes is the total size observed across those files.
	Bytes int64
}

// Descriptor is the contract every output declaration implements.
type Descriptor interface {
	// Describe returns a short human-readable summary for graph rendering.
	Describe() string
	// Validate resolves the descriptor's expected path(s) under baseDir,
	// substituting vars into the path pattern, and checks the declared
	// constraints. A missing path yields an invalid Result, never an error.
	Validate(baseDir string, vars map[string]string) Result
}

// expand substitutes {name} occurrences in pattern with values from vars.
// Unknown placeholders are left as-is; the subsequent existence check will
// report them.
func expand(pattern string, vars map[string]string) string {
	if len(vars) == 0 {
		return pattern
	}
	out := pattern
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}
