// Package state persists which (step, item) pairs have completed, enabling
// resumable pipeline runs. Lookup errors degrade to "not completed" and
// marker errors are logged by the caller, never escalated.
package state

import "context"

// Manager is the completion-marker collaborator consumed by the executor.
// Implementations serialize their own writes; callers never reason about
// their internal locking.
type Manager interface {
	// IsStepCompleted reports whether stepName has a completion record for
	// itemID.
	IsStepCompleted(ctx context.Context, stepName, itemID string) (bool, error)
	// MarkStepStarted records that processing began, optionally noting the
	// temp paths the step writes through so an operator can find leftovers
	// from interrupted runs.
	MarkStepStarted(ctx context.Context, stepName, itemID string, tempPaths ...string) error
	// MarkStepCompleted records successful completion and clears any started
	// marker's temp paths.
	MarkStepCompleted(ctx context.Context, stepName, itemID string) error
}
