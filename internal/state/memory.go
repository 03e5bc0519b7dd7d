package state

import (
	"context"
	"sync"
)

// MemoryManager is a thread-safe in-process Manager, used in tests and for
// runs that do not need resumability across restarts.
type MemoryManager struct {
	mu      sync.RWMutex
	started map[string][]string
	done    map[string]bool
}

// NewMemoryManager creates an empty in-memory manager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		started: make(map[string][]string),
		done:    make(map[string]bool),
	}
}

func key(stepName, itemID string) string {
	return stepName + "\x00" + itemID
}

// IsStepCompleted implements Manager.
func (m *MemoryManager) IsStepCompleted(ctx context.Context, stepName, itemID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done[key(stepName, itemID)], nil
}

// MarkStepStarted implements Manager.
func (m *MemoryManager) MarkStepStarted(ctx context.Context, stepName, itemID string, tempPaths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(stepName, itemID)
	m.started[k] = append([]string(nil), tempPaths...)
	delete(m.done, k)
	return nil
}

// MarkStepCompleted implements Manager.
func (m *MemoryManager) MarkStepCompleted(ctx context.Context, stepName, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(stepName, itemID)
	m.done[k] = true
	delete(m.started, k)
	return nil
}

// StartedTempPaths returns the temp paths noted for an in-flight (step, item)
// pair, for operator inspection after interrupted runs.
func (m *MemoryManager) StartedTempPaths(stepName, itemID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.started[key(stepName, itemID)]...)
}
