package memory

import (
	"context"
	"sync"
)

// ═══════════════════════════════════════════════════════════════════════════
// In-Memory Fired Reminder Store
// ═══════════════════════════════════════════════════════════════════════════

// FiredStore records fired reminder slots in a process-local set. Markers
// do not survive a restart, so a reminder whose fire time has already
// passed may fire again after the process comes back up; deployments that
// need restart-safe exactly-once use the Redis-backed store instead.
type FiredStore struct {
	mu    sync.Mutex
	fired map[string]struct{}
}

// NewFiredStore creates an empty in-memory fired-reminder store.
func NewFiredStore() *FiredStore {
	return &FiredStore{fired: make(map[string]struct{})}
}

// MarkFired marks the slot as fired. Returns true if this call was the
// first to mark it.
func (s *FiredStore) MarkFired(ctx context.Context, slot string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fired[slot]; ok {
		return false, nil
	}
	s.fired[slot] = struct{}{}
	return true, nil
}

// Clear removes the marker, re-arming the slot after a reschedule.
func (s *FiredStore) Clear(ctx context.Context, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.fired, slot)
	s.mu.Unlock()
	return nil
}
