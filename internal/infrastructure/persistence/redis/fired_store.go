package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIRED REMINDER STORE
// ══════════════════════════════════════════════════════════════════════════════

// defaultFiredTTL bounds how long fired markers survive. A reminder slot
// identifies a concrete wall-clock moment, so a marker older than this
// can never be scheduled again and may be reclaimed.
const defaultFiredTTL = 14 * 24 * time.Hour

// FiredStore records which reminder slots have already fired so that a
// restarted worker does not send the same "starting soon" message twice.
// A slot is an opaque string such as "quiz:q17:start" combined with the
// scheduled time by the caller.
type FiredStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFiredStore creates a Redis-backed fired-reminder store.
func NewFiredStore(client *redis.Client) *FiredStore {
	return &FiredStore{client: client, ttl: defaultFiredTTL}
}

// MarkFired atomically records that the slot has fired. It returns true
// if this call was the first to mark the slot, false if another worker
// (or an earlier run) already fired it.
func (s *FiredStore) MarkFired(ctx context.Context, slot string) (bool, error) {
	if slot == "" {
		return false, ErrKeyEmpty
	}

	first, err := s.client.SetNX(ctx, FiredKey(slot), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return first, nil
}

// WasFired reports whether the slot has already fired.
func (s *FiredStore) WasFired(ctx context.Context, slot string) (bool, error) {
	if slot == "" {
		return false, ErrKeyEmpty
	}

	count, err := s.client.Exists(ctx, FiredKey(slot)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return count > 0, nil
}

// Clear removes the fired marker for a slot. It is used when a reminder
// is rescheduled to a new time and must be allowed to fire again.
func (s *FiredStore) Clear(ctx context.Context, slot string) error {
	if slot == "" {
		return ErrKeyEmpty
	}

	if err := s.client.Del(ctx, FiredKey(slot)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}
