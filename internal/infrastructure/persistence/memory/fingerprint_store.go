// Package memory provides in-memory persistence adapters. They are used
// by tests and by single-process deployments that do not need durability
// across restarts.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// In-Memory Fingerprint Store
// ═══════════════════════════════════════════════════════════════════════════

// FingerprintStore keeps fingerprint records in a process-local map.
// Records are stored and returned by value, so callers may mutate what
// they get back without affecting the stored copy. Reads on one course
// never block writes on another.
type FingerprintStore struct {
	mu      sync.RWMutex
	records map[course.ID]course.FingerprintRecord
}

// NewFingerprintStore creates an empty in-memory fingerprint store.
func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{
		records: make(map[course.ID]course.FingerprintRecord),
	}
}

// Get returns the record for the given course, if one has been stored.
func (s *FingerprintStore) Get(ctx context.Context, courseID course.ID) (course.FingerprintRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return course.FingerprintRecord{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[courseID]
	s.mu.RUnlock()

	if !ok {
		return course.FingerprintRecord{}, false, nil
	}
	return copyRecord(record), true, nil
}

// Put stores the record, replacing any previous record for the course.
func (s *FingerprintStore) Put(ctx context.Context, record course.FingerprintRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !record.CourseID.IsValid() {
		return shared.ErrInvalidCourseID
	}

	s.mu.Lock()
	s.records[record.CourseID] = copyRecord(record)
	s.mu.Unlock()

	return nil
}

// Remove deletes the record for the course. Removing a course that has
// no record is not an error.
func (s *FingerprintStore) Remove(ctx context.Context, courseID course.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.records, courseID)
	s.mu.Unlock()

	return nil
}

// Len reports how many courses currently have a stored record.
func (s *FingerprintStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func copyRecord(record course.FingerprintRecord) course.FingerprintRecord {
	entities := make(map[string]string, len(record.Entities))
	for k, v := range record.Entities {
		entities[k] = v
	}
	record.Entities = entities
	record.Snapshot.Files = slices.Clone(record.Snapshot.Files)
	record.Snapshot.LiveClasses = slices.Clone(record.Snapshot.LiveClasses)
	record.Snapshot.Quizzes = slices.Clone(record.Snapshot.Quizzes)
	return record
}
