package course

import "context"

// FingerprintStore holds the last-observed comparison state per course.
//
// Discipline: only the poll orchestrator writes, and only after a successful
// diff for the course in question. Concurrent readers must observe either
// the old or the new record atomically, never a partial write. Remove is
// called during garbage collection when the last subscriber leaves and is
// only safe when no poll is in flight for that course.
//
// Swapping the in-memory implementation for a durable one must not change
// the detection algorithm's behavior.
type FingerprintStore interface {
	// Get returns the stored record, or ok=false when the course has
	// never been observed.
	Get(ctx context.Context, courseID ID) (FingerprintRecord, bool, error)

	// Put replaces the record wholesale.
	Put(ctx context.Context, record FingerprintRecord) error

	// Remove purges the record. Removing an absent record is not an error.
	Remove(ctx context.Context, courseID ID) error
}
