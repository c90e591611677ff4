package course

import (
	"sort"
	"time"

	"github.com/course-watch/course-watch-bot/internal/domain/shared"
)

// Differ computes the semantic change events between two consecutive
// observations of a course. It is a pure function over its inputs: no I/O,
// no clock access, no store mutation. The caller owns persisting the
// returned record.
type Differ struct {
	// ExpiryLookahead is the window before a course expiry in which
	// CourseExpiringSoon fires. Default: 48h.
	ExpiryLookahead time.Duration
}

// NewDiffer creates a Differ with the given expiry lookahead window.
func NewDiffer(expiryLookahead time.Duration) *Differ {
	if expiryLookahead <= 0 {
		expiryLookahead = 48 * time.Hour
	}
	return &Differ{ExpiryLookahead: expiryLookahead}
}

// DiffResult carries the outcome of one comparison.
type DiffResult struct {
	// Events are the detected changes in deterministic order: files,
	// live classes, quizzes (each oldest-first), then GeneralUpdate,
	// then CourseExpiringSoon.
	Events []ChangeEvent

	// Record is the replacement fingerprint record. It must be stored
	// even when Events is empty, so removed entities drop out of tracking.
	Record FingerprintRecord

	// Degraded is set when the snapshot carried unstable sub-entity
	// identifiers and the diff fell back to aggregate fingerprinting.
	Degraded bool
}

// Diff compares the previously stored record against a fresh snapshot.
//
// A nil prev means this is the first observation of the course: the baseline
// is established silently and no events are produced, so a new subscription
// never floods its subscriber with the course's entire history.
func (d *Differ) Diff(prev *FingerprintRecord, current Snapshot, now time.Time) (DiffResult, error) {
	if !current.CourseID.IsValid() {
		return DiffResult{}, shared.ErrInvalidCourseID
	}
	if prev != nil && prev.CourseID != current.CourseID {
		return DiffResult{}, shared.ErrSnapshotMismatch
	}

	record := NewFingerprintRecord(current, now)

	if prev == nil {
		return DiffResult{Record: record}, nil
	}
	record.NotifiedExpiry = prev.NotifiedExpiry

	result := DiffResult{Record: record}

	if !current.HasStableIdentifiers() {
		d.diffDegraded(prev, current, now, &result)
	} else {
		d.diffStructured(prev, current, now, &result)
	}

	d.checkExpiry(current, now, &result)

	return result, nil
}

// diffStructured performs the per-collection identifier set difference.
// New identifiers produce one event each; changed fingerprints on known
// identifiers produce nothing here (phase transitions are reminder
// territory); removed identifiers silently drop out of the new record.
func (d *Differ) diffStructured(prev *FingerprintRecord, current Snapshot, now time.Time, result *DiffResult) {
	newFiles := make([]File, 0)
	for _, f := range current.Files {
		if _, known := prev.Entities[f.ID]; !known {
			newFiles = append(newFiles, f)
		}
	}
	sort.Slice(newFiles, func(i, j int) bool {
		if !newFiles[i].UploadedAt.Equal(newFiles[j].UploadedAt) {
			return newFiles[i].UploadedAt.Before(newFiles[j].UploadedAt)
		}
		return newFiles[i].ID < newFiles[j].ID
	})
	for _, f := range newFiles {
		result.Events = append(result.Events, NewFileAddedEvent(current, f, now))
	}

	newClasses := make([]LiveClass, 0)
	for _, c := range current.LiveClasses {
		if _, known := prev.Entities[c.ID]; !known {
			newClasses = append(newClasses, c)
		}
	}
	sort.Slice(newClasses, func(i, j int) bool {
		if !newClasses[i].StartsAt.Equal(newClasses[j].StartsAt) {
			return newClasses[i].StartsAt.Before(newClasses[j].StartsAt)
		}
		return newClasses[i].ID < newClasses[j].ID
	})
	for _, c := range newClasses {
		result.Events = append(result.Events, NewLiveClassScheduledEvent(current, c, now))
	}

	newQuizzes := make([]Quiz, 0)
	for _, q := range current.Quizzes {
		if _, known := prev.Entities[q.ID]; !known {
			newQuizzes = append(newQuizzes, q)
		}
	}
	sort.Slice(newQuizzes, func(i, j int) bool {
		if !newQuizzes[i].CreatedAt.Equal(newQuizzes[j].CreatedAt) {
			return newQuizzes[i].CreatedAt.Before(newQuizzes[j].CreatedAt)
		}
		return newQuizzes[i].ID < newQuizzes[j].ID
	})
	for _, q := range newQuizzes {
		result.Events = append(result.Events, NewQuizCreatedEvent(current, q, now))
	}

	// Catch-all for remote edits the structured diff cannot attribute
	// (description text, reordering). Only when nothing more specific fired.
	if len(result.Events) == 0 && !current.UpdatedAt.Equal(prev.Snapshot.UpdatedAt) {
		result.Events = append(result.Events, NewGeneralUpdateEvent(current, now))
	}
}

// diffDegraded is the fallback for catalogs that do not guarantee stable
// sub-entity identifiers: any content change collapses into a single coarse
// GeneralUpdate.
func (d *Differ) diffDegraded(prev *FingerprintRecord, current Snapshot, now time.Time, result *DiffResult) {
	result.Degraded = true
	if current.AggregateFingerprint() != prev.Snapshot.AggregateFingerprint() {
		result.Events = append(result.Events, NewGeneralUpdateEvent(current, now))
	}
}

// checkExpiry emits CourseExpiringSoon exactly once per expiry value, tracked
// via a dedicated fingerprint on the expiry field itself. A rescheduled
// expiry is a new value and fires again once.
func (d *Differ) checkExpiry(current Snapshot, now time.Time, result *DiffResult) {
	expiry := current.ExpiresAt
	if expiry.IsZero() || !expiry.After(now) {
		return
	}
	if expiry.Sub(now) > d.ExpiryLookahead {
		return
	}
	if result.Record.NotifiedExpiry.Equal(expiry) {
		return
	}
	result.Events = append(result.Events, NewCourseExpiringSoonEvent(current, now))
	result.Record.NotifiedExpiry = expiry
}
