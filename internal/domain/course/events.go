package course

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a detected change.
type EventKind string

const (
	// EventFileAdded - a new file appeared in the course.
	EventFileAdded EventKind = "course.file_added"

	// EventLiveClassScheduled - a new live class appeared.
	EventLiveClassScheduled EventKind = "course.live_class_scheduled"

	// EventLiveClassStartingSoon - a tracked live class starts within the
	// reminder lead time. Produced by the reminder scheduler, not the diff.
	EventLiveClassStartingSoon EventKind = "course.live_class_starting_soon"

	// EventQuizCreated - a new quiz appeared.
	EventQuizCreated EventKind = "course.quiz_created"

	// EventQuizStartingSoon - a tracked quiz starts within the reminder
	// lead time. Produced by the reminder scheduler, not the diff.
	EventQuizStartingSoon EventKind = "course.quiz_starting_soon"

	// EventQuizEndingSoon - a tracked quiz ends within the ending lead time.
	// Produced by the reminder scheduler, not the diff.
	EventQuizEndingSoon EventKind = "course.quiz_ending_soon"

	// EventCourseExpiringSoon - the course expiry falls inside the lookahead
	// window. Emitted exactly once per expiry value.
	EventCourseExpiringSoon EventKind = "course.expiring_soon"

	// EventGeneralUpdate - the course changed upstream in a way the
	// structured diff could not attribute to a specific entity.
	EventGeneralUpdate EventKind = "course.general_update"
)

// IsValid checks the kind is one of the known values.
func (k EventKind) IsValid() bool {
	switch k {
	case EventFileAdded, EventLiveClassScheduled, EventLiveClassStartingSoon,
		EventQuizCreated, EventQuizStartingSoon, EventQuizEndingSoon,
		EventCourseExpiringSoon, EventGeneralUpdate:
		return true
	default:
		return false
	}
}

// String returns the string representation of the kind.
func (k EventKind) String() string {
	return string(k)
}

// ChangeEvent is the output unit of change detection: one semantic change
// on one course. Immutable once created; consumed exactly once by the
// dispatcher, and additionally registered with the reminder scheduler when
// it carries a future timestamp.
type ChangeEvent struct {
	ID          string
	Kind        EventKind
	CourseID    ID
	CourseTitle string
	DetectedAt  time.Time

	// Kind-specific payload. EntityID is empty for course-level kinds
	// (GeneralUpdate, CourseExpiringSoon).
	EntityID    string
	EntityTitle string
	URL         string
	StartsAt    time.Time
	EndsAt      time.Time
	ExpiresAt   time.Time
}

// newChangeEvent fills the common fields.
func newChangeEvent(kind EventKind, s Snapshot, detectedAt time.Time) ChangeEvent {
	return ChangeEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		CourseID:    s.CourseID,
		CourseTitle: s.Title,
		DetectedAt:  detectedAt,
	}
}

// NewFileAddedEvent creates a FileAdded event.
func NewFileAddedEvent(s Snapshot, f File, detectedAt time.Time) ChangeEvent {
	ev := newChangeEvent(EventFileAdded, s, detectedAt)
	ev.EntityID = f.ID
	ev.EntityTitle = f.Name
	ev.URL = f.URL
	ev.StartsAt = f.UploadedAt
	return ev
}

// NewLiveClassScheduledEvent creates a LiveClassScheduled event.
func NewLiveClassScheduledEvent(s Snapshot, c LiveClass, detectedAt time.Time) ChangeEvent {
	ev := newChangeEvent(EventLiveClassScheduled, s, detectedAt)
	ev.EntityID = c.ID
	ev.EntityTitle = c.Title
	ev.URL = c.JoinURL
	ev.StartsAt = c.StartsAt
	return ev
}

// NewQuizCreatedEvent creates a QuizCreated event.
func NewQuizCreatedEvent(s Snapshot, q Quiz, detectedAt time.Time) ChangeEvent {
	ev := newChangeEvent(EventQuizCreated, s, detectedAt)
	ev.EntityID = q.ID
	ev.EntityTitle = q.Title
	ev.URL = q.URL
	ev.StartsAt = q.StartsAt
	ev.EndsAt = q.EndsAt
	return ev
}

// NewLiveClassStartingSoonEvent creates a LiveClassStartingSoon reminder event.
func NewLiveClassStartingSoonEvent(s Snapshot, c LiveClass, detectedAt time.Time) ChangeEvent {
	ev := newChangeEvent(EventLiveClassStartingSoon, s, detectedAt)
	ev.EntityID = c.ID
	ev.EntityTitle = c.Title
	ev.URL = c.JoinURL
	ev.StartsAt = c.StartsAt
	return ev
}

// NewQuizStartingSoonEvent creates a QuizStartingSoon reminder event.
func NewQuizStartingSoonEvent(s Snapshot, q Quiz, detectedAt time.Time) ChangeEvent {
	ev := newChangeEvent(EventQuizStartingSoon, s, detectedAt)
	ev.EntityID = q.ID
	ev.EntityTitle = q.Title
	ev.URL = q.URL
	ev.StartsAt = q.StartsAt
	ev.EndsAt = q.EndsAt
	return ev
}

// NewQuizEndingSoonEvent creates a QuizEndingSoon reminder event.
func NewQuizEndingSoonEvent(s Snapshot, q Quiz, detectedAt time.Time) ChangeEvent {
	ev := newChangeEvent(EventQuizEndingSoon, s, detectedAt)
	ev.EntityID = q.ID
	ev.EntityTitle = q.Title
	ev.URL = q.URL
	ev.StartsAt = q.StartsAt
	ev.EndsAt = q.EndsAt
	return ev
}

// NewGeneralUpdateEvent creates the catch-all event for unattributed edits.
func NewGeneralUpdateEvent(s Snapshot, detectedAt time.Time) ChangeEvent {
	return newChangeEvent(EventGeneralUpdate, s, detectedAt)
}

// NewCourseExpiringSoonEvent creates a CourseExpiringSoon event.
func NewCourseExpiringSoonEvent(s Snapshot, detectedAt time.Time) ChangeEvent {
	ev := newChangeEvent(EventCourseExpiringSoon, s, detectedAt)
	ev.ExpiresAt = s.ExpiresAt
	return ev
}

// Payload returns the event data as a map for structured logging.
func (e ChangeEvent) Payload() map[string]any {
	p := map[string]any{
		"course_id":    e.CourseID.String(),
		"course_title": e.CourseTitle,
		"kind":         e.Kind.String(),
	}
	if e.EntityID != "" {
		p["entity_id"] = e.EntityID
		p["entity_title"] = e.EntityTitle
	}
	if !e.StartsAt.IsZero() {
		p["starts_at"] = e.StartsAt.Format(time.RFC3339)
	}
	if !e.EndsAt.IsZero() {
		p["ends_at"] = e.EndsAt.Format(time.RFC3339)
	}
	if !e.ExpiresAt.IsZero() {
		p["expires_at"] = e.ExpiresAt.Format(time.RFC3339)
	}
	return p
}
