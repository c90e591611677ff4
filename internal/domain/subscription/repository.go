package subscription

import (
	"context"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
)

// Reader is the read-only view the monitoring core depends on. The poll
// orchestrator enumerates active courses through it and resolves recipients
// at dispatch time; it never mutates subscriptions.
type Reader interface {
	// ActiveCourses returns the distinct set of course IDs with at least
	// one subscriber.
	ActiveCourses(ctx context.Context) ([]course.ID, error)

	// SubscribersOf returns the recipients subscribed to the given course.
	SubscribersOf(ctx context.Context, courseID course.ID) ([]Recipient, error)
}

// Dropper removes every subscription referencing a course. The poll
// orchestrator uses it when the catalog reports a course permanently gone,
// so subscribers stop being polled for an upstream-deleted course.
type Dropper interface {
	// DropCourse deletes all subscriptions to the course and returns how
	// many were removed. Dropping an unknown course is not an error.
	DropCourse(ctx context.Context, courseID course.ID) (int, error)
}

// Repository is the full persistence contract, used by the bot's command
// handlers on top of the core's read view.
type Repository interface {
	Reader

	// SaveRecipient creates or updates a recipient profile.
	SaveRecipient(ctx context.Context, r Recipient) error

	// Subscribe links a recipient to a course. Returns
	// shared.ErrAlreadySubscribed when the link already exists.
	Subscribe(ctx context.Context, recipientID RecipientID, courseID course.ID) error

	// Unsubscribe removes the link. Returns shared.ErrNotSubscribed when
	// no such link exists.
	Unsubscribe(ctx context.Context, recipientID RecipientID, courseID course.ID) error

	// UnsubscribeAll removes every subscription of the recipient and
	// returns the affected course IDs so the caller can garbage-collect
	// fingerprint records for courses that lost their last watcher.
	UnsubscribeAll(ctx context.Context, recipientID RecipientID) ([]course.ID, error)

	// CoursesOf lists the course IDs the recipient watches.
	CoursesOf(ctx context.Context, recipientID RecipientID) ([]course.ID, error)

	// StatsOf returns the recipient's activity summary.
	StatsOf(ctx context.Context, recipientID RecipientID) (Stats, error)
}
