// Package notification contains the delivery audit model. Every attempt
// to deliver a change event to a recipient is logged, which gives the
// /stats command its counters and leaves a trail for debugging missed
// messages.
package notification

import (
	"context"
	"time"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
)

// Status is the outcome of a single delivery attempt.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Entry is one delivery attempt of one event to one recipient.
type Entry struct {
	ID          string
	EventID     string
	EventKind   course.EventKind
	CourseID    course.ID
	RecipientID subscription.RecipientID
	Status      Status
	Error       string
	DeliveredAt time.Time
}

// Counters aggregates delivery outcomes for a recipient.
type Counters struct {
	Sent   int
	Failed int
}

// Log records delivery attempts and answers aggregate queries over them.
type Log interface {
	// Append persists a delivery attempt.
	Append(ctx context.Context, entry Entry) error

	// CountByRecipient returns sent/failed totals for the recipient.
	CountByRecipient(ctx context.Context, recipientID subscription.RecipientID) (Counters, error)

	// RecentByRecipient returns the most recent entries for the
	// recipient, newest first, up to the given limit.
	RecentByRecipient(ctx context.Context, recipientID subscription.RecipientID, limit int) ([]Entry, error)
}
