// Package subscription contains the domain model for recipients and their
// course subscriptions. The monitoring core only ever reads this model;
// mutation happens through the bot command handlers.
package subscription

import (
	"time"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
)

// RecipientID identifies a notification recipient. For the Telegram channel
// this is the chat ID.
type RecipientID int64

// IsValid reports whether the recipient ID is usable.
func (id RecipientID) IsValid() bool {
	return id > 0
}

// Recipient is a person who receives course notifications.
type Recipient struct {
	ID        RecipientID
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// DisplayName returns the best human-readable name for the recipient.
func (r Recipient) DisplayName() string {
	switch {
	case r.FirstName != "" && r.LastName != "":
		return r.FirstName + " " + r.LastName
	case r.FirstName != "":
		return r.FirstName
	case r.Username != "":
		return "@" + r.Username
	default:
		return "subscriber"
	}
}

// Subscription links a recipient to a watched course. Many-to-many:
// a recipient may watch several courses and a course has many watchers.
type Subscription struct {
	RecipientID RecipientID
	CourseID    course.ID
	CreatedAt   time.Time
}

// Stats summarizes a recipient's activity for the /stats command.
type Stats struct {
	RecipientID         RecipientID
	CourseCount         int
	NotificationsSent   int
	NotificationsFailed int
	SubscribedSince     time.Time
}
