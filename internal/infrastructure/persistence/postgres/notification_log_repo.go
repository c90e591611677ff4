package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/notification"
	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION LOG IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NotificationLog implements notification.Log for PostgreSQL.
type NotificationLog struct {
	conn *Connection
}

// NewNotificationLog creates a new NotificationLog.
func NewNotificationLog(conn *Connection) *NotificationLog {
	return &NotificationLog{conn: conn}
}

// Append persists a delivery attempt.
func (l *NotificationLog) Append(ctx context.Context, entry notification.Entry) error {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}
	deliveredAt := entry.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = time.Now().UTC()
	}

	query, args, err := builder.
		Insert("notification_log").
		Columns("id", "event_id", "event_kind", "course_id", "recipient_id", "status", "error", "delivered_at").
		Values(
			id,
			entry.EventID,
			string(entry.EventKind),
			entry.CourseID.String(),
			int64(entry.RecipientID),
			string(entry.Status),
			entry.Error,
			deliveredAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build append query: %w", err)
	}

	if _, err := l.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append notification log entry: %w", err)
	}
	return nil
}

// CountByRecipient returns sent/failed totals for the recipient.
func (l *NotificationLog) CountByRecipient(ctx context.Context, recipientID subscription.RecipientID) (notification.Counters, error) {
	var counters notification.Counters

	query, args, err := builder.
		Select(
			"COUNT(*) FILTER (WHERE status = 'sent')",
			"COUNT(*) FILTER (WHERE status = 'failed')",
		).
		From("notification_log").
		Where(sq.Eq{"recipient_id": int64(recipientID)}).
		ToSql()
	if err != nil {
		return counters, fmt.Errorf("failed to build count query: %w", err)
	}

	row := l.conn.QueryRow(ctx, query, args...)
	if err := row.Scan(&counters.Sent, &counters.Failed); err != nil {
		return counters, fmt.Errorf("failed to count notifications: %w", err)
	}

	return counters, nil
}

// RecentByRecipient returns the most recent entries for the recipient,
// newest first.
func (l *NotificationLog) RecentByRecipient(ctx context.Context, recipientID subscription.RecipientID, limit int) ([]notification.Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	query, args, err := builder.
		Select("id", "event_id", "event_kind", "course_id", "recipient_id", "status", "error", "delivered_at").
		From("notification_log").
		Where(sq.Eq{"recipient_id": int64(recipientID)}).
		OrderBy("delivered_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recent query: %w", err)
	}

	rows, err := l.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent notifications: %w", err)
	}
	defer rows.Close()

	var entries []notification.Entry
	for rows.Next() {
		var entry notification.Entry
		var kind, courseID string
		var recipient int64
		var status string
		if err := rows.Scan(
			&entry.ID,
			&entry.EventID,
			&kind,
			&courseID,
			&recipient,
			&status,
			&entry.Error,
			&entry.DeliveredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification entry: %w", err)
		}
		entry.EventKind = course.EventKind(kind)
		entry.CourseID = course.ID(courseID)
		entry.RecipientID = subscription.RecipientID(recipient)
		entry.Status = notification.Status(status)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
