package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIPTION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// builder is the shared statement builder with Postgres placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// SubscriptionRepository implements subscription.Repository for PostgreSQL.
type SubscriptionRepository struct {
	conn *Connection
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(conn *Connection) *SubscriptionRepository {
	return &SubscriptionRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Read View
// ─────────────────────────────────────────────────────────────────────────────

// ActiveCourses returns the distinct course IDs with at least one subscriber.
func (r *SubscriptionRepository) ActiveCourses(ctx context.Context) ([]course.ID, error) {
	query, args, err := builder.
		Select("DISTINCT course_id").
		From("subscriptions").
		OrderBy("course_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build active courses query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active courses: %w", err)
	}
	defer rows.Close()

	var ids []course.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan course id: %w", err)
		}
		ids = append(ids, course.ID(id))
	}

	return ids, rows.Err()
}

// SubscribersOf returns the recipients subscribed to the given course.
func (r *SubscriptionRepository) SubscribersOf(ctx context.Context, courseID course.ID) ([]subscription.Recipient, error) {
	query, args, err := builder.
		Select("r.id", "r.username", "r.first_name", "r.last_name", "r.created_at").
		From("recipients r").
		Join("subscriptions s ON s.recipient_id = r.id").
		Where(sq.Eq{"s.course_id": courseID.String()}).
		OrderBy("r.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build subscribers query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	var recipients []subscription.Recipient
	for rows.Next() {
		var rec subscription.Recipient
		var id int64
		if err := rows.Scan(&id, &rec.Username, &rec.FirstName, &rec.LastName, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		rec.ID = subscription.RecipientID(id)
		recipients = append(recipients, rec)
	}

	return recipients, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────────────────

// SaveRecipient creates or updates a recipient profile.
func (r *SubscriptionRepository) SaveRecipient(ctx context.Context, rec subscription.Recipient) error {
	if !rec.ID.IsValid() {
		return shared.ErrInvalidRecipient
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query, args, err := builder.
		Insert("recipients").
		Columns("id", "username", "first_name", "last_name", "created_at").
		Values(int64(rec.ID), rec.Username, rec.FirstName, rec.LastName, createdAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save recipient query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save recipient: %w", err)
	}
	return nil
}

// Subscribe links a recipient to a course.
func (r *SubscriptionRepository) Subscribe(ctx context.Context, recipientID subscription.RecipientID, courseID course.ID) error {
	if !recipientID.IsValid() {
		return shared.ErrInvalidRecipient
	}
	if !courseID.IsValid() {
		return shared.ErrInvalidCourseID
	}

	query, args, err := builder.
		Insert("subscriptions").
		Columns("recipient_id", "course_id").
		Values(int64(recipientID), courseID.String()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build subscribe query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadySubscribed
		}
		if IsForeignKeyViolation(err) {
			return shared.ErrSubscriberNotFound
		}
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

// Unsubscribe removes the link between a recipient and a course.
func (r *SubscriptionRepository) Unsubscribe(ctx context.Context, recipientID subscription.RecipientID, courseID course.ID) error {
	query, args, err := builder.
		Delete("subscriptions").
		Where(sq.Eq{"recipient_id": int64(recipientID), "course_id": courseID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build unsubscribe query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotSubscribed
	}
	return nil
}

// UnsubscribeAll removes every subscription of the recipient and returns
// the affected course IDs.
func (r *SubscriptionRepository) UnsubscribeAll(ctx context.Context, recipientID subscription.RecipientID) ([]course.ID, error) {
	query, args, err := builder.
		Delete("subscriptions").
		Where(sq.Eq{"recipient_id": int64(recipientID)}).
		Suffix("RETURNING course_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build unsubscribe all query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to unsubscribe all: %w", err)
	}
	defer rows.Close()

	var ids []course.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan course id: %w", err)
		}
		ids = append(ids, course.ID(id))
	}

	return ids, rows.Err()
}

// DropCourse deletes every subscription to the course. Used when the
// catalog reports the course permanently gone.
func (r *SubscriptionRepository) DropCourse(ctx context.Context, courseID course.ID) (int, error) {
	query, args, err := builder.
		Delete("subscriptions").
		Where(sq.Eq{"course_id": courseID.String()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build drop course query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to drop course: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CoursesOf lists the course IDs the recipient watches.
func (r *SubscriptionRepository) CoursesOf(ctx context.Context, recipientID subscription.RecipientID) ([]course.ID, error) {
	query, args, err := builder.
		Select("course_id").
		From("subscriptions").
		Where(sq.Eq{"recipient_id": int64(recipientID)}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build courses query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var ids []course.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan course id: %w", err)
		}
		ids = append(ids, course.ID(id))
	}

	return ids, rows.Err()
}

// StatsOf returns the recipient's activity summary.
func (r *SubscriptionRepository) StatsOf(ctx context.Context, recipientID subscription.RecipientID) (subscription.Stats, error) {
	stats := subscription.Stats{RecipientID: recipientID}

	query, args, err := builder.
		Select("r.created_at", "COUNT(s.course_id)").
		From("recipients r").
		LeftJoin("subscriptions s ON s.recipient_id = r.id").
		Where(sq.Eq{"r.id": int64(recipientID)}).
		GroupBy("r.created_at").
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("failed to build stats query: %w", err)
	}

	row := r.conn.QueryRow(ctx, query, args...)
	if err := row.Scan(&stats.SubscribedSince, &stats.CourseCount); err != nil {
		if IsNoRows(err) {
			return stats, shared.ErrSubscriberNotFound
		}
		return stats, fmt.Errorf("failed to query stats: %w", err)
	}

	return stats, nil
}
