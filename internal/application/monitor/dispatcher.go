package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/notification"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY CHANNEL
// ══════════════════════════════════════════════════════════════════════════════

// DeliveryChannel sends a rendered message to one recipient. The Telegram
// adapter implements this; errors are classified with the shared sentinels
// (ErrRecipientUnreachable, ErrRateLimited, ErrDeliveryFailed).
type DeliveryChannel interface {
	Deliver(ctx context.Context, recipientID subscription.RecipientID, msg Message) error
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// DispatchResult summarizes the fan-out of one event.
type DispatchResult struct {
	Recipients int
	Delivered  int
	Failed     int
}

// Dispatcher fans a change event out to the course's subscribers. Each
// event is dispatched once; per-recipient failures are logged and never
// block delivery to the remaining recipients.
type Dispatcher struct {
	channel     DeliveryChannel
	subs        subscription.Reader
	log         notification.Log
	renderer    *Renderer
	logger      *slog.Logger
	clock       func() time.Time
	kindEnabled func(course.EventKind) bool
}

// DispatcherConfig contains the dispatcher's collaborators.
type DispatcherConfig struct {
	Channel DeliveryChannel
	Subs    subscription.Reader
	Log     notification.Log
	Logger  *slog.Logger

	// KindEnabled filters event kinds at dispatch time; nil means all
	// kinds are delivered. Backed by the feature flags in production.
	KindEnabled func(course.EventKind) bool

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Dispatcher{
		channel:     config.Channel,
		subs:        config.Subs,
		log:         config.Log,
		renderer:    NewRenderer(),
		logger:      config.Logger,
		clock:       config.Clock,
		kindEnabled: config.KindEnabled,
	}
}

// Dispatch resolves the event's recipients at dispatch time and delivers
// the rendered message to each of them, recording every attempt in the
// notification log.
func (d *Dispatcher) Dispatch(ctx context.Context, ev course.ChangeEvent) (DispatchResult, error) {
	if d.kindEnabled != nil && !d.kindEnabled(ev.Kind) {
		d.logger.Debug("event kind disabled, skipping",
			"kind", ev.Kind.String(),
			"course_id", ev.CourseID.String(),
		)
		return DispatchResult{}, nil
	}

	recipients, err := d.subs.SubscribersOf(ctx, ev.CourseID)
	if err != nil {
		return DispatchResult{}, err
	}

	result := DispatchResult{Recipients: len(recipients)}
	if len(recipients) == 0 {
		d.logger.Debug("event has no subscribers",
			"kind", ev.Kind.String(),
			"course_id", ev.CourseID.String(),
		)
		return result, nil
	}

	msg := d.renderer.Render(ev)

	for _, recipient := range recipients {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		deliverErr := d.channel.Deliver(ctx, recipient.ID, msg)
		entry := notification.Entry{
			EventID:     ev.ID,
			EventKind:   ev.Kind,
			CourseID:    ev.CourseID,
			RecipientID: recipient.ID,
			DeliveredAt: d.clock(),
		}

		if deliverErr != nil {
			result.Failed++
			entry.Status = notification.StatusFailed
			entry.Error = failureReason(deliverErr)
			d.logger.Warn("delivery failed",
				"kind", ev.Kind.String(),
				"course_id", ev.CourseID.String(),
				"recipient_id", int64(recipient.ID),
				"reason", entry.Error,
			)
		} else {
			result.Delivered++
			entry.Status = notification.StatusSent
		}

		if logErr := d.log.Append(ctx, entry); logErr != nil {
			d.logger.Error("failed to record delivery attempt",
				"recipient_id", int64(recipient.ID),
				"error", logErr,
			)
		}
	}

	d.logger.Info("event dispatched",
		"kind", ev.Kind.String(),
		"course_id", ev.CourseID.String(),
		"recipients", result.Recipients,
		"delivered", result.Delivered,
		"failed", result.Failed,
	)

	return result, nil
}

// DispatchWelcome sends the first-observation welcome to the course's
// subscribers. Welcomes are not change events: they bypass the kind filter
// and the notification log, but keep the same per-recipient failure
// containment as Dispatch.
func (d *Dispatcher) DispatchWelcome(ctx context.Context, snapshot course.Snapshot) (DispatchResult, error) {
	recipients, err := d.subs.SubscribersOf(ctx, snapshot.CourseID)
	if err != nil {
		return DispatchResult{}, err
	}

	result := DispatchResult{Recipients: len(recipients)}
	msg := d.renderer.RenderWelcome(snapshot)

	for _, recipient := range recipients {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if err := d.channel.Deliver(ctx, recipient.ID, msg); err != nil {
			result.Failed++
			d.logger.Warn("welcome delivery failed",
				"course_id", snapshot.CourseID.String(),
				"recipient_id", int64(recipient.ID),
				"reason", failureReason(err),
			)
			continue
		}
		result.Delivered++
	}

	d.logger.Info("welcome dispatched",
		"course_id", snapshot.CourseID.String(),
		"recipients", result.Recipients,
		"delivered", result.Delivered,
		"failed", result.Failed,
	)

	return result, nil
}

// failureReason maps a delivery error onto the stable reason code stored
// in the notification log.
func failureReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrRecipientUnreachable):
		return "recipient_unreachable"
	case errors.Is(err, shared.ErrRateLimited):
		return "rate_limited"
	default:
		return "delivery_failed"
	}
}
