package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/course-watch/course-watch-bot/internal/domain/notification"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
	"github.com/course-watch/course-watch-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS HANDLER
// Handles /stats - the recipient's activity summary. Course counts come
// from the subscription store, delivery counters from the notification log.
// ══════════════════════════════════════════════════════════════════════════════

// StatsHandler handles the /stats command.
type StatsHandler struct {
	subs subscription.Repository
	log  notification.Log
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(subs subscription.Repository, log notification.Log) *StatsHandler {
	return &StatsHandler{subs: subs, log: log}
}

// Handle processes the /stats command.
func (h *StatsHandler) Handle(ctx context.Context, telegramID int64) (*Response, error) {
	recipientID := subscription.RecipientID(telegramID)

	stats, err := h.subs.StatsOf(ctx, recipientID)
	if errors.Is(err, shared.ErrSubscriberNotFound) {
		return &Response{Text: "I don't know you yet — send /start first."}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}

	counters, err := h.log.CountByRecipient(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("counting notifications: %w", err)
	}

	text := fmt.Sprintf(
		"📊 <b>Your stats</b>\n\n"+
			"Watched courses: <b>%d</b>\n"+
			"Notifications delivered: <b>%d</b>\n"+
			"Failed deliveries: <b>%d</b>\n",
		stats.CourseCount,
		counters.Sent,
		counters.Failed,
	)
	if !stats.SubscribedSince.IsZero() {
		text += fmt.Sprintf("Watching since: %s\n", timeutil.FormatHuman(stats.SubscribedSince))
	}

	return &Response{Text: text}, nil
}
