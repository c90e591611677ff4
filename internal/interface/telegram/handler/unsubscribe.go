package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNSUBSCRIBE HANDLER
// Handles /unsubscribe <course-id> and /stop. When a course loses its last
// watcher, its tracked state is garbage-collected so a later re-subscribe
// starts from a fresh baseline.
// ══════════════════════════════════════════════════════════════════════════════

// CourseForgetter drops tracked state for a course that lost its last
// subscriber. The monitoring orchestrator implements this.
type CourseForgetter interface {
	ForgetCourse(ctx context.Context, courseID course.ID) error
}

// UnsubscribeHandler handles the /unsubscribe and /stop commands.
type UnsubscribeHandler struct {
	subs      subscription.Repository
	forgetter CourseForgetter
}

// NewUnsubscribeHandler creates a new UnsubscribeHandler.
func NewUnsubscribeHandler(subs subscription.Repository, forgetter CourseForgetter) *UnsubscribeHandler {
	return &UnsubscribeHandler{subs: subs, forgetter: forgetter}
}

// UnsubscribeRequest contains the parsed /unsubscribe command data.
type UnsubscribeRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// CourseID is the raw course identifier argument.
	CourseID string
}

// Handle processes the /unsubscribe command.
func (h *UnsubscribeHandler) Handle(ctx context.Context, req UnsubscribeRequest) (*Response, error) {
	courseID := course.ID(strings.TrimSpace(req.CourseID))
	if !courseID.IsValid() {
		return &Response{
			Text: "Usage: <code>/unsubscribe &lt;course-id&gt;</code>\n\n" +
				"Use /courses to see what you're watching, or /stop to drop everything.",
		}, nil
	}

	recipientID := subscription.RecipientID(req.TelegramID)

	err := h.subs.Unsubscribe(ctx, recipientID, courseID)
	switch {
	case errors.Is(err, shared.ErrNotSubscribed):
		return &Response{
			Text: fmt.Sprintf(
				"You're not watching <b>%s</b>.",
				html.EscapeString(courseID.String()),
			),
		}, nil
	case err != nil:
		return nil, fmt.Errorf("unsubscribing from course: %w", err)
	}

	if err := h.forgetIfOrphaned(ctx, courseID); err != nil {
		return nil, err
	}

	return &Response{
		Text: fmt.Sprintf(
			"Stopped watching <b>%s</b>.",
			html.EscapeString(courseID.String()),
		),
	}, nil
}

// HandleStop processes the /stop command: drop all subscriptions.
func (h *UnsubscribeHandler) HandleStop(ctx context.Context, telegramID int64) (*Response, error) {
	courseIDs, err := h.subs.UnsubscribeAll(ctx, subscription.RecipientID(telegramID))
	if err != nil {
		return nil, fmt.Errorf("removing subscriptions: %w", err)
	}

	if len(courseIDs) == 0 {
		return &Response{Text: "You weren't watching anything."}, nil
	}

	for _, courseID := range courseIDs {
		if err := h.forgetIfOrphaned(ctx, courseID); err != nil {
			return nil, err
		}
	}

	return &Response{
		Text: fmt.Sprintf(
			"Stopped watching all %d course(s). Send /subscribe anytime to start again.",
			len(courseIDs),
		),
	}, nil
}

// forgetIfOrphaned garbage-collects course state when nobody watches it
// anymore.
func (h *UnsubscribeHandler) forgetIfOrphaned(ctx context.Context, courseID course.ID) error {
	remaining, err := h.subs.SubscribersOf(ctx, courseID)
	if err != nil {
		return fmt.Errorf("checking remaining watchers: %w", err)
	}
	if len(remaining) > 0 {
		return nil
	}
	if err := h.forgetter.ForgetCourse(ctx, courseID); err != nil {
		return fmt.Errorf("dropping course state: %w", err)
	}
	return nil
}
