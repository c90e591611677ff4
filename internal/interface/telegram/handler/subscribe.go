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
// SUBSCRIBE HANDLER
// Handles /subscribe <course-id> - starts watching a course.
// ══════════════════════════════════════════════════════════════════════════════

// SubscribeHandler handles the /subscribe command.
type SubscribeHandler struct {
	subs subscription.Repository
}

// NewSubscribeHandler creates a new SubscribeHandler.
func NewSubscribeHandler(subs subscription.Repository) *SubscribeHandler {
	return &SubscribeHandler{subs: subs}
}

// SubscribeRequest contains the parsed /subscribe command data.
type SubscribeRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// CourseID is the raw course identifier argument.
	CourseID string
}

// Handle processes the /subscribe command.
func (h *SubscribeHandler) Handle(ctx context.Context, req SubscribeRequest) (*Response, error) {
	courseID := course.ID(strings.TrimSpace(req.CourseID))
	if !courseID.IsValid() {
		return &Response{
			Text: "Usage: <code>/subscribe &lt;course-id&gt;</code>\n\n" +
				"You find the course ID in the course's PPTLinks URL.",
		}, nil
	}

	err := h.subs.Subscribe(ctx, subscription.RecipientID(req.TelegramID), courseID)
	switch {
	case errors.Is(err, shared.ErrAlreadySubscribed):
		return &Response{
			Text: fmt.Sprintf(
				"You already watch <b>%s</b>. Nothing to do.",
				html.EscapeString(courseID.String()),
			),
		}, nil
	case errors.Is(err, shared.ErrSubscriberNotFound):
		return &Response{
			Text: "I don't know you yet — send /start first.",
		}, nil
	case err != nil:
		return nil, fmt.Errorf("subscribing to course: %w", err)
	}

	return &Response{
		Text: fmt.Sprintf(
			"✅ Now watching <b>%s</b>.\n\n"+
				"You'll hear from me when something changes. The first check "+
				"runs on the next poll cycle.",
			html.EscapeString(courseID.String()),
		),
	}, nil
}
