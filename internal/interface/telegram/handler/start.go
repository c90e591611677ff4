// Package handler contains Telegram command handlers.
// Each handler follows the pattern: receive update → validate → call
// application layer → format response.
package handler

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
)

// ══════════════════════════════════════════════════════════════════════════════
// START HANDLER
// Handles /start - registers the recipient and shows the welcome message.
// ══════════════════════════════════════════════════════════════════════════════

// StartHandler handles the /start command.
type StartHandler struct {
	subs subscription.Repository
}

// NewStartHandler creates a new StartHandler.
func NewStartHandler(subs subscription.Repository) *StartHandler {
	return &StartHandler{subs: subs}
}

// StartRequest contains the parsed /start command data.
type StartRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// Username is the user's Telegram username (without @).
	Username string

	// FirstName is the user's first name from Telegram.
	FirstName string

	// LastName is the user's last name from Telegram.
	LastName string
}

// Response is the reply a handler produces.
type Response struct {
	// Text is the message text (HTML formatted).
	Text string
}

// Handle processes the /start command. Registration is an upsert: running
// /start again refreshes the profile and re-shows the welcome.
func (h *StartHandler) Handle(ctx context.Context, req StartRequest) (*Response, error) {
	recipient := subscription.Recipient{
		ID:        subscription.RecipientID(req.TelegramID),
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: time.Now(),
	}

	if err := h.subs.SaveRecipient(ctx, recipient); err != nil {
		return nil, fmt.Errorf("saving recipient: %w", err)
	}

	greeting := "there"
	if req.FirstName != "" {
		greeting = html.EscapeString(req.FirstName)
	}

	text := fmt.Sprintf(
		"Hi %s! 👋\n\n"+
			"I watch your <b>PPTLinks</b> courses and message you the moment "+
			"something changes: new files, quizzes, live classes and upcoming "+
			"deadlines.\n\n"+
			"<b>Commands:</b>\n"+
			"• /subscribe &lt;course-id&gt; — watch a course\n"+
			"• /unsubscribe &lt;course-id&gt; — stop watching\n"+
			"• /courses — list your watched courses\n"+
			"• /stats — your notification stats\n"+
			"• /stop — stop watching everything\n"+
			"• /help — this overview again\n\n"+
			"Subscribe to your first course to get started.",
		greeting,
	)

	return &Response{Text: text}, nil
}
