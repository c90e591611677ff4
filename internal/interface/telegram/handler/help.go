package handler

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// HELP HANDLER
// Handles /help - the static command overview.
// ══════════════════════════════════════════════════════════════════════════════

// HelpHandler handles the /help command.
type HelpHandler struct{}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

// Handle processes the /help command.
func (h *HelpHandler) Handle(_ context.Context) (*Response, error) {
	return &Response{
		Text: "🔍 <b>Course Watch Bot</b>\n\n" +
			"I poll your PPTLinks courses and notify you about:\n" +
			"• new files and materials\n" +
			"• new quizzes, plus reminders before they open and close\n" +
			"• scheduled live classes, plus a starting-soon reminder\n" +
			"• courses whose access is about to expire\n\n" +
			"<b>Commands:</b>\n" +
			"• /subscribe &lt;course-id&gt; — watch a course\n" +
			"• /unsubscribe &lt;course-id&gt; — stop watching\n" +
			"• /courses — list your watched courses\n" +
			"• /stats — your notification stats\n" +
			"• /stop — stop watching everything",
	}, nil
}
