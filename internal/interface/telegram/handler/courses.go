package handler

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSES HANDLER
// Handles /courses - lists the recipient's watched courses.
// ══════════════════════════════════════════════════════════════════════════════

// CoursesHandler handles the /courses command.
type CoursesHandler struct {
	subs subscription.Repository
}

// NewCoursesHandler creates a new CoursesHandler.
func NewCoursesHandler(subs subscription.Repository) *CoursesHandler {
	return &CoursesHandler{subs: subs}
}

// Handle processes the /courses command.
func (h *CoursesHandler) Handle(ctx context.Context, telegramID int64) (*Response, error) {
	courseIDs, err := h.subs.CoursesOf(ctx, subscription.RecipientID(telegramID))
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}

	if len(courseIDs) == 0 {
		return &Response{
			Text: "You're not watching any courses yet.\n\n" +
				"Use <code>/subscribe &lt;course-id&gt;</code> to start.",
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📚 <b>Watching %d course(s):</b>\n\n", len(courseIDs))
	for _, id := range courseIDs {
		fmt.Fprintf(&b, "• <code>%s</code>\n", html.EscapeString(id.String()))
	}

	return &Response{Text: b.String()}, nil
}
