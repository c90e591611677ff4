// Package monitor contains the application core of the course watcher:
// the poll orchestrator that fetches and diffs course snapshots, the
// dispatcher that fans detected events out to subscribers, and the
// reminder scheduler that fires time-based follow-ups for quizzes and
// live classes.
package monitor

import (
	"fmt"
	"html"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE MODEL
// ══════════════════════════════════════════════════════════════════════════════

// Message is a rendered notification, channel-agnostic. The Telegram
// adapter maps Buttons onto an inline keyboard.
type Message struct {
	// Text is the message body. Telegram-flavoured HTML: only <b>, <i>,
	// <a> and friends, all dynamic values escaped.
	Text string

	// Buttons are optional link buttons shown under the message.
	Buttons []Button
}

// Button is a single labelled link under a message.
type Button struct {
	Label string
	URL   string
}

// ══════════════════════════════════════════════════════════════════════════════
// RENDERER
// ══════════════════════════════════════════════════════════════════════════════

// Renderer turns change events into notification messages.
type Renderer struct{}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderWelcome produces the note sent on the first successful observation
// of a newly watched course, confirming the subscription is live. Change
// events stay silent on that first observation.
func (r *Renderer) RenderWelcome(s course.Snapshot) Message {
	return Message{
		Text: fmt.Sprintf(
			"🎓 <b>Welcome!</b>\n\nYou're now watching <b>%s</b>.\nYou'll get a message here whenever something changes.",
			html.EscapeString(s.Title),
		),
	}
}

// Render produces the message for an event. Each event kind has its own
// template; unknown kinds fall back to the general-update wording so a
// new kind never silently drops a notification.
func (r *Renderer) Render(ev course.ChangeEvent) Message {
	courseTitle := html.EscapeString(ev.CourseTitle)
	entityTitle := html.EscapeString(ev.EntityTitle)

	switch ev.Kind {
	case course.EventFileAdded:
		msg := Message{
			Text: fmt.Sprintf(
				"📄 <b>New file in %s</b>\n\n%s",
				courseTitle, entityTitle,
			),
		}
		if ev.URL != "" {
			msg.Buttons = append(msg.Buttons, Button{Label: "View", URL: ev.URL})
		}
		return msg

	case course.EventLiveClassScheduled:
		text := fmt.Sprintf(
			"🎥 <b>Live class scheduled in %s</b>\n\n%s",
			courseTitle, entityTitle,
		)
		if !ev.StartsAt.IsZero() {
			text += fmt.Sprintf("\nStarts: %s", timeutil.FormatHuman(ev.StartsAt))
		}
		msg := Message{Text: text}
		if ev.URL != "" {
			msg.Buttons = append(msg.Buttons, Button{Label: "Join", URL: ev.URL})
		}
		return msg

	case course.EventLiveClassStartingSoon:
		msg := Message{
			Text: fmt.Sprintf(
				"⏰ <b>Live class starting soon</b>\n\n%s\n%s\n%s",
				courseTitle, entityTitle,
				timeutil.FormatRelative(ev.StartsAt, ev.DetectedAt),
			),
		}
		if ev.URL != "" {
			msg.Buttons = append(msg.Buttons, Button{Label: "Join", URL: ev.URL})
		}
		return msg

	case course.EventQuizCreated:
		text := fmt.Sprintf(
			"📝 <b>New quiz in %s</b>\n\n%s",
			courseTitle, entityTitle,
		)
		if !ev.StartsAt.IsZero() {
			text += fmt.Sprintf("\nOpens: %s", timeutil.FormatHuman(ev.StartsAt))
		}
		if !ev.EndsAt.IsZero() {
			text += fmt.Sprintf("\nCloses: %s", timeutil.FormatHuman(ev.EndsAt))
		}
		msg := Message{Text: text}
		if ev.URL != "" {
			msg.Buttons = append(msg.Buttons, Button{Label: "Take Quiz", URL: ev.URL})
		}
		return msg

	case course.EventQuizStartingSoon:
		msg := Message{
			Text: fmt.Sprintf(
				"⏰ <b>Quiz starting soon</b>\n\n%s\n%s\nOpens %s",
				courseTitle, entityTitle,
				timeutil.FormatRelative(ev.StartsAt, ev.DetectedAt),
			),
		}
		if ev.URL != "" {
			msg.Buttons = append(msg.Buttons, Button{Label: "Take Quiz", URL: ev.URL})
		}
		return msg

	case course.EventQuizEndingSoon:
		msg := Message{
			Text: fmt.Sprintf(
				"⌛ <b>Quiz closing soon</b>\n\n%s\n%s\nCloses %s",
				courseTitle, entityTitle,
				timeutil.FormatRelative(ev.EndsAt, ev.DetectedAt),
			),
		}
		if ev.URL != "" {
			msg.Buttons = append(msg.Buttons, Button{Label: "Take Quiz", URL: ev.URL})
		}
		return msg

	case course.EventCourseExpiringSoon:
		return Message{
			Text: fmt.Sprintf(
				"⚠️ <b>Course access expiring</b>\n\n%s\nExpires: %s (%s)",
				courseTitle,
				timeutil.FormatHuman(ev.ExpiresAt),
				timeutil.FormatRelative(ev.ExpiresAt, ev.DetectedAt),
			),
		}

	default:
		return Message{
			Text: fmt.Sprintf(
				"🔔 <b>%s was updated</b>\n\nCheck the course page for details.",
				courseTitle,
			),
		}
	}
}
