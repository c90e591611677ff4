package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
)

func TestRenderFileAdded(t *testing.T) {
	msg := NewRenderer().Render(course.ChangeEvent{
		Kind:        course.EventFileAdded,
		CourseTitle: "Algorithms",
		EntityTitle: "Week 3 slides",
		URL:         "https://cdn.example.com/w3.pptx",
	})

	assert.Contains(t, msg.Text, "New file in Algorithms")
	assert.Contains(t, msg.Text, "Week 3 slides")
	require.Len(t, msg.Buttons, 1)
	assert.Equal(t, "View", msg.Buttons[0].Label)
	assert.Equal(t, "https://cdn.example.com/w3.pptx", msg.Buttons[0].URL)
}

func TestRenderQuizCreatedWithWindow(t *testing.T) {
	msg := NewRenderer().Render(course.ChangeEvent{
		Kind:        course.EventQuizCreated,
		CourseTitle: "Algorithms",
		EntityTitle: "Midterm",
		URL:         "https://pptlinks.com/quiz/q1",
		StartsAt:    time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
		EndsAt:      time.Date(2026, 9, 10, 17, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, msg.Text, "New quiz in Algorithms")
	assert.Contains(t, msg.Text, "Opens:")
	assert.Contains(t, msg.Text, "Closes:")
	require.Len(t, msg.Buttons, 1)
	assert.Equal(t, "Take Quiz", msg.Buttons[0].Label)
}

func TestRenderLiveClassScheduled(t *testing.T) {
	msg := NewRenderer().Render(course.ChangeEvent{
		Kind:        course.EventLiveClassScheduled,
		CourseTitle: "Algorithms",
		EntityTitle: "Office hours",
		URL:         "https://meet.example.com/oh",
		StartsAt:    time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, msg.Text, "Live class scheduled")
	assert.Contains(t, msg.Text, "Starts:")
	require.Len(t, msg.Buttons, 1)
	assert.Equal(t, "Join", msg.Buttons[0].Label)
}

func TestRenderCourseExpiringSoon(t *testing.T) {
	now := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	msg := NewRenderer().Render(course.ChangeEvent{
		Kind:        course.EventCourseExpiringSoon,
		CourseTitle: "Algorithms",
		DetectedAt:  now,
		ExpiresAt:   now.Add(24 * time.Hour),
	})

	assert.Contains(t, msg.Text, "Course access expiring")
	assert.Contains(t, msg.Text, "in 24 hours")
	assert.Empty(t, msg.Buttons)
}

func TestRenderQuizEndingSoon(t *testing.T) {
	now := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	msg := NewRenderer().Render(course.ChangeEvent{
		Kind:        course.EventQuizEndingSoon,
		CourseTitle: "Algorithms",
		EntityTitle: "Midterm",
		URL:         "https://pptlinks.com/quiz/q1",
		DetectedAt:  now,
		EndsAt:      now.Add(2 * time.Hour),
	})

	assert.Contains(t, msg.Text, "Quiz closing soon")
	assert.Contains(t, msg.Text, "in 2 hours")
}

func TestRenderWelcome(t *testing.T) {
	msg := NewRenderer().RenderWelcome(course.Snapshot{
		CourseID: "course-1",
		Title:    "Data Structures <II>",
	})

	assert.Contains(t, msg.Text, "Welcome")
	assert.Contains(t, msg.Text, "Data Structures &lt;II&gt;")
	assert.Empty(t, msg.Buttons)
}

func TestRenderEscapesHTML(t *testing.T) {
	msg := NewRenderer().Render(course.ChangeEvent{
		Kind:        course.EventFileAdded,
		CourseTitle: "Maths <b>101</b>",
		EntityTitle: "a & b",
	})

	assert.Contains(t, msg.Text, "Maths &lt;b&gt;101&lt;/b&gt;")
	assert.Contains(t, msg.Text, "a &amp; b")
	assert.Empty(t, msg.Buttons, "no URL means no button")
}

func TestRenderUnknownKindFallsBack(t *testing.T) {
	msg := NewRenderer().Render(course.ChangeEvent{
		Kind:        course.EventGeneralUpdate,
		CourseTitle: "Algorithms",
	})

	assert.Contains(t, msg.Text, "Algorithms")
	assert.Contains(t, msg.Text, "was updated")
}
