package pptlinks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
	"github.com/course-watch/course-watch-bot/pkg/timeutil"
)

func TestMapper_ToSnapshot(t *testing.T) {
	mapper := NewMapper("", "")
	fetchedAt := time.Now().UTC()

	dto := CourseDTO{
		Name:       "Physics 201",
		ExpiryDate: "2026-12-31T23:59:59Z",
		UpdatedAt:  "2026-08-30T08:00:00Z",
		Sections: []SectionDTO{
			{
				Name: "Mechanics",
				Contents: []ContentDTO{
					{ID: "f1", Name: "Slides.pptx", Type: "PPT", File: "uploads/slides.pptx", CreatedAt: "2026-08-01T09:00:00Z"},
					{ID: "v1", Name: "Lecture.mp4", Type: "VIDEO", File: "https://cdn.example.com/lecture.mp4"},
					{ID: "q1", Name: "Midterm", Type: "QUIZ", Quiz: &QuizDTO{StartTime: "2026-09-10T10:00:00", EndTime: "2026-09-10T12:00:00"}},
					{ID: "l1", Name: "Office Hours", Type: "LIVE_CLASS", LiveClass: &LiveClassDTO{StartTime: "2026-09-05T15:00:00Z", JoinURL: "https://meet.example.com/oh"}},
					{ID: "x1", Name: "Mystery", Type: "SOMETHING_NEW"},
				},
			},
		},
	}

	snap, err := mapper.ToSnapshot("c-201", dto, fetchedAt)
	require.NoError(t, err)

	assert.Equal(t, course.ID("c-201"), snap.CourseID)
	assert.Equal(t, "Physics 201", snap.Title)
	assert.Equal(t, fetchedAt, snap.FetchedAt)
	assert.False(t, snap.ExpiresAt.IsZero())
	assert.False(t, snap.UpdatedAt.IsZero())

	require.Len(t, snap.Files, 2)
	assert.Equal(t, course.FileKindPPT, snap.Files[0].Kind)
	assert.Equal(t, "https://d26pxqw2kk6v5i.cloudfront.net/uploads/slides.pptx", snap.Files[0].URL)
	assert.Equal(t, course.FileKindVideo, snap.Files[1].Kind)
	assert.Equal(t, "https://cdn.example.com/lecture.mp4", snap.Files[1].URL)

	require.Len(t, snap.Quizzes, 1)
	assert.Equal(t, "https://pptlinks.com/quiz/q1", snap.Quizzes[0].URL)
	assert.True(t, snap.Quizzes[0].HasWindow())

	require.Len(t, snap.LiveClasses, 1)
	assert.Equal(t, "https://meet.example.com/oh", snap.LiveClasses[0].JoinURL)
	assert.False(t, snap.LiveClasses[0].StartsAt.IsZero())
}

func TestMapper_NaiveTimestampsUseLagos(t *testing.T) {
	mapper := NewMapper("", "")

	dto := CourseDTO{
		Name: "Course",
		Sections: []SectionDTO{
			{Contents: []ContentDTO{
				{ID: "q1", Name: "Quiz", Type: "QUIZ", Quiz: &QuizDTO{StartTime: "2026-09-10T10:00:00"}},
			}},
		},
	}

	snap, err := mapper.ToSnapshot("c", dto, time.Now())
	require.NoError(t, err)
	require.Len(t, snap.Quizzes, 1)

	want := time.Date(2026, 9, 10, 10, 0, 0, 0, timeutil.LagosTZ)
	assert.True(t, snap.Quizzes[0].StartsAt.Equal(want))
}

func TestMapper_ContentWithoutIDIsMalformed(t *testing.T) {
	mapper := NewMapper("", "")

	dto := CourseDTO{
		Name: "Course",
		Sections: []SectionDTO{
			{Contents: []ContentDTO{{Name: "nameless", Type: "PPT"}}},
		},
	}

	_, err := mapper.ToSnapshot("c", dto, time.Now())
	assert.ErrorIs(t, err, shared.ErrMalformed)
}

func TestMapper_EmptyCoursePayload(t *testing.T) {
	mapper := NewMapper("", "")

	_, err := mapper.ToSnapshot("c", CourseDTO{}, time.Now())
	assert.ErrorIs(t, err, shared.ErrMalformed)
}

func TestMapper_ResolveFileURL(t *testing.T) {
	mapper := NewMapper("https://cdn.test/", "")

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"relative key", "uploads/a.ppt", "https://cdn.test/uploads/a.ppt"},
		{"leading slash", "/uploads/a.ppt", "https://cdn.test/uploads/a.ppt"},
		{"absolute http", "http://other/a.ppt", "http://other/a.ppt"},
		{"absolute https", "https://other/a.ppt", "https://other/a.ppt"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapper.ResolveFileURL(tt.ref))
		})
	}
}

func TestMapper_CustomBaseURLsGetTrailingSlash(t *testing.T) {
	mapper := NewMapper("https://cdn.test", "https://site.test/quiz")

	assert.Equal(t, "https://cdn.test/a", mapper.ResolveFileURL("a"))

	dto := CourseDTO{
		Name: "Course",
		Sections: []SectionDTO{
			{Contents: []ContentDTO{{ID: "q9", Name: "Quiz", Type: "QUIZ"}}},
		},
	}
	snap, err := mapper.ToSnapshot("c", dto, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "https://site.test/quiz/q9", snap.Quizzes[0].URL)
}
