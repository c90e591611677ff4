package pptlinks

import (
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// API DTOs
// ══════════════════════════════════════════════════════════════════════════════

// Content type discriminators used by the catalog API.
const (
	contentTypePPT   = "PPT"
	contentTypeVideo = "VIDEO"
	contentTypeDoc   = "DOC"
	contentTypeQuiz  = "QUIZ"
	contentTypeLive  = "LIVE_CLASS"
)

// CourseDTO is the course payload returned by
// GET /course/user-courses/{id}?brief=false.
type CourseDTO struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	ExpiryDate string       `json:"expiryDate,omitempty"`
	UpdatedAt  string       `json:"updatedAt,omitempty"`
	Sections   []SectionDTO `json:"CourseSection"`
}

// SectionDTO groups course contents. Sections themselves carry no
// identity the watcher cares about; their contents are flattened.
type SectionDTO struct {
	Name     string       `json:"name,omitempty"`
	Contents []ContentDTO `json:"contents"`
}

// ContentDTO is one item inside a section: a file, a quiz, or a live class.
type ContentDTO struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	File      string        `json:"file,omitempty"`
	CreatedAt string        `json:"createdAt,omitempty"`
	Quiz      *QuizDTO      `json:"quiz,omitempty"`
	LiveClass *LiveClassDTO `json:"liveClass,omitempty"`
}

// QuizDTO carries the quiz window attached to a QUIZ content item.
type QuizDTO struct {
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// LiveClassDTO carries the schedule attached to a LIVE_CLASS content item.
type LiveClassDTO struct {
	StartTime string `json:"startTime,omitempty"`
	JoinURL   string `json:"joinUrl,omitempty"`
}

// APIErrorDTO is the error body the catalog API returns on failures.
type APIErrorDTO struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return "pptlinks api: " + e.Message
}

// timestampLayouts are the formats the catalog is known to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a catalog timestamp, trying each known layout.
// Naive timestamps are interpreted in the catalog's deployment timezone.
func parseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		// ParseInLocation honors an explicit offset when the layout has
		// one and falls back to loc for naive timestamps.
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
