package pptlinks

import (
	"fmt"
	"strings"
	"time"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
	"github.com/course-watch/course-watch-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DTO → DOMAIN MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// Mapper converts catalog API payloads into domain snapshots. It resolves
// relative file paths against the CDN base and flattens sections into the
// snapshot's entity collections.
type Mapper struct {
	cdnBaseURL  string
	quizBaseURL string
	location    *time.Location
}

// NewMapper creates a mapper. Empty base URLs fall back to the catalog's
// production CDN and site.
func NewMapper(cdnBaseURL, quizBaseURL string) *Mapper {
	if cdnBaseURL == "" {
		cdnBaseURL = "https://d26pxqw2kk6v5i.cloudfront.net/"
	}
	if !strings.HasSuffix(cdnBaseURL, "/") {
		cdnBaseURL += "/"
	}
	if quizBaseURL == "" {
		quizBaseURL = "https://pptlinks.com/quiz/"
	}
	if !strings.HasSuffix(quizBaseURL, "/") {
		quizBaseURL += "/"
	}
	return &Mapper{
		cdnBaseURL:  cdnBaseURL,
		quizBaseURL: quizBaseURL,
		location:    timeutil.LagosTZ,
	}
}

// ToSnapshot converts a course DTO into a domain snapshot.
// The courseID parameter wins over the payload's own ID field, which some
// endpoints omit.
func (m *Mapper) ToSnapshot(courseID course.ID, dto CourseDTO, fetchedAt time.Time) (course.Snapshot, error) {
	if dto.Name == "" && len(dto.Sections) == 0 {
		return course.Snapshot{}, fmt.Errorf("%w: empty course payload", shared.ErrMalformed)
	}

	snap := course.Snapshot{
		CourseID:  courseID,
		Title:     dto.Name,
		FetchedAt: fetchedAt,
	}

	if t, ok := parseTimestamp(dto.ExpiryDate, m.location); ok {
		snap.ExpiresAt = t
	}
	if t, ok := parseTimestamp(dto.UpdatedAt, m.location); ok {
		snap.UpdatedAt = t
	}

	for _, section := range dto.Sections {
		for _, content := range section.Contents {
			if content.ID == "" {
				return course.Snapshot{}, fmt.Errorf("%w: content item without id in course %s", shared.ErrMalformed, courseID)
			}
			switch content.Type {
			case contentTypePPT, contentTypeVideo, contentTypeDoc:
				snap.Files = append(snap.Files, m.toFile(content))
			case contentTypeQuiz:
				snap.Quizzes = append(snap.Quizzes, m.toQuiz(content))
			case contentTypeLive:
				snap.LiveClasses = append(snap.LiveClasses, m.toLiveClass(content))
			default:
				// Unknown content types are ignored rather than failing
				// the whole snapshot; the catalog adds types over time.
			}
		}
	}

	return snap, nil
}

func (m *Mapper) toFile(content ContentDTO) course.File {
	file := course.File{
		ID:   content.ID,
		Name: content.Name,
		Kind: fileKind(content.Type),
		URL:  m.ResolveFileURL(content.File),
	}
	if t, ok := parseTimestamp(content.CreatedAt, m.location); ok {
		file.UploadedAt = t
	}
	return file
}

func (m *Mapper) toQuiz(content ContentDTO) course.Quiz {
	quiz := course.Quiz{
		ID:    content.ID,
		Title: content.Name,
		URL:   m.quizBaseURL + content.ID,
	}
	if t, ok := parseTimestamp(content.CreatedAt, m.location); ok {
		quiz.CreatedAt = t
	}
	if content.Quiz != nil {
		if t, ok := parseTimestamp(content.Quiz.StartTime, m.location); ok {
			quiz.StartsAt = t
		}
		if t, ok := parseTimestamp(content.Quiz.EndTime, m.location); ok {
			quiz.EndsAt = t
		}
	}
	return quiz
}

func (m *Mapper) toLiveClass(content ContentDTO) course.LiveClass {
	class := course.LiveClass{
		ID:    content.ID,
		Title: content.Name,
	}
	if content.LiveClass != nil {
		class.JoinURL = content.LiveClass.JoinURL
		if t, ok := parseTimestamp(content.LiveClass.StartTime, m.location); ok {
			class.StartsAt = t
		}
	}
	return class
}

// ResolveFileURL resolves a file reference to an absolute URL. The catalog
// returns bare CDN object keys for most files and full URLs for external
// ones.
func (m *Mapper) ResolveFileURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return m.cdnBaseURL + strings.TrimPrefix(ref, "/")
}

func fileKind(contentType string) course.FileKind {
	switch contentType {
	case contentTypePPT:
		return course.FileKindPPT
	case contentTypeVideo:
		return course.FileKindVideo
	case contentTypeDoc:
		return course.FileKindDoc
	default:
		return course.FileKindOther
	}
}
