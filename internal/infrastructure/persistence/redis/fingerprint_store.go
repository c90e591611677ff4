package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FINGERPRINT STORE
// ══════════════════════════════════════════════════════════════════════════════

// FingerprintStore persists fingerprint records in Redis so that the
// change detector survives worker restarts without re-announcing content
// it has already seen. Records are stored as JSON under one key per
// course and never expire; removal happens explicitly when the last
// subscriber of a course leaves.
type FingerprintStore struct {
	client *redis.Client
}

// NewFingerprintStore creates a Redis-backed fingerprint store.
func NewFingerprintStore(client *redis.Client) *FingerprintStore {
	return &FingerprintStore{client: client}
}

// Get returns the record for the given course, if one has been stored.
func (s *FingerprintStore) Get(ctx context.Context, courseID course.ID) (course.FingerprintRecord, bool, error) {
	if !courseID.IsValid() {
		return course.FingerprintRecord{}, false, shared.ErrInvalidCourseID
	}

	data, err := s.client.Get(ctx, FingerprintKey(courseID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return course.FingerprintRecord{}, false, nil
		}
		return course.FingerprintRecord{}, false, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	var dto fingerprintRecordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return course.FingerprintRecord{}, false, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	return dto.toDomain(), true, nil
}

// Put stores the record, replacing any previous record for the course.
func (s *FingerprintStore) Put(ctx context.Context, record course.FingerprintRecord) error {
	if !record.CourseID.IsValid() {
		return shared.ErrInvalidCourseID
	}

	data, err := json.Marshal(newFingerprintRecordDTO(record))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	if err := s.client.Set(ctx, FingerprintKey(record.CourseID.String()), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Remove deletes the record for the course. Removing a course that has
// no record is not an error.
func (s *FingerprintStore) Remove(ctx context.Context, courseID course.ID) error {
	if !courseID.IsValid() {
		return shared.ErrInvalidCourseID
	}

	if err := s.client.Del(ctx, FingerprintKey(courseID.String())).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

// The DTOs pin the JSON layout so that domain struct renames do not
// silently invalidate records written by earlier versions.

type fingerprintRecordDTO struct {
	CourseID       string            `json:"course_id"`
	Entities       map[string]string `json:"entities"`
	Snapshot       snapshotDTO       `json:"snapshot"`
	NotifiedExpiry time.Time         `json:"notified_expiry,omitempty"`
	ObservedAt     time.Time         `json:"observed_at"`
}

type snapshotDTO struct {
	CourseID    string         `json:"course_id"`
	Title       string         `json:"title"`
	ExpiresAt   time.Time      `json:"expires_at,omitempty"`
	Files       []fileDTO      `json:"files,omitempty"`
	LiveClasses []liveClassDTO `json:"live_classes,omitempty"`
	Quizzes     []quizDTO      `json:"quizzes,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
	FetchedAt   time.Time      `json:"fetched_at"`
}

type fileDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at,omitempty"`
}

type liveClassDTO struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	JoinURL  string    `json:"join_url"`
	StartsAt time.Time `json:"starts_at,omitempty"`
}

type quizDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	StartsAt  time.Time `json:"starts_at,omitempty"`
	EndsAt    time.Time `json:"ends_at,omitempty"`
}

func newFingerprintRecordDTO(r course.FingerprintRecord) fingerprintRecordDTO {
	return fingerprintRecordDTO{
		CourseID:       r.CourseID.String(),
		Entities:       r.Entities,
		Snapshot:       newSnapshotDTO(r.Snapshot),
		NotifiedExpiry: r.NotifiedExpiry,
		ObservedAt:     r.ObservedAt,
	}
}

func (d fingerprintRecordDTO) toDomain() course.FingerprintRecord {
	entities := d.Entities
	if entities == nil {
		entities = make(map[string]string)
	}
	return course.FingerprintRecord{
		CourseID:       course.ID(d.CourseID),
		Entities:       entities,
		Snapshot:       d.Snapshot.toDomain(),
		NotifiedExpiry: d.NotifiedExpiry,
		ObservedAt:     d.ObservedAt,
	}
}

func newSnapshotDTO(s course.Snapshot) snapshotDTO {
	dto := snapshotDTO{
		CourseID:  s.CourseID.String(),
		Title:     s.Title,
		ExpiresAt: s.ExpiresAt,
		UpdatedAt: s.UpdatedAt,
		FetchedAt: s.FetchedAt,
	}
	for _, f := range s.Files {
		dto.Files = append(dto.Files, fileDTO{
			ID:         f.ID,
			Name:       f.Name,
			Kind:       string(f.Kind),
			URL:        f.URL,
			UploadedAt: f.UploadedAt,
		})
	}
	for _, lc := range s.LiveClasses {
		dto.LiveClasses = append(dto.LiveClasses, liveClassDTO{
			ID:       lc.ID,
			Title:    lc.Title,
			JoinURL:  lc.JoinURL,
			StartsAt: lc.StartsAt,
		})
	}
	for _, q := range s.Quizzes {
		dto.Quizzes = append(dto.Quizzes, quizDTO{
			ID:        q.ID,
			Title:     q.Title,
			URL:       q.URL,
			CreatedAt: q.CreatedAt,
			StartsAt:  q.StartsAt,
			EndsAt:    q.EndsAt,
		})
	}
	return dto
}

func (d snapshotDTO) toDomain() course.Snapshot {
	snap := course.Snapshot{
		CourseID:  course.ID(d.CourseID),
		Title:     d.Title,
		ExpiresAt: d.ExpiresAt,
		UpdatedAt: d.UpdatedAt,
		FetchedAt: d.FetchedAt,
	}
	for _, f := range d.Files {
		snap.Files = append(snap.Files, course.File{
			ID:         f.ID,
			Name:       f.Name,
			Kind:       course.FileKind(f.Kind),
			URL:        f.URL,
			UploadedAt: f.UploadedAt,
		})
	}
	for _, lc := range d.LiveClasses {
		snap.LiveClasses = append(snap.LiveClasses, course.LiveClass{
			ID:       lc.ID,
			Title:    lc.Title,
			JoinURL:  lc.JoinURL,
			StartsAt: lc.StartsAt,
		})
	}
	for _, q := range d.Quizzes {
		snap.Quizzes = append(snap.Quizzes, course.Quiz{
			ID:        q.ID,
			Title:     q.Title,
			URL:       q.URL,
			CreatedAt: q.CreatedAt,
			StartsAt:  q.StartsAt,
			EndsAt:    q.EndsAt,
		})
	}
	return snap
}
