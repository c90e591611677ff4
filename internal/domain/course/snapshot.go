// Package course contains the domain model for watched courses: observed
// snapshots, content fingerprints, and the change-detection engine that
// compares consecutive snapshots.
package course

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// ID is the opaque stable identifier of a course in the PPTLinks catalog.
type ID string

// IsValid reports whether the course ID is non-empty.
func (id ID) IsValid() bool {
	return len(id) > 0
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// FileKind classifies a course file by content type.
type FileKind string

const (
	FileKindPPT   FileKind = "ppt"
	FileKindVideo FileKind = "video"
	FileKindDoc   FileKind = "doc"
	FileKindOther FileKind = "other"
)

// File is an uploaded course material (slide deck, recording, handout).
type File struct {
	ID         string
	Name       string
	Kind       FileKind
	URL        string
	UploadedAt time.Time
}

// Fingerprint hashes the file's mutable fields. The ID is identity, not
// content, and is deliberately excluded.
func (f File) Fingerprint() string {
	return digest(f.Name, string(f.Kind), f.URL, stamp(f.UploadedAt))
}

// LiveClass is a scheduled live session within a course.
type LiveClass struct {
	ID       string
	Title    string
	JoinURL  string
	StartsAt time.Time
}

// Fingerprint hashes the class's mutable fields.
func (c LiveClass) Fingerprint() string {
	return digest(c.Title, c.JoinURL, stamp(c.StartsAt))
}

// Quiz is an assessment attached to a course. StartsAt and EndsAt are zero
// when the quiz has no time window.
type Quiz struct {
	ID        string
	Title     string
	URL       string
	CreatedAt time.Time
	StartsAt  time.Time
	EndsAt    time.Time
}

// Fingerprint hashes the quiz's mutable fields.
func (q Quiz) Fingerprint() string {
	return digest(q.Title, q.URL, stamp(q.StartsAt), stamp(q.EndsAt))
}

// HasWindow reports whether the quiz has a timed start.
func (q Quiz) HasWindow() bool {
	return !q.StartsAt.IsZero()
}

// Snapshot is one course's observable state at a point in time, as mapped
// from a single catalog fetch.
type Snapshot struct {
	CourseID    ID
	Title       string
	ExpiresAt   time.Time // zero when the course never expires
	Files       []File
	LiveClasses []LiveClass
	Quizzes     []Quiz
	UpdatedAt   time.Time // last known general edit upstream
	FetchedAt   time.Time
}

// HasStableIdentifiers reports whether every sub-entity carries a non-empty
// identifier. When the catalog omits IDs the diff engine degrades to
// whole-snapshot fingerprint comparison.
func (s Snapshot) HasStableIdentifiers() bool {
	for _, f := range s.Files {
		if f.ID == "" {
			return false
		}
	}
	for _, c := range s.LiveClasses {
		if c.ID == "" {
			return false
		}
	}
	for _, q := range s.Quizzes {
		if q.ID == "" {
			return false
		}
	}
	return true
}

// AggregateFingerprint hashes the entire snapshot content. Used as the
// coarse comparison in degraded (unstable identifier) mode and as a cheap
// no-change fast path.
func (s Snapshot) AggregateFingerprint() string {
	parts := make([]string, 0, 3+len(s.Files)+len(s.LiveClasses)+len(s.Quizzes))
	parts = append(parts, s.Title, stamp(s.ExpiresAt), stamp(s.UpdatedAt))
	for _, f := range s.Files {
		parts = append(parts, f.Fingerprint())
	}
	for _, c := range s.LiveClasses {
		parts = append(parts, c.Fingerprint())
	}
	for _, q := range s.Quizzes {
		parts = append(parts, q.Fingerprint())
	}
	// Container iteration order must not leak into the fingerprint.
	sort.Strings(parts[3:])
	return digest(parts...)
}

// EntityFingerprints returns the per-entity fingerprint map keyed by
// sub-entity identifier.
func (s Snapshot) EntityFingerprints() map[string]string {
	fps := make(map[string]string, len(s.Files)+len(s.LiveClasses)+len(s.Quizzes))
	for _, f := range s.Files {
		fps[f.ID] = f.Fingerprint()
	}
	for _, c := range s.LiveClasses {
		fps[c.ID] = c.Fingerprint()
	}
	for _, q := range s.Quizzes {
		fps[q.ID] = q.Fingerprint()
	}
	return fps
}

// FingerprintRecord is the stored comparison state for one course: the
// per-entity fingerprints, the raw snapshot they were computed from, and
// the expiry value already notified about. Created on first successful
// fetch; replaced wholesale after every successful diff.
type FingerprintRecord struct {
	CourseID       ID
	Entities       map[string]string
	Snapshot       Snapshot
	NotifiedExpiry time.Time // expiry value CourseExpiringSoon was emitted for
	ObservedAt     time.Time
}

// NewFingerprintRecord builds the baseline record for a first observation.
func NewFingerprintRecord(s Snapshot, observedAt time.Time) FingerprintRecord {
	return FingerprintRecord{
		CourseID:   s.CourseID,
		Entities:   s.EntityFingerprints(),
		Snapshot:   s,
		ObservedAt: observedAt,
	}
}

// digest returns the hex SHA-256 of the given parts joined with a separator
// that cannot occur inside RFC3339 timestamps or catalog identifiers.
func digest(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}

// stamp renders a timestamp for fingerprinting; zero times render empty so
// "no window" and "window at epoch" hash differently.
func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
