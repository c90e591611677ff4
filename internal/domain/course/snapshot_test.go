package course

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileFingerprintChangesWithContent(t *testing.T) {
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	a := File{ID: "f1", Name: "week1.pdf", Kind: FileKindPPT, UploadedAt: ts}
	b := a
	b.Name = "week1-revised.pdf"
	c := a
	c.ID = "f99"

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Fingerprint(), c.Fingerprint(), "identity is not content")
}

func TestQuizFingerprintDistinguishesMissingWindow(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()

	open := Quiz{ID: "q1", Title: "Quiz"}
	atEpoch := Quiz{ID: "q1", Title: "Quiz", StartsAt: epoch}

	assert.NotEqual(t, open.Fingerprint(), atEpoch.Fingerprint())
}

func TestAggregateFingerprintIgnoresIterationOrder(t *testing.T) {
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f1 := File{ID: "f1", Name: "a.pdf", UploadedAt: ts}
	f2 := File{ID: "f2", Name: "b.pdf", UploadedAt: ts}

	a := Snapshot{CourseID: "c1", Title: "T", Files: []File{f1, f2}}
	b := Snapshot{CourseID: "c1", Title: "T", Files: []File{f2, f1}}

	assert.Equal(t, a.AggregateFingerprint(), b.AggregateFingerprint())
}

func TestHasStableIdentifiers(t *testing.T) {
	ok := Snapshot{
		CourseID:    "c1",
		Files:       []File{{ID: "f1"}},
		LiveClasses: []LiveClass{{ID: "lc1"}},
		Quizzes:     []Quiz{{ID: "q1"}},
	}
	assert.True(t, ok.HasStableIdentifiers())

	missing := ok
	missing.Quizzes = []Quiz{{Title: "anonymous"}}
	assert.False(t, missing.HasStableIdentifiers())

	empty := Snapshot{CourseID: "c1"}
	assert.True(t, empty.HasStableIdentifiers(), "empty collections are valid")
}

func TestEntityFingerprintsKeyedByID(t *testing.T) {
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	snap := Snapshot{
		CourseID:    "c1",
		Files:       []File{{ID: "f1", Name: "a.pdf", UploadedAt: ts}},
		LiveClasses: []LiveClass{{ID: "lc1", Title: "Lecture", StartsAt: ts}},
		Quizzes:     []Quiz{{ID: "q1", Title: "Quiz", CreatedAt: ts}},
	}

	fps := snap.EntityFingerprints()
	assert.Len(t, fps, 3)
	assert.Contains(t, fps, "f1")
	assert.Contains(t, fps, "lc1")
	assert.Contains(t, fps, "q1")
}
