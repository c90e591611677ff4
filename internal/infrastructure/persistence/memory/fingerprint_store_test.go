package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
)

func TestFingerprintStore_PutGet(t *testing.T) {
	store := NewFingerprintStore()
	ctx := context.Background()

	snap := course.Snapshot{
		CourseID:  "course-1",
		Title:     "Data Structures",
		FetchedAt: time.Now(),
	}
	record := course.NewFingerprintRecord(snap, time.Now())

	require.NoError(t, store.Put(ctx, record))

	got, ok, err := store.Get(ctx, "course-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record.CourseID, got.CourseID)
	assert.Equal(t, record.Entities, got.Entities)
	assert.Equal(t, 1, store.Len())
}

func TestFingerprintStore_GetMissing(t *testing.T) {
	store := NewFingerprintStore()

	_, ok, err := store.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFingerprintStore_PutRejectsEmptyID(t *testing.T) {
	store := NewFingerprintStore()

	err := store.Put(context.Background(), course.FingerprintRecord{})
	assert.ErrorIs(t, err, shared.ErrInvalidCourseID)
}

func TestFingerprintStore_PutReplaces(t *testing.T) {
	store := NewFingerprintStore()
	ctx := context.Background()

	first := course.NewFingerprintRecord(course.Snapshot{CourseID: "c"}, time.Now())
	require.NoError(t, store.Put(ctx, first))

	expiry := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	second := first
	second.NotifiedExpiry = expiry
	require.NoError(t, store.Put(ctx, second))

	got, ok, err := store.Get(ctx, "c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, expiry, got.NotifiedExpiry)
	assert.Equal(t, 1, store.Len())
}

func TestFingerprintStore_Remove(t *testing.T) {
	store := NewFingerprintStore()
	ctx := context.Background()

	record := course.NewFingerprintRecord(course.Snapshot{CourseID: "c"}, time.Now())
	require.NoError(t, store.Put(ctx, record))
	require.NoError(t, store.Remove(ctx, "c"))

	_, ok, err := store.Get(ctx, "c")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing again is a no-op.
	assert.NoError(t, store.Remove(ctx, "c"))
}

func TestFingerprintStore_ReturnsCopies(t *testing.T) {
	store := NewFingerprintStore()
	ctx := context.Background()

	snap := course.Snapshot{
		CourseID: "c",
		Files:    []course.File{{ID: "f1", Name: "intro.ppt"}},
	}
	record := course.NewFingerprintRecord(snap, time.Now())
	require.NoError(t, store.Put(ctx, record))

	got, _, err := store.Get(ctx, "c")
	require.NoError(t, err)
	for k := range got.Entities {
		got.Entities[k] = "mutated"
	}

	again, _, err := store.Get(ctx, "c")
	require.NoError(t, err)
	for _, v := range again.Entities {
		assert.NotEqual(t, "mutated", v)
	}
}

func TestFingerprintStore_SnapshotSlicesAreCopies(t *testing.T) {
	store := NewFingerprintStore()
	ctx := context.Background()

	snap := course.Snapshot{
		CourseID:    "c",
		Files:       []course.File{{ID: "f1", Name: "intro.ppt"}},
		LiveClasses: []course.LiveClass{{ID: "lc1", Title: "Kickoff"}},
		Quizzes:     []course.Quiz{{ID: "q1", Title: "Warmup"}},
	}
	require.NoError(t, store.Put(ctx, course.NewFingerprintRecord(snap, time.Now())))

	got, _, err := store.Get(ctx, "c")
	require.NoError(t, err)
	got.Snapshot.Files[0].Name = "mutated"
	got.Snapshot.LiveClasses[0].Title = "mutated"
	got.Snapshot.Quizzes[0].Title = "mutated"

	again, _, err := store.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "intro.ppt", again.Snapshot.Files[0].Name)
	assert.Equal(t, "Kickoff", again.Snapshot.LiveClasses[0].Title)
	assert.Equal(t, "Warmup", again.Snapshot.Quizzes[0].Title)
}

func TestFingerprintStore_ConcurrentAccess(t *testing.T) {
	store := NewFingerprintStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := course.ID(fmt.Sprintf("course-%d", n%5))
			record := course.NewFingerprintRecord(course.Snapshot{CourseID: id}, time.Now())
			_ = store.Put(ctx, record)
			_, _, _ = store.Get(ctx, id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
}

func TestFingerprintStore_RespectsContext(t *testing.T) {
	store := NewFingerprintStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := store.Get(ctx, "c")
	assert.ErrorIs(t, err, context.Canceled)

	err = store.Put(ctx, course.NewFingerprintRecord(course.Snapshot{CourseID: "c"}, time.Now()))
	assert.ErrorIs(t, err, context.Canceled)
}
