package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
)

type fakeFiredStore struct {
	mu     sync.Mutex
	fired  map[string]bool
	marks  int
	clears []string
}

func newFakeFiredStore() *fakeFiredStore {
	return &fakeFiredStore{fired: make(map[string]bool)}
}

func (s *fakeFiredStore) MarkFired(_ context.Context, slot string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks++
	if s.fired[slot] {
		return false, nil
	}
	s.fired[slot] = true
	return true, nil
}

func (s *fakeFiredStore) Clear(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fired, slot)
	s.clears = append(s.clears, slot)
	return nil
}

type eventCollector struct {
	mu     sync.Mutex
	events []course.ChangeEvent
}

func (c *eventCollector) sink(_ context.Context, ev course.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *eventCollector) kinds() []course.EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]course.EventKind, 0, len(c.events))
	for _, ev := range c.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func (c *eventCollector) first() course.ChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[0]
}

func quizSnapshot(startsAt, endsAt time.Time) course.Snapshot {
	return course.Snapshot{
		CourseID: "course-1",
		Title:    "Algorithms",
		Quizzes: []course.Quiz{{
			ID:       "q1",
			Title:    "Midterm",
			URL:      "https://pptlinks.com/quiz/q1",
			StartsAt: startsAt,
			EndsAt:   endsAt,
		}},
	}
}

func TestSyncArmsQuizReminders(t *testing.T) {
	fired := newFakeFiredStore()
	collector := &eventCollector{}
	s := NewReminderScheduler(DefaultReminderConfig(), fired, collector.sink, nil)
	defer s.Stop()

	s.Sync(context.Background(), quizSnapshot(
		time.Now().Add(2*time.Hour),
		time.Now().Add(5*time.Hour),
	))

	// One starting-soon and one ending-soon slot.
	assert.Equal(t, 2, s.PendingCount())
}

func TestReminderFiresImmediatelyWhenLeadPassed(t *testing.T) {
	fired := newFakeFiredStore()
	collector := &eventCollector{}
	cfg := ReminderConfig{StartLead: time.Hour, QuizEndLead: time.Hour}
	s := NewReminderScheduler(cfg, fired, collector.sink, nil)
	defer s.Stop()

	// Quiz starts in 5 minutes: the one-hour lead moment is already past,
	// so the starting-soon reminder fires immediately.
	s.Sync(context.Background(), quizSnapshot(
		time.Now().Add(5*time.Minute),
		time.Time{},
	))

	assert.Eventually(t, func() bool {
		return len(collector.kinds()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, course.EventQuizStartingSoon, collector.kinds()[0])
}

func TestReminderFiresExactlyOnce(t *testing.T) {
	fired := newFakeFiredStore()
	collector := &eventCollector{}
	cfg := ReminderConfig{StartLead: time.Hour, QuizEndLead: time.Hour}
	s := NewReminderScheduler(cfg, fired, collector.sink, nil)
	defer s.Stop()

	snapshot := quizSnapshot(time.Now().Add(5*time.Minute), time.Time{})
	ctx := context.Background()

	s.Sync(ctx, snapshot)
	assert.Eventually(t, func() bool {
		return len(collector.kinds()) == 1
	}, time.Second, 10*time.Millisecond)

	// A re-sync with the same times must not double-send: the marker in
	// the fired store survives across sync cycles.
	s.Sync(ctx, snapshot)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, collector.kinds(), 1)
}

func TestRescheduleReplacesReminder(t *testing.T) {
	fired := newFakeFiredStore()
	collector := &eventCollector{}
	s := NewReminderScheduler(DefaultReminderConfig(), fired, collector.sink, nil)
	defer s.Stop()

	ctx := context.Background()
	s.Sync(ctx, quizSnapshot(time.Now().Add(2*time.Hour), time.Time{}))
	require.Equal(t, 1, s.PendingCount())

	// The quiz moves: the old timer is replaced and the fired slot cleared
	// so the new time can fire.
	s.Sync(ctx, quizSnapshot(time.Now().Add(4*time.Hour), time.Time{}))
	assert.Equal(t, 1, s.PendingCount())
	assert.Contains(t, fired.clears, "quiz:q1:start")
}

func TestVanishedEntityCancelsReminder(t *testing.T) {
	fired := newFakeFiredStore()
	s := NewReminderScheduler(DefaultReminderConfig(), fired, (&eventCollector{}).sink, nil)
	defer s.Stop()

	ctx := context.Background()
	s.Sync(ctx, quizSnapshot(time.Now().Add(2*time.Hour), time.Time{}))
	require.Equal(t, 1, s.PendingCount())

	s.Sync(ctx, course.Snapshot{CourseID: "course-1", Title: "Algorithms"})
	assert.Equal(t, 0, s.PendingCount())
}

func TestPastEntitiesProduceNoReminders(t *testing.T) {
	s := NewReminderScheduler(DefaultReminderConfig(), newFakeFiredStore(), (&eventCollector{}).sink, nil)
	defer s.Stop()

	s.Sync(context.Background(), quizSnapshot(
		time.Now().Add(-2*time.Hour),
		time.Now().Add(-time.Hour),
	))
	assert.Equal(t, 0, s.PendingCount())
}

func TestLiveClassReminder(t *testing.T) {
	fired := newFakeFiredStore()
	collector := &eventCollector{}
	cfg := ReminderConfig{StartLead: time.Hour, QuizEndLead: time.Hour}
	s := NewReminderScheduler(cfg, fired, collector.sink, nil)
	defer s.Stop()

	s.Sync(context.Background(), course.Snapshot{
		CourseID: "course-1",
		Title:    "Algorithms",
		LiveClasses: []course.LiveClass{{
			ID:       "lc1",
			Title:    "Office hours",
			JoinURL:  "https://meet.example.com/oh",
			StartsAt: time.Now().Add(10 * time.Minute),
		}},
	})

	assert.Eventually(t, func() bool {
		return len(collector.kinds()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, course.EventLiveClassStartingSoon, collector.kinds()[0])
	assert.Equal(t, "lc1", collector.first().EntityID)
}

func TestDropCourse(t *testing.T) {
	s := NewReminderScheduler(DefaultReminderConfig(), newFakeFiredStore(), (&eventCollector{}).sink, nil)
	defer s.Stop()

	s.Sync(context.Background(), quizSnapshot(time.Now().Add(2*time.Hour), time.Time{}))
	require.Equal(t, 1, s.PendingCount())

	s.DropCourse("course-1")
	assert.Equal(t, 0, s.PendingCount())
}
