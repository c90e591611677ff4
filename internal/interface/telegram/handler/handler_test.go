package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/notification"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeRepo struct {
	recipients    map[subscription.RecipientID]subscription.Recipient
	subscriptions map[subscription.RecipientID][]course.ID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		recipients:    make(map[subscription.RecipientID]subscription.Recipient),
		subscriptions: make(map[subscription.RecipientID][]course.ID),
	}
}

func (r *fakeRepo) ActiveCourses(context.Context) ([]course.ID, error) {
	seen := make(map[course.ID]bool)
	var ids []course.ID
	for _, courses := range r.subscriptions {
		for _, id := range courses {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (r *fakeRepo) SubscribersOf(_ context.Context, courseID course.ID) ([]subscription.Recipient, error) {
	var out []subscription.Recipient
	for recipientID, courses := range r.subscriptions {
		for _, id := range courses {
			if id == courseID {
				out = append(out, r.recipients[recipientID])
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) SaveRecipient(_ context.Context, rec subscription.Recipient) error {
	r.recipients[rec.ID] = rec
	return nil
}

func (r *fakeRepo) Subscribe(_ context.Context, recipientID subscription.RecipientID, courseID course.ID) error {
	if _, ok := r.recipients[recipientID]; !ok {
		return shared.ErrSubscriberNotFound
	}
	for _, id := range r.subscriptions[recipientID] {
		if id == courseID {
			return shared.ErrAlreadySubscribed
		}
	}
	r.subscriptions[recipientID] = append(r.subscriptions[recipientID], courseID)
	return nil
}

func (r *fakeRepo) Unsubscribe(_ context.Context, recipientID subscription.RecipientID, courseID course.ID) error {
	courses := r.subscriptions[recipientID]
	for i, id := range courses {
		if id == courseID {
			r.subscriptions[recipientID] = append(courses[:i], courses[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotSubscribed
}

func (r *fakeRepo) UnsubscribeAll(_ context.Context, recipientID subscription.RecipientID) ([]course.ID, error) {
	courses := r.subscriptions[recipientID]
	delete(r.subscriptions, recipientID)
	return courses, nil
}

func (r *fakeRepo) CoursesOf(_ context.Context, recipientID subscription.RecipientID) ([]course.ID, error) {
	return r.subscriptions[recipientID], nil
}

func (r *fakeRepo) StatsOf(_ context.Context, recipientID subscription.RecipientID) (subscription.Stats, error) {
	if _, ok := r.recipients[recipientID]; !ok {
		return subscription.Stats{}, shared.ErrSubscriberNotFound
	}
	return subscription.Stats{
		RecipientID:     recipientID,
		CourseCount:     len(r.subscriptions[recipientID]),
		SubscribedSince: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

type fakeForgetter struct {
	forgotten []course.ID
}

func (f *fakeForgetter) ForgetCourse(_ context.Context, courseID course.ID) error {
	f.forgotten = append(f.forgotten, courseID)
	return nil
}

type fakeLog struct {
	counters notification.Counters
}

func (l *fakeLog) Append(context.Context, notification.Entry) error { return nil }

func (l *fakeLog) CountByRecipient(context.Context, subscription.RecipientID) (notification.Counters, error) {
	return l.counters, nil
}

func (l *fakeLog) RecentByRecipient(context.Context, subscription.RecipientID, int) ([]notification.Entry, error) {
	return nil, nil
}

func registered(t *testing.T, repo *fakeRepo, id int64) {
	t.Helper()
	require.NoError(t, repo.SaveRecipient(context.Background(), subscription.Recipient{
		ID:        subscription.RecipientID(id),
		FirstName: "Ada",
	}))
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestStartRegistersRecipient(t *testing.T) {
	repo := newFakeRepo()
	h := NewStartHandler(repo)

	resp, err := h.Handle(context.Background(), StartRequest{
		TelegramID: 100,
		Username:   "ada",
		FirstName:  "Ada",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "Hi Ada!")
	assert.Contains(t, resp.Text, "/subscribe")

	saved, ok := repo.recipients[100]
	require.True(t, ok)
	assert.Equal(t, "ada", saved.Username)
}

func TestSubscribe(t *testing.T) {
	repo := newFakeRepo()
	registered(t, repo, 100)
	h := NewSubscribeHandler(repo)
	ctx := context.Background()

	resp, err := h.Handle(ctx, SubscribeRequest{TelegramID: 100, CourseID: "algo-101"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Now watching")

	// Duplicate subscription is reported, not an error.
	resp, err = h.Handle(ctx, SubscribeRequest{TelegramID: 100, CourseID: "algo-101"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "already watch")
}

func TestSubscribeWithoutStart(t *testing.T) {
	h := NewSubscribeHandler(newFakeRepo())

	resp, err := h.Handle(context.Background(), SubscribeRequest{TelegramID: 100, CourseID: "algo-101"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "/start")
}

func TestSubscribeMissingArgument(t *testing.T) {
	h := NewSubscribeHandler(newFakeRepo())

	resp, err := h.Handle(context.Background(), SubscribeRequest{TelegramID: 100, CourseID: "   "})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Usage:")
}

func TestUnsubscribeForgetsOrphanedCourse(t *testing.T) {
	repo := newFakeRepo()
	registered(t, repo, 100)
	forgetter := &fakeForgetter{}
	ctx := context.Background()

	require.NoError(t, repo.Subscribe(ctx, 100, "algo-101"))

	h := NewUnsubscribeHandler(repo, forgetter)
	resp, err := h.Handle(ctx, UnsubscribeRequest{TelegramID: 100, CourseID: "algo-101"})
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "Stopped watching")
	assert.Equal(t, []course.ID{"algo-101"}, forgetter.forgotten,
		"last watcher leaving must drop course state")
}

func TestUnsubscribeKeepsSharedCourse(t *testing.T) {
	repo := newFakeRepo()
	registered(t, repo, 100)
	registered(t, repo, 200)
	forgetter := &fakeForgetter{}
	ctx := context.Background()

	require.NoError(t, repo.Subscribe(ctx, 100, "algo-101"))
	require.NoError(t, repo.Subscribe(ctx, 200, "algo-101"))

	h := NewUnsubscribeHandler(repo, forgetter)
	_, err := h.Handle(ctx, UnsubscribeRequest{TelegramID: 100, CourseID: "algo-101"})
	require.NoError(t, err)

	assert.Empty(t, forgetter.forgotten, "course still has a watcher")
}

func TestUnsubscribeNotSubscribed(t *testing.T) {
	repo := newFakeRepo()
	registered(t, repo, 100)

	h := NewUnsubscribeHandler(repo, &fakeForgetter{})
	resp, err := h.Handle(context.Background(), UnsubscribeRequest{TelegramID: 100, CourseID: "algo-101"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "not watching")
}

func TestStopDropsEverything(t *testing.T) {
	repo := newFakeRepo()
	registered(t, repo, 100)
	forgetter := &fakeForgetter{}
	ctx := context.Background()

	require.NoError(t, repo.Subscribe(ctx, 100, "algo-101"))
	require.NoError(t, repo.Subscribe(ctx, 100, "maths-202"))

	h := NewUnsubscribeHandler(repo, forgetter)
	resp, err := h.HandleStop(ctx, 100)
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "all 2 course(s)")
	assert.Len(t, forgetter.forgotten, 2)
}

func TestCoursesEmpty(t *testing.T) {
	h := NewCoursesHandler(newFakeRepo())

	resp, err := h.Handle(context.Background(), 100)
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "not watching any courses")
}

func TestCoursesList(t *testing.T) {
	repo := newFakeRepo()
	registered(t, repo, 100)
	ctx := context.Background()
	require.NoError(t, repo.Subscribe(ctx, 100, "algo-101"))

	h := NewCoursesHandler(repo)
	resp, err := h.Handle(ctx, 100)
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "algo-101")
	assert.Contains(t, resp.Text, "1 course(s)")
}

func TestStats(t *testing.T) {
	repo := newFakeRepo()
	registered(t, repo, 100)
	ctx := context.Background()
	require.NoError(t, repo.Subscribe(ctx, 100, "algo-101"))

	h := NewStatsHandler(repo, &fakeLog{counters: notification.Counters{Sent: 7, Failed: 1}})
	resp, err := h.Handle(ctx, 100)
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "Watched courses: <b>1</b>")
	assert.Contains(t, resp.Text, "delivered: <b>7</b>")
	assert.Contains(t, resp.Text, "Failed deliveries: <b>1</b>")
}

func TestStatsUnknownRecipient(t *testing.T) {
	h := NewStatsHandler(newFakeRepo(), &fakeLog{})

	resp, err := h.Handle(context.Background(), 999)
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "/start")
}

func TestHelp(t *testing.T) {
	resp, err := NewHelpHandler().Handle(context.Background())
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "/subscribe")
	assert.Contains(t, resp.Text, "/stats")
}
