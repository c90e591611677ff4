package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
	"github.com/course-watch/course-watch-bot/internal/domain/shared"
	"github.com/course-watch/course-watch-bot/internal/domain/subscription"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// CatalogClient fetches the current remote state of a course. The PPTLinks
// HTTP client implements this.
type CatalogClient interface {
	FetchCourse(ctx context.Context, courseID course.ID) (course.Snapshot, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// ORCHESTRATOR
// ══════════════════════════════════════════════════════════════════════════════

// CycleStats summarizes one poll cycle.
type CycleStats struct {
	Courses    int
	Fetched    int
	FetchFails int
	Events     int
	Degraded   int
	Duration   time.Duration
}

// Orchestrator drives one poll cycle: enumerate watched courses, fetch
// fresh snapshots with bounded concurrency, diff each against its stored
// fingerprint, dispatch the resulting events and re-sync reminders.
//
// A failure on one course is contained to that course: its fingerprint is
// left untouched so the next cycle retries from the same baseline.
type Orchestrator struct {
	catalog     CatalogClient
	subs        subscription.Reader
	dropper     subscription.Dropper
	store       course.FingerprintStore
	differ      *course.Differ
	dispatcher  *Dispatcher
	reminders   *ReminderScheduler
	concurrency int
	logger      *slog.Logger
	clock       func() time.Time

	degradedMu sync.Mutex
	degraded   map[course.ID]bool
}

// OrchestratorConfig contains the orchestrator's collaborators.
type OrchestratorConfig struct {
	Catalog    CatalogClient
	Subs       subscription.Reader
	Store      course.FingerprintStore
	Differ     *course.Differ
	Dispatcher *Dispatcher
	Reminders  *ReminderScheduler
	Logger     *slog.Logger

	// Dropper removes a course's subscriptions when the catalog reports
	// it permanently gone. Nil disables the drop, leaving only a warning
	// each cycle.
	Dropper subscription.Dropper

	// FetchConcurrency bounds parallel catalog fetches. Default: 4.
	FetchConcurrency int

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(config OrchestratorConfig) *Orchestrator {
	if config.FetchConcurrency <= 0 {
		config.FetchConcurrency = 4
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Differ == nil {
		config.Differ = course.NewDiffer(0)
	}
	return &Orchestrator{
		catalog:     config.Catalog,
		subs:        config.Subs,
		dropper:     config.Dropper,
		store:       config.Store,
		differ:      config.Differ,
		dispatcher:  config.Dispatcher,
		reminders:   config.Reminders,
		concurrency: config.FetchConcurrency,
		logger:      config.Logger,
		clock:       config.Clock,
		degraded:    make(map[course.ID]bool),
	}
}

// RunCycle executes one full poll cycle over all watched courses.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleStats, error) {
	started := o.clock()

	courseIDs, err := o.subs.ActiveCourses(ctx)
	if err != nil {
		return CycleStats{}, fmt.Errorf("listing watched courses: %w", err)
	}

	stats := CycleStats{Courses: len(courseIDs)}
	if len(courseIDs) == 0 {
		o.logger.Debug("no watched courses, skipping cycle")
		return stats, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, courseID := range courseIDs {
		courseID := courseID
		g.Go(func() error {
			events, degraded, err := o.processCourse(gctx, courseID)
			if err != nil {
				if shared.IsPermanent(err) {
					o.handleGone(gctx, courseID, err)
				} else {
					o.logger.Warn("course poll failed",
						"course_id", courseID.String(),
						"error", err,
					)
				}
				mu.Lock()
				stats.FetchFails++
				mu.Unlock()
				return nil // contained; other courses proceed
			}

			o.noteDegradation(courseID, degraded)

			mu.Lock()
			stats.Fetched++
			stats.Events += events
			if degraded {
				stats.Degraded++
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	stats.Duration = o.clock().Sub(started)
	o.logger.Info("poll cycle completed",
		"courses", stats.Courses,
		"fetched", stats.Fetched,
		"failed", stats.FetchFails,
		"events", stats.Events,
		"duration", stats.Duration.String(),
	)

	return stats, nil
}

// processCourse handles a single course within a cycle: fetch, diff,
// persist the new fingerprint, dispatch events, sync reminders.
func (o *Orchestrator) processCourse(ctx context.Context, courseID course.ID) (int, bool, error) {
	snapshot, err := o.catalog.FetchCourse(ctx, courseID)
	if err != nil {
		return 0, false, fmt.Errorf("fetching course: %w", err)
	}

	prev, found, err := o.store.Get(ctx, courseID)
	if err != nil {
		return 0, false, fmt.Errorf("loading fingerprint: %w", err)
	}

	var prevRecord *course.FingerprintRecord
	if found {
		prevRecord = &prev
	}

	now := o.clock()
	result, err := o.differ.Diff(prevRecord, snapshot, now)
	if err != nil {
		return 0, false, fmt.Errorf("diffing snapshot: %w", err)
	}

	// Persist the fingerprint before dispatching. A crash mid-dispatch
	// loses at most this cycle's notifications; the reverse order would
	// re-send them on every retry.
	if err := o.store.Put(ctx, result.Record); err != nil {
		return 0, false, fmt.Errorf("storing fingerprint: %w", err)
	}

	if prevRecord == nil {
		if _, err := o.dispatcher.DispatchWelcome(ctx, snapshot); err != nil {
			o.logger.Error("welcome dispatch failed",
				"course_id", courseID.String(),
				"error", err,
			)
		}
	}

	for _, ev := range result.Events {
		if _, err := o.dispatcher.Dispatch(ctx, ev); err != nil {
			o.logger.Error("event dispatch failed",
				"kind", ev.Kind.String(),
				"course_id", courseID.String(),
				"error", err,
			)
		}
	}

	if o.reminders != nil {
		o.reminders.Sync(ctx, snapshot)
	}

	return len(result.Events), result.Degraded, nil
}

// handleGone reacts to a permanent catalog failure: the course no longer
// exists upstream, so its subscriptions are dropped and its fingerprint
// purged instead of being retried forever.
func (o *Orchestrator) handleGone(ctx context.Context, courseID course.ID, cause error) {
	o.logger.Warn("course gone upstream, dropping mapping",
		"course_id", courseID.String(),
		"error", cause,
	)

	if o.dropper != nil {
		dropped, err := o.dropper.DropCourse(ctx, courseID)
		if err != nil {
			o.logger.Error("dropping subscriptions failed",
				"course_id", courseID.String(),
				"error", err,
			)
		} else if dropped > 0 {
			o.logger.Info("subscriptions dropped",
				"course_id", courseID.String(),
				"count", dropped,
			)
		}
	}

	if err := o.ForgetCourse(ctx, courseID); err != nil {
		o.logger.Error("purging course state failed",
			"course_id", courseID.String(),
			"error", err,
		)
	}
}

// noteDegradation logs identifier-stability transitions, once per course
// per direction rather than on every cycle.
func (o *Orchestrator) noteDegradation(courseID course.ID, degraded bool) {
	o.degradedMu.Lock()
	defer o.degradedMu.Unlock()

	was := o.degraded[courseID]
	switch {
	case degraded && !was:
		o.degraded[courseID] = true
		o.logger.Warn("course identifiers unstable, comparing aggregate fingerprints",
			"course_id", courseID.String(),
		)
	case !degraded && was:
		delete(o.degraded, courseID)
		o.logger.Info("course identifiers stable again",
			"course_id", courseID.String(),
		)
	}
}

// ForgetCourse drops all tracked state for a course: its fingerprint
// record and any pending reminders. Called by the subscription handlers
// when a course loses its last subscriber.
func (o *Orchestrator) ForgetCourse(ctx context.Context, courseID course.ID) error {
	if o.reminders != nil {
		o.reminders.DropCourse(courseID)
	}
	o.degradedMu.Lock()
	delete(o.degraded, courseID)
	o.degradedMu.Unlock()
	if err := o.store.Remove(ctx, courseID); err != nil {
		return fmt.Errorf("removing fingerprint: %w", err)
	}
	o.logger.Info("course state dropped", "course_id", courseID.String())
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER JOB
// ══════════════════════════════════════════════════════════════════════════════

// PollJob adapts the orchestrator to the background scheduler.
type PollJob struct {
	orchestrator *Orchestrator
}

// NewPollJob creates the scheduler job wrapping the orchestrator.
func NewPollJob(o *Orchestrator) *PollJob {
	return &PollJob{orchestrator: o}
}

// Name returns the job name.
func (j *PollJob) Name() string { return "course-poll" }

// Description returns a human-readable description.
func (j *PollJob) Description() string {
	return "Fetches watched courses and notifies subscribers of changes"
}

// Run executes one poll cycle.
func (j *PollJob) Run(ctx context.Context) error {
	_, err := j.orchestrator.RunCycle(ctx)
	return err
}
