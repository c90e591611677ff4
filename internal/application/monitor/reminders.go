package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/course-watch/course-watch-bot/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIRED STORE
// ══════════════════════════════════════════════════════════════════════════════

// FiredStore persists which reminder slots have already fired, so a restart
// between scheduling and firing cannot double-send a reminder. The Redis
// implementation backs this in production.
type FiredStore interface {
	// MarkFired atomically marks the slot as fired. Returns true if this
	// call was the first to mark it.
	MarkFired(ctx context.Context, slot string) (bool, error)

	// Clear removes the marker, re-arming the slot after a reschedule.
	Clear(ctx context.Context, slot string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// reminderPhase distinguishes the time-based follow-ups on one entity.
type reminderPhase string

const (
	phaseStart reminderPhase = "start"
	phaseEnd   reminderPhase = "end"
)

// ReminderConfig controls when reminders fire relative to entity times.
type ReminderConfig struct {
	// StartLead is how long before a quiz opens or a live class starts
	// the starting-soon reminder fires. Default: 15 minutes.
	StartLead time.Duration

	// QuizEndLead is how long before a quiz closes the ending-soon
	// reminder fires. Default: 2 hours.
	QuizEndLead time.Duration
}

// DefaultReminderConfig returns the production lead times.
func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		StartLead:   15 * time.Minute,
		QuizEndLead: 2 * time.Hour,
	}
}

// pendingReminder is one armed timer plus the event it will emit.
type pendingReminder struct {
	timer    *time.Timer
	fireAt   time.Time
	courseID course.ID
	event    course.ChangeEvent
}

// EventSink consumes reminder events when they fire. The dispatcher's
// Dispatch method satisfies this through a small adapter in the orchestrator.
type EventSink func(ctx context.Context, ev course.ChangeEvent)

// ReminderScheduler arms in-process timers for quiz and live-class
// reminders. Each poll cycle re-syncs the pending set from the fresh
// snapshot: rescheduled entities replace their existing timer, entities
// that disappeared are cancelled. The fired store makes firing
// exactly-once per slot across restarts.
type ReminderScheduler struct {
	mu      sync.Mutex
	pending map[string]*pendingReminder

	config ReminderConfig
	fired  FiredStore
	sink   EventSink
	logger *slog.Logger
	clock  func() time.Time
}

// NewReminderScheduler creates a ReminderScheduler.
func NewReminderScheduler(config ReminderConfig, fired FiredStore, sink EventSink, logger *slog.Logger) *ReminderScheduler {
	if config.StartLead <= 0 {
		config.StartLead = 15 * time.Minute
	}
	if config.QuizEndLead <= 0 {
		config.QuizEndLead = 2 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderScheduler{
		pending: make(map[string]*pendingReminder),
		config:  config,
		fired:   fired,
		sink:    sink,
		logger:  logger,
		clock:   time.Now,
	}
}

// slotKey identifies a reminder slot: one phase of one entity. A changed
// fire time keeps the same slot, which is what makes a reschedule replace
// rather than duplicate.
func slotKey(kind string, entityID string, phase reminderPhase) string {
	return fmt.Sprintf("%s:%s:%s", kind, entityID, phase)
}

// Sync reconciles the pending reminders for one course against a fresh
// snapshot. Called by the orchestrator after every successful fetch.
func (s *ReminderScheduler) Sync(ctx context.Context, snapshot course.Snapshot) {
	now := s.clock()
	desired := s.desiredReminders(snapshot, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Cancel reminders for entities that vanished from this course.
	for slot, p := range s.pending {
		if p.courseID != snapshot.CourseID {
			continue
		}
		if _, still := desired[slot]; !still {
			p.timer.Stop()
			delete(s.pending, slot)
			s.logger.Debug("reminder cancelled", "slot", slot)
		}
	}

	for slot, want := range desired {
		existing, ok := s.pending[slot]
		if ok && existing.fireAt.Equal(want.fireAt) {
			continue
		}
		if ok {
			// Rescheduled: replace the timer and re-arm the fired slot
			// so the new time fires again.
			existing.timer.Stop()
			delete(s.pending, slot)
			if err := s.fired.Clear(ctx, slot); err != nil {
				s.logger.Warn("failed to re-arm reminder slot",
					"slot", slot,
					"error", err,
				)
			}
		}
		s.arm(slot, want)
	}
}

// desiredReminders computes the slot set a snapshot implies. Entities whose
// reminder moment has passed but whose own time is still in the future get
// an immediate fire; fully past entities produce nothing.
func (s *ReminderScheduler) desiredReminders(snapshot course.Snapshot, now time.Time) map[string]*pendingReminder {
	desired := make(map[string]*pendingReminder)

	for _, c := range snapshot.LiveClasses {
		if c.StartsAt.IsZero() || !c.StartsAt.After(now) {
			continue
		}
		slot := slotKey("live", c.ID, phaseStart)
		desired[slot] = &pendingReminder{
			fireAt:   c.StartsAt.Add(-s.config.StartLead),
			courseID: snapshot.CourseID,
			event:    course.NewLiveClassStartingSoonEvent(snapshot, c, now),
		}
	}

	for _, q := range snapshot.Quizzes {
		if !q.StartsAt.IsZero() && q.StartsAt.After(now) {
			slot := slotKey("quiz", q.ID, phaseStart)
			desired[slot] = &pendingReminder{
				fireAt:   q.StartsAt.Add(-s.config.StartLead),
				courseID: snapshot.CourseID,
				event:    course.NewQuizStartingSoonEvent(snapshot, q, now),
			}
		}
		if !q.EndsAt.IsZero() && q.EndsAt.After(now) {
			slot := slotKey("quiz", q.ID, phaseEnd)
			desired[slot] = &pendingReminder{
				fireAt:   q.EndsAt.Add(-s.config.QuizEndLead),
				courseID: snapshot.CourseID,
				event:    course.NewQuizEndingSoonEvent(snapshot, q, now),
			}
		}
	}

	return desired
}

// arm starts the timer for one slot. Must be called with s.mu held.
func (s *ReminderScheduler) arm(slot string, p *pendingReminder) {
	delay := time.Until(p.fireAt)
	if delay < 0 {
		// Lead time already passed but the entity time has not: fire now.
		delay = 0
	}

	p.timer = time.AfterFunc(delay, func() {
		s.fire(slot)
	})
	s.pending[slot] = p

	s.logger.Debug("reminder armed",
		"slot", slot,
		"fire_at", p.fireAt.Format(time.RFC3339),
	)
}

// fire emits the reminder event for a slot, once.
func (s *ReminderScheduler) fire(slot string) {
	s.mu.Lock()
	p, ok := s.pending[slot]
	if ok {
		delete(s.pending, slot)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	ctx := context.Background()
	first, err := s.fired.MarkFired(ctx, slot)
	if err != nil {
		s.logger.Error("failed to mark reminder fired",
			"slot", slot,
			"error", err,
		)
		return
	}
	if !first {
		s.logger.Debug("reminder already fired, skipping", "slot", slot)
		return
	}

	ev := p.event
	ev.DetectedAt = s.clock()

	s.logger.Info("reminder fired",
		"slot", slot,
		"kind", ev.Kind.String(),
		"course_id", ev.CourseID.String(),
	)
	s.sink(ctx, ev)
}

// DropCourse cancels all pending reminders for a course. Called when the
// course loses its last subscriber.
func (s *ReminderScheduler) DropCourse(courseID course.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for slot, p := range s.pending {
		if p.courseID == courseID {
			p.timer.Stop()
			delete(s.pending, slot)
		}
	}
}

// Stop cancels every pending reminder. Fired-store state is untouched, so
// a restart re-arms unfired slots without double-sending fired ones.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for slot, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, slot)
	}
}

// PendingCount returns the number of armed reminders.
func (s *ReminderScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
