package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule runs a job at a fixed interval. The poll cycle uses
// this with the configured poll interval; negative or zero intervals are
// clamped to one minute so a bad config cannot hot-loop the scheduler.
type IntervalSchedule struct {
	Interval time.Duration
}

// minInterval is the floor applied to misconfigured intervals.
const minInterval = time.Minute

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	if interval <= 0 {
		interval = minInterval
	}
	return &IntervalSchedule{
		Interval: interval,
	}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	interval := s.Interval
	if interval <= 0 {
		interval = minInterval
	}
	return t.Add(interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}
