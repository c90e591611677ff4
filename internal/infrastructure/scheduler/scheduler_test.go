package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJob is a configurable Job implementation for tests.
type fakeJob struct {
	name     string
	runs     atomic.Int64
	err      error
	blockFor time.Duration
}

func (j *fakeJob) Name() string        { return j.name }
func (j *fakeJob) Description() string { return "test job" }

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.blockFor > 0 {
		select {
		case <-time.After(j.blockFor):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

func newTestScheduler(tick time.Duration) *Scheduler {
	cfg := DefaultConfig()
	cfg.TickInterval = tick
	return New(cfg)
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(time.Second)

	err := s.Register(&fakeJob{name: "poll"}, NewIntervalSchedule(time.Minute))
	require.NoError(t, err)

	err = s.Register(&fakeJob{name: "poll"}, NewIntervalSchedule(time.Minute))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	err = s.Register(nil, NewIntervalSchedule(time.Minute))
	assert.ErrorIs(t, err, ErrNilJob)

	err = s.Register(&fakeJob{name: "other"}, nil)
	assert.ErrorIs(t, err, ErrNilSchedule)
}

func TestUnregister(t *testing.T) {
	s := newTestScheduler(time.Second)

	require.NoError(t, s.Register(&fakeJob{name: "poll"}, NewIntervalSchedule(time.Minute)))
	require.NoError(t, s.Unregister("poll"))

	err := s.Unregister("poll")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(10 * time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	err = s.Stop()
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduledExecution(t *testing.T) {
	s := newTestScheduler(5 * time.Millisecond)
	job := &fakeJob{name: "poll"}

	require.NoError(t, s.Register(job, &IntervalSchedule{Interval: 20 * time.Millisecond}))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSkipsOverlappingRuns(t *testing.T) {
	s := newTestScheduler(5 * time.Millisecond)
	job := &fakeJob{name: "poll", blockFor: 300 * time.Millisecond}

	require.NoError(t, s.Register(job, &IntervalSchedule{Interval: 10 * time.Millisecond}))
	require.NoError(t, s.Start(context.Background()))

	// The job blocks well past several due ticks; only one run may start.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int64(1), job.runs.Load())

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Greater(t, jobs[0].SkipCount, int64(0))

	require.NoError(t, s.Stop())
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler(time.Hour)
	job := &fakeJob{name: "poll"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "poll")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunNowRecordsFailure(t *testing.T) {
	s := newTestScheduler(time.Hour)
	jobErr := errors.New("catalog unreachable")
	job := &fakeJob{name: "poll", err: jobErr}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "poll")
	assert.ErrorIs(t, err, jobErr)
	assert.False(t, result.Success)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, int64(1), jobs[0].FailCount)

	snapshot := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalFailures)
}

func TestStopWaitsForRunningJob(t *testing.T) {
	s := newTestScheduler(5 * time.Millisecond)

	started := make(chan struct{})
	done := atomic.Bool{}
	job := &blockingJob{started: started, done: &done}

	require.NoError(t, s.Register(job, &IntervalSchedule{Interval: 10 * time.Millisecond}))
	require.NoError(t, s.Start(context.Background()))

	<-started
	require.NoError(t, s.Stop())
	assert.True(t, done.Load())
}

type blockingJob struct {
	started chan struct{}
	done    *atomic.Bool
}

func (j *blockingJob) Name() string        { return "blocking" }
func (j *blockingJob) Description() string { return "blocks until cancelled" }

func (j *blockingJob) Run(ctx context.Context) error {
	close(j.started)
	<-ctx.Done()
	j.done.Store(true)
	return nil
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)
	now := time.Now()
	assert.Equal(t, now.Add(10*time.Minute), s.Next(now))
	assert.Equal(t, "@every 10m0s", s.String())

	clamped := NewIntervalSchedule(0)
	assert.Equal(t, time.Minute, clamped.Interval)
}
