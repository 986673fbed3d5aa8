package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time explicitly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore is an in-memory Store implementation mirroring the lease
// semantics of the MySQL job repository.
type memStore struct {
	mu     sync.Mutex
	nextID uint64
	jobs   map[uint64]*Job
}

func newMemStore() *memStore { return &memStore{jobs: make(map[uint64]*Job)} }

func (s *memStore) Create(_ context.Context, job *Job) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	job.ID = s.nextID
	cp := *job
	s.jobs[job.ID] = &cp
	return job.ID, nil
}

func (s *memStore) Claim(_ context.Context, now time.Time, lease time.Duration, limit int) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*Job
	for _, j := range s.jobs {
		if j.RunAt.After(now) {
			continue
		}
		if j.LeasedUntil != nil && j.LeasedUntil.After(now) {
			continue
		}
		until := now.Add(lease)
		j.LeasedUntil = &until
		cp := *j
		due = append(due, &cp)
		if len(due) == limit {
			break
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].ID < due[k].ID })
	return due, nil
}

func (s *memStore) Reschedule(_ context.Context, id uint64, runAt time.Time, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return errors.New("no such job")
	}
	j.RunAt = runAt
	j.Payload = payload
	j.LeasedUntil = nil
	return nil
}

func (s *memStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *memStore) get(id uint64) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	cp := *j
	return &cp, true
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func newTestScheduler(t *testing.T) (*Scheduler, *memStore, *fakeClock) {
	t.Helper()
	store := newMemStore()
	clock := newFakeClock(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	return New(store, Options{Clock: clock}), store, clock
}

func TestScheduleRunsOnlyWhenDue(t *testing.T) {
	sched, store, clock := newTestScheduler(t)
	var runs int
	sched.Register("tick", func(context.Context, *Job) error {
		runs++
		return nil
	})

	_, err := sched.Schedule(context.Background(), "tick", map[string]any{}, clock.Now().Add(time.Hour))
	require.NoError(t, err)

	sched.RunDueJobs(context.Background())
	assert.Equal(t, 0, runs, "job must not run before its due time")

	clock.Advance(time.Hour)
	sched.RunDueJobs(context.Background())
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, store.count(), "one-shot job is deleted after success")
}

func TestRetryDecrementsAndReschedules(t *testing.T) {
	sched, store, clock := newTestScheduler(t)
	boom := errors.New("mail bounced")
	sched.Register("flaky", func(context.Context, *Job) error { return boom })

	id, err := sched.Schedule(context.Background(), "flaky",
		map[string]any{"retriesLeft": 2}, clock.Now())
	require.NoError(t, err)

	sched.RunDueJobs(context.Background())

	job, ok := store.get(id)
	require.True(t, ok, "job with retries left must be rescheduled, not deleted")
	left, present := retriesLeft(job.Payload)
	require.True(t, present)
	assert.Equal(t, 1, left)
	assert.Equal(t, clock.Now().Add(DefaultRetryDelay), job.RunAt)

	// Before the retry delay elapses the job is not claimable again.
	sched.RunDueJobs(context.Background())
	job, _ = store.get(id)
	left, _ = retriesLeft(job.Payload)
	assert.Equal(t, 1, left, "rescheduled exactly once per failure")
}

func TestRetryExhaustionDeletesJob(t *testing.T) {
	sched, store, clock := newTestScheduler(t)
	sched.Register("flaky", func(context.Context, *Job) error { return errors.New("down") })

	_, err := sched.Schedule(context.Background(), "flaky",
		map[string]any{"retriesLeft": 0}, clock.Now())
	require.NoError(t, err)

	sched.RunDueJobs(context.Background())
	assert.Equal(t, 0, store.count(), "job with retriesLeft=0 is removed on failure")
}

func TestMissingRetriesDefaultsToMax(t *testing.T) {
	sched, store, clock := newTestScheduler(t)
	sched.Register("flaky", func(context.Context, *Job) error { return errors.New("down") })

	// Bypass Schedule's creation-time default by inserting directly.
	id, err := store.Create(context.Background(), &Job{
		Name:    "flaky",
		Payload: []byte(`{"to":"tenant@example.com"}`),
		RunAt:   clock.Now(),
	})
	require.NoError(t, err)

	sched.RunDueJobs(context.Background())

	job, ok := store.get(id)
	require.True(t, ok)
	left, present := retriesLeft(job.Payload)
	require.True(t, present)
	assert.Equal(t, DefaultMaxRetries-1, left)
}

func TestHandlerRescheduleKeepsJobAlive(t *testing.T) {
	sched, store, clock := newTestScheduler(t)
	var runs int
	sched.Register("reminder", func(_ context.Context, job *Job) error {
		runs++
		if runs == 1 {
			job.Reschedule(clock.Now().Add(4 * time.Hour))
		}
		return nil
	})

	id, err := sched.Schedule(context.Background(), "reminder", map[string]any{}, clock.Now())
	require.NoError(t, err)

	sched.RunDueJobs(context.Background())
	job, ok := store.get(id)
	require.True(t, ok, "rescheduled job survives its run")
	assert.Equal(t, clock.Now().Add(4*time.Hour), job.RunAt)

	clock.Advance(4 * time.Hour)
	sched.RunDueJobs(context.Background())
	assert.Equal(t, 2, runs)
	assert.Equal(t, 0, store.count(), "run without reschedule deletes the job")
}

func TestLeasePreventsDoubleClaim(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	sched := New(store, Options{Clock: clock, Lease: time.Minute})

	started := make(chan struct{})
	release := make(chan struct{})
	var runs int
	sched.Register("slow", func(context.Context, *Job) error {
		runs++
		close(started)
		<-release
		return nil
	})

	_, err := sched.Schedule(context.Background(), "slow", map[string]any{}, clock.Now())
	require.NoError(t, err)

	go sched.RunDueJobs(context.Background())
	<-started

	// A second poll cycle while the handler is still running must not
	// claim the leased job.
	sched.RunDueJobs(context.Background())
	assert.Equal(t, 1, runs)
	close(release)
}

func TestRecurringJobReschedulesByInterval(t *testing.T) {
	sched, store, clock := newTestScheduler(t)
	var runs int
	sched.Register("sweep", func(context.Context, *Job) error {
		runs++
		return nil
	})

	id, err := sched.ScheduleEvery(context.Background(), "sweep", map[string]any{}, clock.Now(), 10*time.Minute)
	require.NoError(t, err)

	sched.RunDueJobs(context.Background())
	require.Equal(t, 1, runs)
	job, ok := store.get(id)
	require.True(t, ok, "recurring job survives success")
	assert.Equal(t, clock.Now().Add(10*time.Minute), job.RunAt)
}

func TestScheduleInjectsDefaultRetries(t *testing.T) {
	sched, store, clock := newTestScheduler(t)
	sched.Register("notify", func(context.Context, *Job) error { return nil })

	id, err := sched.Schedule(context.Background(), "notify",
		map[string]any{"tenantEmail": "t@example.com"}, clock.Now().Add(time.Minute))
	require.NoError(t, err)

	job, ok := store.get(id)
	require.True(t, ok)
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	left, present := retriesLeft(job.Payload)
	require.True(t, present, "retriesLeft defaulted at creation time")
	assert.Equal(t, DefaultMaxRetries, left)
	assert.Contains(t, payload, "tenantEmail")
}
