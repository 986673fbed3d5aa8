package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultLease        = 30 * time.Second
	DefaultRetryDelay   = 30 * time.Second
	DefaultMaxRetries   = 3

	claimBatchSize = 50
)

// ErrUnknownHandler is logged when a claimed job names a handler that
// was never registered. The job is deleted so it cannot poison the
// poll loop.
var ErrUnknownHandler = errors.New("scheduler: unknown handler")

// HandlerFunc executes a claimed job. Returning an error hands the job
// to the retry policy; calling job.Reschedule keeps the job alive for
// another run instead of deleting it.
type HandlerFunc func(ctx context.Context, job *Job) error

// Store persists jobs. The MySQL implementation lives in the
// repository package; tests provide an in-memory one.
type Store interface {
	// Create inserts a job and returns its id.
	Create(ctx context.Context, job *Job) (uint64, error)
	// Claim leases up to limit jobs due at now and returns them. A
	// leased job must not be claimable again until the lease expires.
	Claim(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*Job, error)
	// Reschedule moves a job's due time, stores the (possibly
	// mutated) payload and releases the lease.
	Reschedule(ctx context.Context, id uint64, runAt time.Time, payload []byte) error
	// Delete removes a job on terminal success or retry exhaustion.
	Delete(ctx context.Context, id uint64) error
}

// Options configures a Scheduler. Zero values fall back to the
// package defaults.
type Options struct {
	PollInterval time.Duration
	Lease        time.Duration
	Clock        Clock
	Logger       *logrus.Logger
}

type handlerEntry struct {
	fn         HandlerFunc
	retryDelay time.Duration
}

// Scheduler owns the poll loop. Handlers must be registered before
// Start; the map is not guarded by a lock.
type Scheduler struct {
	store    Store
	clock    Clock
	log      *logrus.Entry
	interval time.Duration
	lease    time.Duration
	handlers map[string]handlerEntry

	stop chan struct{}
	done chan struct{}
}

// New builds a Scheduler around the given store.
func New(store Store, opts Options) *Scheduler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Lease <= 0 {
		opts.Lease = DefaultLease
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Scheduler{
		store:    store,
		clock:    opts.Clock,
		log:      opts.Logger.WithField("component", "scheduler"),
		interval: opts.PollInterval,
		lease:    opts.Lease,
		handlers: make(map[string]handlerEntry),
	}
}

// Register binds a handler name to fn with the default retry delay.
func (s *Scheduler) Register(name string, fn HandlerFunc) {
	s.RegisterWithRetryDelay(name, fn, DefaultRetryDelay)
}

// RegisterWithRetryDelay binds a handler with a custom delay between
// retry attempts (the spec allows 30–60s depending on handler class).
func (s *Scheduler) RegisterWithRetryDelay(name string, fn HandlerFunc, delay time.Duration) {
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	s.handlers[name] = handlerEntry{fn: fn, retryDelay: delay}
}

// Schedule persists a one-shot job due at runAt and returns its id.
// The payload is JSON-encoded; when it is an object without a
// retriesLeft key the default maximum is written in at creation time
// so failures never hit the ambiguous "undefined means max" path.
func (s *Scheduler) Schedule(ctx context.Context, name string, payload any, runAt time.Time) (uint64, error) {
	return s.schedule(ctx, name, payload, runAt, 0)
}

// ScheduleEvery persists a recurring job first due at runAt and then
// re-run every `every` after each success.
func (s *Scheduler) ScheduleEvery(ctx context.Context, name string, payload any, runAt time.Time, every time.Duration) (uint64, error) {
	return s.schedule(ctx, name, payload, runAt, every)
}

func (s *Scheduler) schedule(ctx context.Context, name string, payload any, runAt time.Time, every time.Duration) (uint64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	if _, ok := retriesLeft(body); !ok {
		body = setRetriesLeft(body, DefaultMaxRetries)
	}
	job := &Job{Name: name, Payload: body, RunAt: runAt.UTC(), Every: every}
	id, err := s.store.Create(ctx, job)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"job": name, "id": id, "run_at": job.RunAt}).Debug("job scheduled")
	return id, nil
}

// Start launches the poll loop in its own goroutine.
func (s *Scheduler) Start() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop()
}

// Stop terminates the poll loop and waits for the current cycle to
// finish.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}

func (s *Scheduler) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.RunDueJobs(context.Background())
		}
	}
}

// RunDueJobs claims every due job and executes its handler. It is the
// body of one poll cycle and is exported so tests can drive the
// scheduler with a fake clock instead of the ticker.
func (s *Scheduler) RunDueJobs(ctx context.Context) {
	now := s.clock.Now()
	jobs, err := s.store.Claim(ctx, now, s.lease, claimBatchSize)
	if err != nil {
		s.log.WithError(err).Error("claim due jobs failed")
		return
	}
	for _, job := range jobs {
		s.runOne(ctx, job, now)
	}
}

func (s *Scheduler) runOne(ctx context.Context, job *Job, now time.Time) {
	log := s.log.WithFields(logrus.Fields{"job": job.Name, "id": job.ID})
	entry, ok := s.handlers[job.Name]
	if !ok {
		log.WithError(ErrUnknownHandler).Error("dropping job")
		if err := s.store.Delete(ctx, job.ID); err != nil {
			log.WithError(err).Error("delete unknown job failed")
		}
		return
	}
	if err := entry.fn(ctx, job); err != nil {
		s.retry(ctx, job, entry.retryDelay, now, err)
		return
	}
	if at, ok := job.RescheduledAt(); ok {
		if err := s.store.Reschedule(ctx, job.ID, at.UTC(), job.Payload); err != nil {
			log.WithError(err).Error("reschedule failed")
		}
		return
	}
	if job.Every > 0 {
		if err := s.store.Reschedule(ctx, job.ID, now.Add(job.Every), job.Payload); err != nil {
			log.WithError(err).Error("recurrence reschedule failed")
		}
		return
	}
	if err := s.store.Delete(ctx, job.ID); err != nil {
		log.WithError(err).Error("delete after success failed")
	}
}

// retry applies the bounded retry policy. Payloads that never carried
// a retriesLeft counter are treated as having the default maximum on
// their first failure. Exhausted jobs are deleted and logged as
// terminal; the failure never surfaces to any caller.
func (s *Scheduler) retry(ctx context.Context, job *Job, delay time.Duration, now time.Time, cause error) {
	log := s.log.WithFields(logrus.Fields{"job": job.Name, "id": job.ID})
	left, ok := retriesLeft(job.Payload)
	if !ok {
		left = DefaultMaxRetries
	}
	if left <= 0 {
		log.WithError(cause).Error("retries exhausted, dropping job")
		if err := s.store.Delete(ctx, job.ID); err != nil {
			log.WithError(err).Error("delete exhausted job failed")
		}
		return
	}
	payload := setRetriesLeft(job.Payload, left-1)
	if err := s.store.Reschedule(ctx, job.ID, now.Add(delay), payload); err != nil {
		log.WithError(err).Error("retry reschedule failed")
		return
	}
	log.WithError(cause).WithField("retries_left", left-1).Warn("job failed, retrying")
}
