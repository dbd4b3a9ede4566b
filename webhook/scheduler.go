package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is how many due jobs one poll cycle claims
	DefaultBatchSize = 100

	// DefaultConcurrency bounds the retries running at once within a cycle
	DefaultConcurrency = 10
)

// Poller statuses published through the Heartbeater
const (
	PollerIdle       = "idle"
	PollerProcessing = "processing"
	PollerStopped    = "stopped"
)

// ErrSchedulerRunning is returned by Start when the poller is already running
var ErrSchedulerRunning = errors.New("scheduler already running")

// Redeliverer executes a claimed retry job
type Redeliverer interface {
	ExecuteRetry(ctx context.Context, job RetryJob) error
}

/* Scheduler decides when failed deliveries run again and runs them
 * Jobs live in a RetryQueue ordered by run-at; the poller claims due jobs by
 * removing them, so concurrent pollers never execute the same job twice
 */
type Scheduler struct {
	queue     RetryQueue
	heartbeat Heartbeater
	logger    zerolog.Logger

	maxAttempts int
	interval    time.Duration
	batchSize   int
	concurrency int
	pollerID    string

	now   func() time.Time
	newID func() string

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithMaxAttempts sets the total number of attempts for one logical event
func WithMaxAttempts(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithPollInterval sets the poller cadence
func WithPollInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithBatchSize sets how many jobs one cycle claims
func WithBatchSize(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithConcurrency bounds parallel retries within a cycle
func WithConcurrency(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSchedulerLogger sets the scheduler logger
func WithSchedulerLogger(logger zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithHeartbeater publishes the poller status every cycle
func WithHeartbeater(h Heartbeater) SchedulerOption {
	return func(s *Scheduler) {
		s.heartbeat = h
	}
}

// WithSchedulerClock replaces time.Now
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler creates a scheduler on top of queue
func NewScheduler(queue RetryQueue, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		queue:       queue,
		logger:      zerolog.Nop(),
		maxAttempts: MaxAttempts,
		interval:    PollInterval,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		pollerID:    uuid.New().String(),
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PollerID identifies this process in heartbeats
func (s *Scheduler) PollerID() string {
	return s.pollerID
}

// MaxAttempts returns the configured attempt cap
func (s *Scheduler) MaxAttempts() int {
	return s.maxAttempts
}

/* Schedule enqueues a retry after a failed attempt
 * failures counts every failed attempt of the event so far, including the one
 * that just happened; no job is created once it reaches the attempt cap
 */
func (s *Scheduler) Schedule(ctx context.Context, subscriberID, event string, body json.RawMessage, failures int, failedAt time.Time) (RetryJob, bool, error) {
	if failures >= s.maxAttempts {
		return RetryJob{}, false, nil
	}

	job := RetryJob{
		ID:           s.newID(),
		SubscriberID: subscriberID,
		Event:        event,
		Payload:      body,
		Attempt:      failures,
		RunAt:        failedAt.Add(Backoff(failures)),
		CreatedAt:    s.now(),
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		return RetryJob{}, false, fmt.Errorf("enqueueing retry: %w", err)
	}
	return job, true, nil
}

/* Poll claims the jobs due at now and runs them through r
 * It returns once every claimed job has finished; a failing job is logged and
 * never stops the others. Jobs claimed before a claim error still run, since
 * they are already off the queue
 */
func (s *Scheduler) Poll(ctx context.Context, r Redeliverer, now time.Time) (int, error) {
	jobs, claimErr := s.queue.PopDue(ctx, now, s.batchSize)
	if claimErr != nil {
		claimErr = fmt.Errorf("claiming due retries: %w", claimErr)
	}
	if len(jobs) == 0 {
		return 0, claimErr
	}

	s.beat(ctx, PollerProcessing)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			s.run(ctx, r, job)
			return nil
		})
	}
	_ = g.Wait()

	return len(jobs), claimErr
}

func (s *Scheduler) run(ctx context.Context, r Redeliverer, job RetryJob) {
	log := s.logger.With().
		Str("job_id", job.ID).
		Str("subscriber_id", job.SubscriberID).
		Str("event", job.Event).
		Int("attempt", job.Attempt+1).
		Logger()

	defer func() {
		if v := recover(); v != nil {
			log.Error().Interface("panic", v).Msg("retry panicked")
		}
	}()

	if err := r.ExecuteRetry(ctx, job); err != nil {
		log.Error().Err(err).Msg("executing retry")
		return
	}
	log.Debug().Msg("retry executed")
}

/* Start runs the poller in its own goroutine until Stop is called or ctx is done
 * Calling Start twice without Stop returns ErrSchedulerRunning
 */
func (s *Scheduler) Start(ctx context.Context, r Redeliverer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return ErrSchedulerRunning
	}

	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx, r, s.stopCh, s.done)

	s.logger.Info().
		Str("poller_id", s.pollerID).
		Dur("interval", s.interval).
		Msg("retry poller started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, r Redeliverer, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.beat(ctx, PollerIdle)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Poll(ctx, r, s.now())
			if err != nil {
				s.logger.Error().Err(err).Msg("polling retries")
			} else if n > 0 {
				s.logger.Debug().Int("jobs", n).Msg("retry cycle finished")
			}
			s.beat(ctx, PollerIdle)
		}
	}
}

// Stop signals the poller and waits for the running cycle to finish or ctx to be done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stopCh, done := s.stopCh, s.done
	s.stopCh, s.done = nil, nil
	s.mu.Unlock()

	if stopCh == nil {
		return nil
	}
	close(stopCh)

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("stopping retry poller: %w", ctx.Err())
	}

	s.beat(ctx, PollerStopped)
	s.logger.Info().Str("poller_id", s.pollerID).Msg("retry poller stopped")
	return nil
}

func (s *Scheduler) beat(ctx context.Context, status string) {
	if s.heartbeat == nil {
		return
	}
	if err := s.heartbeat.SetPollerHeartbeat(ctx, s.pollerID, status); err != nil {
		s.logger.Warn().Err(err).Str("status", status).Msg("sending poller heartbeat")
	}
}
