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
)

const (
	// DefaultHistoryLimit is how many durable attempts History returns
	DefaultHistoryLimit = 100

	durableWriteTimeout = 10 * time.Second
)

/* Recorder persists the outcome of every transport call
 * The fast log, the payload cache and the counters are written before Record
 * returns; the durable store is written in the background
 * None of these failures reach the caller, they are logged and swallowed
 */
type Recorder struct {
	fast     AttemptLog
	cache    PayloadCache
	durable  DurableAttemptStore
	counters SubscriberCounter

	logger       zerolog.Logger
	historyLimit int
	newID        func() string

	pending sync.WaitGroup
}

// RecorderOption configures a Recorder
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger used for swallowed failures
func WithRecorderLogger(logger zerolog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithHistoryLimit caps the durable attempts returned by History
func WithHistoryLimit(limit int) RecorderOption {
	return func(r *Recorder) {
		if limit > 0 {
			r.historyLimit = limit
		}
	}
}

// NewRecorder creates a recorder; durable may be nil when no durable store is configured
func NewRecorder(fast AttemptLog, cache PayloadCache, durable DurableAttemptStore, counters SubscriberCounter, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		fast:         fast,
		cache:        cache,
		durable:      durable,
		counters:     counters,
		logger:       zerolog.Nop(),
		historyLimit: DefaultHistoryLimit,
		newID:        func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stores the attempt described by result and returns it
func (r *Recorder) Record(ctx context.Context, subscriberID, event string, body json.RawMessage, result DeliveryResult) Attempt {
	attempt := NewAttempt(r.newID(), subscriberID, event, result)
	log := r.logger.With().
		Str("subscriber_id", subscriberID).
		Str("event", event).
		Str("attempt_id", attempt.ID).
		Logger()

	if err := r.fast.Push(ctx, attempt); err != nil {
		log.Warn().Err(err).Msg("pushing attempt to fast log")
	}

	if err := r.cache.SetLast(ctx, subscriberID, event, body); err != nil {
		log.Warn().Err(err).Msg("caching last payload")
	}

	if err := r.updateCounters(ctx, subscriberID, attempt); err != nil {
		log.Warn().Err(err).Msg("updating subscriber counters")
	}

	if r.durable != nil {
		r.pending.Add(1)
		go func() {
			defer r.pending.Done()
			// the request may be gone by now; the write must still happen
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), durableWriteTimeout)
			defer cancel()
			if err := r.durable.Append(wctx, attempt); err != nil {
				log.Error().Err(err).Msg("writing attempt to durable store")
			}
		}()
	}

	return attempt
}

// updateCounters bumps the outcome counter and always stamps the last attempt time
func (r *Recorder) updateCounters(ctx context.Context, subscriberID string, attempt Attempt) error {
	var incErr, touchErr error
	if attempt.Outcome == Success {
		incErr = r.counters.IncrementSuccess(ctx, subscriberID)
	} else {
		incErr = r.counters.IncrementFailure(ctx, subscriberID)
	}
	if incErr != nil {
		incErr = fmt.Errorf("incrementing %s counter: %w", attempt.Outcome, incErr)
	}

	if err := r.counters.TouchLastTriggered(ctx, subscriberID, attempt.CreatedAt); err != nil {
		touchErr = fmt.Errorf("touching last triggered: %w", err)
	}
	return errors.Join(incErr, touchErr)
}

// History returns the recent attempts from the fast log and the durable history
func (r *Recorder) History(ctx context.Context, subscriberID string) (History, error) {
	recent, err := r.fast.Recent(ctx, subscriberID)
	if err != nil {
		return History{}, fmt.Errorf("reading fast log: %w", err)
	}

	h := History{SubscriberID: subscriberID, Recent: recent}
	if r.durable == nil {
		return h, nil
	}

	durable, err := r.durable.ListBySubscriber(ctx, subscriberID, r.historyLimit)
	if err != nil {
		return History{}, fmt.Errorf("reading durable history: %w", err)
	}
	h.Durable = durable
	return h, nil
}

// LastPayload returns the body last sent for the pair, or ErrNoRecentPayload
func (r *Recorder) LastPayload(ctx context.Context, subscriberID, event string) (json.RawMessage, error) {
	body, err := r.cache.GetLast(ctx, subscriberID, event)
	if errors.Is(err, ErrNoRecentPayload) {
		return nil, ErrNoRecentPayload
	}
	if err != nil {
		return nil, fmt.Errorf("reading last payload: %w", err)
	}
	return body, nil
}

// Close waits for pending durable writes or for ctx to be done
func (r *Recorder) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for durable writes: %w", ctx.Err())
	}
}
