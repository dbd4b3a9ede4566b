package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-outbox/webhook/payload"
	"github.com/marcelsud/webhook-outbox/webhook/signature"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/marcelsud/webhook-outbox/webhook"

// DefaultPublishConcurrency bounds the parallel deliveries of one Publish call
const DefaultPublishConcurrency = 16

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the delivery operations exposed to callers
type UseCase interface {
	DeliverEvent(ctx context.Context, subscriberID, event string, data any) (DeliveryResult, error)
	RedeliverLast(ctx context.Context, subscriberID, event string) (DeliveryResult, error)
	TestFire(ctx context.Context, subscriberID, event string, extra map[string]any) (DeliveryResult, error)
	History(ctx context.Context, subscriberID string) (History, error)
	Publish(ctx context.Context, event string, data any) ([]PublishResult, error)
}

type Service struct {
	subscribers SubscriberStore
	transport   Transport
	recorder    *Recorder
	scheduler   *Scheduler

	metrics            MetricsSink
	tracer             trace.Tracer
	logger             zerolog.Logger
	now                func() time.Time
	publishConcurrency int
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer replaces the global tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithMetrics sets the sink notified after every attempt
func WithMetrics(m MetricsSink) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithPublishConcurrency bounds the parallel deliveries of Publish
func WithPublishConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.publishConcurrency = n
		}
	}
}

// NewService creates a new delivery service with dependency injection
func NewService(subscribers SubscriberStore, transport Transport, recorder *Recorder, scheduler *Scheduler, opts ...Option) *Service {
	s := &Service{
		subscribers:        subscribers,
		transport:          transport,
		recorder:           recorder,
		scheduler:          scheduler,
		tracer:             otel.Tracer(tracerName),
		logger:             zerolog.Nop(),
		now:                time.Now,
		publishConcurrency: DefaultPublishConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

/* DeliverEvent signs data and sends it to the subscriber once
 * Transport failures are not errors: they come back as a failed result and a
 * retry is scheduled. Errors are configuration or signing defects and nothing
 * is recorded for them.
 */
func (s *Service) DeliverEvent(ctx context.Context, subscriberID, event string, data any) (DeliveryResult, error) {
	if err := validateEvent(event); err != nil {
		return DeliveryResult{}, err
	}

	sub, err := s.resolve(ctx, subscriberID)
	if err != nil {
		return DeliveryResult{}, err
	}

	return s.deliver(ctx, sub, event, data, 0)
}

// RedeliverLast sends again the last payload delivered for the pair within the retention window
func (s *Service) RedeliverLast(ctx context.Context, subscriberID, event string) (DeliveryResult, error) {
	if err := validateEvent(event); err != nil {
		return DeliveryResult{}, err
	}

	body, err := s.recorder.LastPayload(ctx, subscriberID, event)
	if err != nil {
		return DeliveryResult{}, err
	}

	return s.DeliverEvent(ctx, subscriberID, event, body)
}

// TestFire delivers a synthetic payload flagged with test=true through the normal path
func (s *Service) TestFire(ctx context.Context, subscriberID, event string, extra map[string]any) (DeliveryResult, error) {
	return s.DeliverEvent(ctx, subscriberID, event, payload.Test(event, extra, s.now()))
}

// History returns the recorded attempts of a subscriber
func (s *Service) History(ctx context.Context, subscriberID string) (History, error) {
	h, err := s.recorder.History(ctx, subscriberID)
	if err != nil {
		return History{}, fmt.Errorf("reading history: %w", err)
	}
	return h, nil
}

/* Publish delivers data to every active subscriber whose event types match
 * Deliveries run concurrently; a per-subscriber error never aborts the others
 * and is reported in its PublishResult
 */
func (s *Service) Publish(ctx context.Context, event string, data any) ([]PublishResult, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	active, err := s.subscribers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active subscribers: %w", err)
	}

	var targets []Subscriber
	for _, sub := range active {
		if payload.MatchesEventType(event, sub.EventTypes) {
			targets = append(targets, sub)
		}
	}

	results := make([]PublishResult, len(targets))
	var g errgroup.Group
	g.SetLimit(s.publishConcurrency)
	for i, sub := range targets {
		g.Go(func() error {
			res, err := s.deliver(ctx, sub, event, data, 0)
			results[i] = PublishResult{SubscriberID: sub.ID, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// ExecuteRetry runs a claimed retry job; jobs for missing or inactive subscribers are dropped
func (s *Service) ExecuteRetry(ctx context.Context, job RetryJob) error {
	sub, err := s.subscribers.Get(ctx, job.SubscriberID)
	if errors.Is(err, ErrSubscriberNotFound) {
		s.logger.Debug().Str("job_id", job.ID).Str("subscriber_id", job.SubscriberID).Msg("dropping retry for missing subscriber")
		return nil
	}
	if err != nil {
		return fmt.Errorf("getting subscriber: %w", err)
	}
	if !sub.Active {
		s.logger.Debug().Str("job_id", job.ID).Str("subscriber_id", job.SubscriberID).Msg("dropping retry for inactive subscriber")
		return nil
	}

	if _, err := s.deliver(ctx, sub, job.Event, job.Payload, job.Attempt); err != nil {
		return fmt.Errorf("redelivering: %w", err)
	}
	return nil
}

func (s *Service) resolve(ctx context.Context, subscriberID string) (Subscriber, error) {
	sub, err := s.subscribers.Get(ctx, subscriberID)
	if errors.Is(err, ErrSubscriberNotFound) {
		return Subscriber{}, err
	}
	if err != nil {
		return Subscriber{}, fmt.Errorf("getting subscriber: %w", err)
	}
	if !sub.Active {
		return Subscriber{}, fmt.Errorf("%w: %s", ErrSubscriberInactive, subscriberID)
	}
	return sub, nil
}

// deliver makes one attempt; priorFailures is the number of failed attempts already made for the event
func (s *Service) deliver(ctx context.Context, sub Subscriber, event string, data any, priorFailures int) (DeliveryResult, error) {
	attempt := priorFailures + 1
	ctx, span := s.tracer.Start(ctx, "webhook.deliver",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("webhook.subscriber_id", sub.ID),
			attribute.String("webhook.event", event),
			attribute.Int("webhook.attempt", attempt),
		),
	)
	defer span.End()

	signed, err := signature.Sign(sub.Secret, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "signing failed")
		return DeliveryResult{}, fmt.Errorf("signing payload for %s: %w", sub.ID, err)
	}

	result := s.transport.Deliver(ctx, sub.URL, signature.Headers(event, signed), signed.Body)
	result.Attempt = attempt
	if result.AttemptedAt.IsZero() {
		result.AttemptedAt = s.now()
	}

	body := json.RawMessage(signed.Body)
	s.recorder.Record(ctx, sub.ID, event, body, result)
	if s.metrics != nil {
		s.metrics.RecordAttempt(ctx, sub.ID, result.Outcome, result.Duration)
	}

	span.SetAttributes(
		attribute.String("webhook.outcome", result.Outcome.String()),
		attribute.Int("http.response.status_code", result.StatusCode),
	)

	log := s.logger.With().
		Str("subscriber_id", sub.ID).
		Str("event", event).
		Int("attempt", attempt).
		Int("status_code", result.StatusCode).
		Dur("duration", result.Duration).
		Logger()

	if result.Succeeded() {
		log.Debug().Msg("webhook delivered")
		return result, nil
	}

	span.SetStatus(codes.Error, result.Error)
	job, scheduled, err := s.scheduler.Schedule(ctx, sub.ID, event, body, attempt, s.now())
	switch {
	case err != nil:
		log.Error().Err(err).Msg("scheduling retry")
	case scheduled:
		log.Info().Str("error", result.Error).Time("retry_at", job.RunAt).Msg("webhook delivery failed, retry scheduled")
	default:
		log.Warn().Str("error", result.Error).Msg("webhook delivery failed, giving up")
	}

	return result, nil
}

func validateEvent(event string) error {
	if err := payload.ValidateEvent(event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return nil
}
