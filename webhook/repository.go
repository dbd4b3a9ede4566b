package webhook

import (
	"context"
	"encoding/json"
	"time"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// SubscriberReader resolves subscribers
type SubscriberReader interface {
	/* Get returns ErrSubscriberNotFound when the id is unknown
	 * Context is always the first parameter in functions that do I/O
	 */
	Get(ctx context.Context, id string) (Subscriber, error)
	ListActive(ctx context.Context) ([]Subscriber, error)
}

/* SubscriberCounter updates the rolling counters of a subscriber
 * Implementations increment atomically; this package never does read-modify-write
 */
type SubscriberCounter interface {
	IncrementSuccess(ctx context.Context, id string) error
	IncrementFailure(ctx context.Context, id string) error
	TouchLastTriggered(ctx context.Context, id string, at time.Time) error
}

// SubscriberStore is the subscriber collaborator consumed by deliveries
type SubscriberStore interface {
	SubscriberReader
	SubscriberCounter
}

// AttemptLog is the capped fast-access log of recent attempts, newest first
type AttemptLog interface {
	Push(ctx context.Context, attempt Attempt) error
	Recent(ctx context.Context, subscriberID string) ([]Attempt, error)
}

// PayloadCache keeps the last payload sent per subscriber and event
type PayloadCache interface {
	/* SetLast overwrites the entry and refreshes its expiry
	 * GetLast returns ErrNoRecentPayload when the entry is absent or expired
	 */
	SetLast(ctx context.Context, subscriberID, event string, body json.RawMessage) error
	GetLast(ctx context.Context, subscriberID, event string) (json.RawMessage, error)
}

// DurableAttemptStore is the unbounded, authoritative attempt history
type DurableAttemptStore interface {
	Append(ctx context.Context, attempt Attempt) error
	ListBySubscriber(ctx context.Context, subscriberID string, limit int) ([]Attempt, error)
}

/* RetryQueue holds pending retry jobs ordered by RunAt
 * PopDue removes and returns jobs whose RunAt is not after now; a job is
 * returned to exactly one caller even with several pollers. Jobs returned
 * alongside an error were claimed before it and are no longer queued
 */
type RetryQueue interface {
	Enqueue(ctx context.Context, job RetryJob) error
	PopDue(ctx context.Context, now time.Time, limit int) ([]RetryJob, error)
	Len(ctx context.Context) (int64, error)
}

// Transport performs a single delivery attempt; it never returns an error, failures are classified
type Transport interface {
	Deliver(ctx context.Context, url string, headers map[string]string, body []byte) DeliveryResult
}

// MetricsSink counts attempts per subscriber and outcome
type MetricsSink interface {
	RecordAttempt(ctx context.Context, subscriberID string, outcome Outcome, duration time.Duration)
}

// Heartbeater lets other processes see that a retry poller is alive
type Heartbeater interface {
	SetPollerHeartbeat(ctx context.Context, pollerID, status string) error
}
