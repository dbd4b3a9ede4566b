package webhook

import (
	"encoding/json"
	"time"
)

const (
	// MaxAttempts caps the transport calls made for one logical event
	MaxAttempts = 8

	// DeliveryTimeout bounds a single transport call
	DeliveryTimeout = 8 * time.Second

	// PollInterval is the retry poller cadence
	PollInterval = 3 * time.Second

	// FastLogSize is how many recent attempts are kept per subscriber in the fast log
	FastLogSize = 50

	// LastPayloadTTL is how long the last payload stays available for redelivery
	LastPayloadTTL = 24 * time.Hour
)

/* Subscriber represents an external endpoint registered to receive events
 * Uses value semantics as it represents data, not behavior
 * Registration and deactivation are owned elsewhere; this package only reads it
 * and bumps its counters through the store
 */
type Subscriber struct {
	ID              string
	URL             string
	Secret          string
	Active          bool
	EventTypes      []string
	SuccessCount    int64
	FailureCount    int64
	LastTriggeredAt time.Time
}

// DeliveryResult is the classified outcome of one transport call
type DeliveryResult struct {
	Outcome      Outcome
	StatusCode   int // 0 when no response was received
	Duration     time.Duration
	Error        string
	ResponseBody string
	Attempt      int
	AttemptedAt  time.Time
}

// Succeeded reports whether the attempt was classified as a success
func (r DeliveryResult) Succeeded() bool {
	return r.Outcome == Success
}

// Attempt is the immutable record of one transport call
type Attempt struct {
	ID            string
	SubscriberID  string
	Event         string
	Outcome       Outcome
	StatusCode    int
	Duration      time.Duration
	Error         string
	AttemptNumber int
	CreatedAt     time.Time
}

// NewAttempt builds the record of a transport call
func NewAttempt(id, subscriberID, event string, result DeliveryResult) Attempt {
	return Attempt{
		ID:            id,
		SubscriberID:  subscriberID,
		Event:         event,
		Outcome:       result.Outcome,
		StatusCode:    result.StatusCode,
		Duration:      result.Duration,
		Error:         result.Error,
		AttemptNumber: result.Attempt,
		CreatedAt:     result.AttemptedAt,
	}
}

/* RetryJob is a pending re-delivery
 * Attempt is the number of failures so far, so it doubles as the backoff exponent
 */
type RetryJob struct {
	ID           string
	SubscriberID string
	Event        string
	Payload      json.RawMessage
	Attempt      int
	RunAt        time.Time
	CreatedAt    time.Time
}

// Due reports whether the job may run at the given time
func (j RetryJob) Due(now time.Time) bool {
	return !j.RunAt.After(now)
}

// History is the attempt history of a subscriber as seen by operators
type History struct {
	SubscriberID string
	Recent       []Attempt
	Durable      []Attempt
}

// PublishResult is the outcome of a fan-out delivery to one subscriber
type PublishResult struct {
	SubscriberID string
	Result       DeliveryResult
	Err          error
}
