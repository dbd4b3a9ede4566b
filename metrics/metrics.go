package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the retry machinery.
type Metrics struct {
	// RetryQueueLength is the number of retry jobs waiting, due or not
	RetryQueueLength int64 `json:"retry_queue_length"`

	// DueRetries is the number of jobs whose run-at has passed
	DueRetries int64 `json:"due_retries"`

	// Pollers lists the retry pollers with a live heartbeat
	Pollers []PollerInfo `json:"pollers"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// PollerInfo represents information about an active retry poller.
type PollerInfo struct {
	// PollerID is a unique identifier for the poller process
	PollerID string `json:"poller_id"`

	// Status is the current status of the poller (e.g., "idle", "processing")
	Status string `json:"status"`

	// LastHeartbeat is the timestamp of the last heartbeat
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Collector defines the interface for collecting metrics from the delivery engine.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetRetryQueueLength returns the number of pending retry jobs
	GetRetryQueueLength(ctx context.Context) (int64, error)

	// GetDueRetries returns the number of retry jobs ready to run
	GetDueRetries(ctx context.Context) (int64, error)

	// GetActivePollers returns the retry pollers that are alive
	GetActivePollers(ctx context.Context) ([]PollerInfo, error)
}
