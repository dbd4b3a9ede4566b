package metrics

import (
	"context"
	"fmt"
	"time"

	webhookredis "github.com/marcelsud/webhook-outbox/webhook/redis"
)

// QueueStats is the read side of a retry queue
type QueueStats interface {
	Len(ctx context.Context) (int64, error)
	CountDue(ctx context.Context, now time.Time) (int64, error)
}

// PollerRegistry lists pollers with a live heartbeat
type PollerRegistry interface {
	GetActivePollers(ctx context.Context) ([]webhookredis.PollerHeartbeat, error)
}

// RedisCollector implements the Collector interface for Redis-backed metrics
type RedisCollector struct {
	queue   QueueStats
	pollers PollerRegistry
	now     func() time.Time
}

// NewRedisCollector creates a collector reading the Redis retry set and heartbeats
func NewRedisCollector(repo *webhookredis.Repository) *RedisCollector {
	return &RedisCollector{
		queue:   repo,
		pollers: repo,
		now:     time.Now,
	}
}

// NewQueueCollector creates a collector over any retry queue; pollers may be nil
func NewQueueCollector(queue QueueStats, pollers PollerRegistry) *RedisCollector {
	return &RedisCollector{
		queue:   queue,
		pollers: pollers,
		now:     time.Now,
	}
}

// Collect gathers all metrics
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	length, err := c.GetRetryQueueLength(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting retry queue length: %w", err)
	}

	due, err := c.GetDueRetries(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting due retries: %w", err)
	}

	pollers, err := c.GetActivePollers(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting active pollers: %w", err)
	}

	return Metrics{
		RetryQueueLength: length,
		DueRetries:       due,
		Pollers:          pollers,
		Timestamp:        c.now(),
	}, nil
}

// GetRetryQueueLength returns the size of the retry set
func (c *RedisCollector) GetRetryQueueLength(ctx context.Context) (int64, error) {
	return c.queue.Len(ctx)
}

// GetDueRetries returns how many jobs are overdue
func (c *RedisCollector) GetDueRetries(ctx context.Context) (int64, error) {
	return c.queue.CountDue(ctx, c.now())
}

// GetActivePollers returns the pollers with a live heartbeat
func (c *RedisCollector) GetActivePollers(ctx context.Context) ([]PollerInfo, error) {
	if c.pollers == nil {
		return nil, nil
	}

	heartbeats, err := c.pollers.GetActivePollers(ctx)
	if err != nil {
		return nil, err
	}

	pollers := make([]PollerInfo, 0, len(heartbeats))
	for _, hb := range heartbeats {
		pollers = append(pollers, PollerInfo{
			PollerID:      hb.PollerID,
			Status:        hb.Status,
			LastHeartbeat: hb.LastHeartbeat,
		})
	}

	return pollers, nil
}
