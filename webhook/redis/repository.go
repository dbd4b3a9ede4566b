package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/webhook-outbox/webhook"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of the ephemeral webhook stores
 * Uses capped Lists for the recent attempt log
 * Uses plain keys with expiry for the last payload cache
 * Uses a Sorted Set scored by run-at for the retry queue
 */

const (
	attemptsPrefix = "webhook:attempts" // List naming: webhook:attempts:{subscriber_id}
	lastPrefix     = "webhook:last"     // Key naming: webhook:last:{subscriber_id}:{event}
	retryKey       = "webhook:retries"  // Sorted set, score = run-at in unix ms
)

type Repository struct {
	client      *redis.Client
	fastLogSize int
	lastTTL     time.Duration
}

// Option configures a Repository
type Option func(*Repository)

// WithFastLogSize sets how many attempts are kept per subscriber
func WithFastLogSize(n int) Option {
	return func(r *Repository) {
		if n > 0 {
			r.fastLogSize = n
		}
	}
}

// WithLastPayloadTTL sets the expiry of cached payloads
func WithLastPayloadTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.lastTTL = ttl
		}
	}
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int, opts ...Option) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return NewRepositoryWithClient(client, opts...), nil
}

// NewRepositoryWithClient wraps an existing client
func NewRepositoryWithClient(client *redis.Client, opts ...Option) *Repository {
	r := &Repository{
		client:      client,
		fastLogSize: webhook.FastLogSize,
		lastTTL:     webhook.LastPayloadTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type attemptRecord struct {
	ID            string    `json:"id"`
	SubscriberID  string    `json:"subscriber_id"`
	Event         string    `json:"event"`
	Outcome       string    `json:"outcome"`
	StatusCode    int       `json:"status_code"`
	DurationMS    int64     `json:"duration_ms"`
	Error         string    `json:"error,omitempty"`
	AttemptNumber int       `json:"attempt_number"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAttemptRecord(a webhook.Attempt) attemptRecord {
	return attemptRecord{
		ID:            a.ID,
		SubscriberID:  a.SubscriberID,
		Event:         a.Event,
		Outcome:       a.Outcome.String(),
		StatusCode:    a.StatusCode,
		DurationMS:    a.Duration.Milliseconds(),
		Error:         a.Error,
		AttemptNumber: a.AttemptNumber,
		CreatedAt:     a.CreatedAt,
	}
}

func (r attemptRecord) attempt() webhook.Attempt {
	return webhook.Attempt{
		ID:            r.ID,
		SubscriberID:  r.SubscriberID,
		Event:         r.Event,
		Outcome:       webhook.NewOutcome(r.Outcome),
		StatusCode:    r.StatusCode,
		Duration:      time.Duration(r.DurationMS) * time.Millisecond,
		Error:         r.Error,
		AttemptNumber: r.AttemptNumber,
		CreatedAt:     r.CreatedAt,
	}
}

// Push prepends the attempt to the subscriber list and trims it to the cap
func (r *Repository) Push(ctx context.Context, attempt webhook.Attempt) error {
	data, err := json.Marshal(toAttemptRecord(attempt))
	if err != nil {
		return fmt.Errorf("marshaling attempt: %w", err)
	}

	key := attemptsKey(attempt.SubscriberID)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(r.fastLogSize-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pushing attempt: %w", err)
	}
	return nil
}

// Recent returns the subscriber's recent attempts, newest first
func (r *Repository) Recent(ctx context.Context, subscriberID string) ([]webhook.Attempt, error) {
	items, err := r.client.LRange(ctx, attemptsKey(subscriberID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading attempts: %w", err)
	}

	attempts := make([]webhook.Attempt, 0, len(items))
	for _, item := range items {
		var rec attemptRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		attempts = append(attempts, rec.attempt())
	}
	return attempts, nil
}

// SetLast overwrites the cached payload and refreshes its expiry
func (r *Repository) SetLast(ctx context.Context, subscriberID, event string, body json.RawMessage) error {
	if err := r.client.Set(ctx, lastKey(subscriberID, event), []byte(body), r.lastTTL).Err(); err != nil {
		return fmt.Errorf("setting last payload: %w", err)
	}
	return nil
}

// GetLast returns webhook.ErrNoRecentPayload when the key is absent or expired
func (r *Repository) GetLast(ctx context.Context, subscriberID, event string) (json.RawMessage, error) {
	data, err := r.client.Get(ctx, lastKey(subscriberID, event)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, webhook.ErrNoRecentPayload
	}
	if err != nil {
		return nil, fmt.Errorf("getting last payload: %w", err)
	}
	return json.RawMessage(data), nil
}

type jobRecord struct {
	ID           string          `json:"id"`
	SubscriberID string          `json:"subscriber_id"`
	Event        string          `json:"event"`
	Payload      json.RawMessage `json:"payload"`
	Attempt      int             `json:"attempt"`
	RunAt        time.Time       `json:"run_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Enqueue adds the job to the retry set scored by its run-at time
func (r *Repository) Enqueue(ctx context.Context, job webhook.RetryJob) error {
	data, err := json.Marshal(jobRecord(job))
	if err != nil {
		return fmt.Errorf("marshaling retry job: %w", err)
	}

	err = r.client.ZAdd(ctx, retryKey, redis.Z{
		Score:  float64(job.RunAt.UnixMilli()),
		Member: data,
	}).Err()
	if err != nil {
		return fmt.Errorf("adding retry job: %w", err)
	}
	return nil
}

/* PopDue claims up to limit due jobs, earliest first
 * A job belongs to the caller whose ZREM removed it, so concurrent pollers
 * in other processes never run the same job
 */
func (r *Repository) PopDue(ctx context.Context, now time.Time, limit int) ([]webhook.RetryJob, error) {
	members, err := r.client.ZRangeByScore(ctx, retryKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("reading due retries: %w", err)
	}

	jobs := make([]webhook.RetryJob, 0, len(members))
	for _, member := range members {
		removed, err := r.client.ZRem(ctx, retryKey, member).Result()
		if err != nil {
			return jobs, fmt.Errorf("claiming retry job: %w", err)
		}
		if removed == 0 {
			// claimed by another poller
			continue
		}

		var rec jobRecord
		if err := json.Unmarshal([]byte(member), &rec); err != nil {
			continue
		}
		jobs = append(jobs, webhook.RetryJob(rec))
	}
	return jobs, nil
}

// Len returns the number of pending retry jobs
func (r *Repository) Len(ctx context.Context) (int64, error) {
	n, err := r.client.ZCard(ctx, retryKey).Result()
	if err != nil {
		return 0, fmt.Errorf("counting retries: %w", err)
	}
	return n, nil
}

// CountDue returns the number of jobs due at now without claiming them
func (r *Repository) CountDue(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.client.ZCount(ctx, retryKey, "-inf", strconv.FormatInt(now.UnixMilli(), 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("counting due retries: %w", err)
	}
	return n, nil
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// Helper functions

func attemptsKey(subscriberID string) string {
	return fmt.Sprintf("%s:%s", attemptsPrefix, subscriberID)
}

func lastKey(subscriberID, event string) string {
	return fmt.Sprintf("%s:%s:%s", lastPrefix, subscriberID, event)
}
