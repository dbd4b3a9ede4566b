package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/marcelsud/webhook-outbox/webhook"
)

/* In-process implementations of the ephemeral webhook stores
 * Used when no Redis is configured and in tests; contents are lost on restart
 */

// AttemptLog keeps the most recent attempts per subscriber, newest first
type AttemptLog struct {
	mu   sync.RWMutex
	size int
	logs map[string][]webhook.Attempt
}

// NewAttemptLog creates a log capped at size entries per subscriber
func NewAttemptLog(size int) *AttemptLog {
	if size <= 0 {
		size = webhook.FastLogSize
	}
	return &AttemptLog{
		size: size,
		logs: make(map[string][]webhook.Attempt),
	}
}

// Push prepends the attempt and evicts the oldest entries beyond the cap
func (l *AttemptLog) Push(_ context.Context, attempt webhook.Attempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.logs[attempt.SubscriberID]
	next := make([]webhook.Attempt, 0, min(len(cur)+1, l.size))
	next = append(next, attempt)
	for _, a := range cur {
		if len(next) == l.size {
			break
		}
		next = append(next, a)
	}
	l.logs[attempt.SubscriberID] = next
	return nil
}

// Recent returns a copy of the subscriber's log
func (l *AttemptLog) Recent(_ context.Context, subscriberID string) ([]webhook.Attempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cur := l.logs[subscriberID]
	out := make([]webhook.Attempt, len(cur))
	copy(out, cur)
	return out, nil
}

type cachedPayload struct {
	body      json.RawMessage
	expiresAt time.Time
}

// PayloadCache keeps the last payload per subscriber and event until it expires
type PayloadCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]cachedPayload
	nextSweep time.Time
}

// payloadSweepInterval bounds how often SetLast scans for expired entries
const payloadSweepInterval = time.Minute

// NewPayloadCache creates a cache whose entries live for ttl
func NewPayloadCache(ttl time.Duration) *PayloadCache {
	if ttl <= 0 {
		ttl = webhook.LastPayloadTTL
	}
	return &PayloadCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedPayload),
	}
}

// WithClock replaces time.Now
func (c *PayloadCache) WithClock(now func() time.Time) *PayloadCache {
	c.now = now
	return c
}

func cacheKey(subscriberID, event string) string {
	return subscriberID + ":" + event
}

// SetLast overwrites the entry and refreshes its expiry
func (c *PayloadCache) SetLast(_ context.Context, subscriberID, event string, body json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !now.Before(c.nextSweep) {
		c.sweep(now)
	}

	stored := make(json.RawMessage, len(body))
	copy(stored, body)
	c.entries[cacheKey(subscriberID, event)] = cachedPayload{
		body:      stored,
		expiresAt: now.Add(c.ttl),
	}
	return nil
}

// sweep drops expired entries; pairs that are never read again would otherwise stay forever
func (c *PayloadCache) sweep(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.nextSweep = now.Add(min(c.ttl, payloadSweepInterval))
}

// GetLast returns webhook.ErrNoRecentPayload when the entry is absent or expired
func (c *PayloadCache) GetLast(_ context.Context, subscriberID, event string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(subscriberID, event)
	entry, ok := c.entries[key]
	if !ok {
		return nil, webhook.ErrNoRecentPayload
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, webhook.ErrNoRecentPayload
	}
	return entry.body, nil
}

// DurableAttemptStore is an unbounded in-memory attempt history
type DurableAttemptStore struct {
	mu       sync.RWMutex
	attempts map[string][]webhook.Attempt
}

// NewDurableAttemptStore creates an empty history
func NewDurableAttemptStore() *DurableAttemptStore {
	return &DurableAttemptStore{attempts: make(map[string][]webhook.Attempt)}
}

// Append stores the attempt
func (s *DurableAttemptStore) Append(_ context.Context, attempt webhook.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.SubscriberID] = append(s.attempts[attempt.SubscriberID], attempt)
	return nil
}

// ListBySubscriber returns up to limit attempts, newest first
func (s *DurableAttemptStore) ListBySubscriber(_ context.Context, subscriberID string, limit int) ([]webhook.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.attempts[subscriberID]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]webhook.Attempt, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
