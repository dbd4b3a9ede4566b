package subscribers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marcelsud/webhook-outbox/webhook"
)

type entry struct {
	sub           webhook.Subscriber
	active        atomic.Bool
	success       atomic.Int64
	failure       atomic.Int64
	lastTriggered atomic.Int64 // unix nanoseconds, 0 when never triggered
}

/* Registry is an in-memory webhook.SubscriberStore
 * Counters are atomic per subscriber so concurrent deliveries never lose updates
 */
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates a registry holding subs
func NewRegistry(subs ...webhook.Subscriber) *Registry {
	r := &Registry{entries: make(map[string]*entry, len(subs))}
	for _, s := range subs {
		r.Put(s)
	}
	return r
}

// Put adds or replaces a subscriber, keeping its counters when it already exists
func (r *Registry) Put(s webhook.Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[s.ID]
	if !ok {
		e = &entry{}
		e.success.Store(s.SuccessCount)
		e.failure.Store(s.FailureCount)
		if !s.LastTriggeredAt.IsZero() {
			e.lastTriggered.Store(s.LastTriggeredAt.UnixNano())
		}
		r.entries[s.ID] = e
	}
	e.sub = webhook.Subscriber{
		ID:         s.ID,
		URL:        s.URL,
		Secret:     s.Secret,
		EventTypes: append([]string(nil), s.EventTypes...),
	}
	e.active.Store(s.Active)
}

// SetActive activates or deactivates a subscriber
func (r *Registry) SetActive(id string, active bool) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.active.Store(active)
	return nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", webhook.ErrSubscriberNotFound, id)
	}
	return e, nil
}

func (e *entry) snapshot() webhook.Subscriber {
	s := e.sub
	s.EventTypes = append([]string(nil), e.sub.EventTypes...)
	s.Active = e.active.Load()
	s.SuccessCount = e.success.Load()
	s.FailureCount = e.failure.Load()
	if ns := e.lastTriggered.Load(); ns != 0 {
		s.LastTriggeredAt = time.Unix(0, ns).UTC()
	}
	return s
}

// Get returns a snapshot of the subscriber
func (r *Registry) Get(_ context.Context, id string) (webhook.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return webhook.Subscriber{}, fmt.Errorf("%w: %s", webhook.ErrSubscriberNotFound, id)
	}
	return e.snapshot(), nil
}

// ListActive returns the active subscribers ordered by id
func (r *Registry) ListActive(_ context.Context) ([]webhook.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]webhook.Subscriber, 0, len(r.entries))
	for _, e := range r.entries {
		if e.active.Load() {
			subs = append(subs, e.snapshot())
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

// List returns every subscriber ordered by id
func (r *Registry) List() []webhook.Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]webhook.Subscriber, 0, len(r.entries))
	for _, e := range r.entries {
		subs = append(subs, e.snapshot())
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs
}

// IncrementSuccess atomically bumps the success counter
func (r *Registry) IncrementSuccess(_ context.Context, id string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.success.Add(1)
	return nil
}

// IncrementFailure atomically bumps the failure counter
func (r *Registry) IncrementFailure(_ context.Context, id string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.failure.Add(1)
	return nil
}

// TouchLastTriggered stamps the last delivery time
func (r *Registry) TouchLastTriggered(_ context.Context, id string, at time.Time) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.lastTriggered.Store(at.UnixNano())
	return nil
}
