package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/marcelsud/webhook-outbox/webhook"
)

/* PostgreSQL implementation of the durable webhook stores
 * webhook_subscribers backs webhook.SubscriberStore; counters are updated
 * in place with success_count = success_count + 1, never read-modify-write
 * webhook_attempts backs webhook.DurableAttemptStore and is never trimmed
 */

type Repository struct {
	DB *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS webhook_subscribers (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		secret TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		event_types TEXT[] NOT NULL DEFAULT '{}',
		success_count BIGINT NOT NULL DEFAULT 0,
		failure_count BIGINT NOT NULL DEFAULT 0,
		last_triggered_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS webhook_attempts (
		id TEXT PRIMARY KEY,
		subscriber_id TEXT NOT NULL,
		event TEXT NOT NULL,
		outcome TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		duration_ms BIGINT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		attempt_number INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS webhook_attempts_subscriber_created_idx
		ON webhook_attempts (subscriber_id, created_at DESC)`,
}

// NewRepository opens a pool with the default settings (25 open, 5 idle, 5 min lifetime)
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 5)
}

// NewRepositoryWithPoolConfig opens a pool with explicit settings
// maxOpenConns: maximum concurrent connections (0 = unlimited)
// maxIdleConns: maximum idle connections kept in the pool
// maxLifeMinutes: maximum minutes a connection may be reused
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return &Repository{
		DB: db,
	}, nil
}

const subscriberColumns = "id, url, secret, active, event_types, success_count, failure_count, last_triggered_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row rowScanner) (webhook.Subscriber, error) {
	var (
		s             webhook.Subscriber
		lastTriggered sql.NullTime
	)
	err := row.Scan(&s.ID, &s.URL, &s.Secret, &s.Active, pq.Array(&s.EventTypes), &s.SuccessCount, &s.FailureCount, &lastTriggered)
	if err != nil {
		return webhook.Subscriber{}, err
	}
	if lastTriggered.Valid {
		s.LastTriggeredAt = lastTriggered.Time
	}
	return s, nil
}

// Get returns a subscriber by id
func (r *Repository) Get(ctx context.Context, id string) (webhook.Subscriber, error) {
	query := "SELECT " + subscriberColumns + " FROM webhook_subscribers WHERE id = $1"

	s, err := scanSubscriber(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return webhook.Subscriber{}, fmt.Errorf("%w: %s", webhook.ErrSubscriberNotFound, id)
	}
	if err != nil {
		return webhook.Subscriber{}, fmt.Errorf("selecting subscriber: %w", err)
	}
	return s, nil
}

// ListActive returns the active subscribers ordered by id
func (r *Repository) ListActive(ctx context.Context) ([]webhook.Subscriber, error) {
	query := "SELECT " + subscriberColumns + " FROM webhook_subscribers WHERE active ORDER BY id"

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("selecting subscribers: %w", err)
	}
	defer rows.Close()

	var subs []webhook.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscribers: %w", err)
	}

	return subs, nil
}

// Save inserts or updates a subscriber registration; counters are left untouched
func (r *Repository) Save(ctx context.Context, s webhook.Subscriber) error {
	query := `
		INSERT INTO webhook_subscribers (id, url, secret, active, event_types)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET url = EXCLUDED.url, secret = EXCLUDED.secret, active = EXCLUDED.active, event_types = EXCLUDED.event_types
	`

	eventTypes := s.EventTypes
	if eventTypes == nil {
		eventTypes = []string{}
	}

	if _, err := r.DB.ExecContext(ctx, query, s.ID, s.URL, s.Secret, s.Active, pq.Array(eventTypes)); err != nil {
		return fmt.Errorf("saving subscriber: %w", err)
	}
	return nil
}

// SetActive activates or deactivates a subscriber
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, "setting subscriber active", id,
		"UPDATE webhook_subscribers SET active = $2 WHERE id = $1", id, active)
}

// IncrementSuccess atomically bumps the success counter
func (r *Repository) IncrementSuccess(ctx context.Context, id string) error {
	return r.exec(ctx, "incrementing success count", id,
		"UPDATE webhook_subscribers SET success_count = success_count + 1 WHERE id = $1", id)
}

// IncrementFailure atomically bumps the failure counter
func (r *Repository) IncrementFailure(ctx context.Context, id string) error {
	return r.exec(ctx, "incrementing failure count", id,
		"UPDATE webhook_subscribers SET failure_count = failure_count + 1 WHERE id = $1", id)
}

// TouchLastTriggered stamps the last delivery time
func (r *Repository) TouchLastTriggered(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, "touching last triggered", id,
		"UPDATE webhook_subscribers SET last_triggered_at = $2 WHERE id = $1", id, at)
}

// exec runs a single-row update and maps zero affected rows to ErrSubscriberNotFound
func (r *Repository) exec(ctx context.Context, action, id, query string, args ...any) error {
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", webhook.ErrSubscriberNotFound, id)
	}

	return nil
}

// Append stores an attempt; appending the same attempt twice is a no-op
func (r *Repository) Append(ctx context.Context, a webhook.Attempt) error {
	query := `
		INSERT INTO webhook_attempts (id, subscriber_id, event, outcome, status_code, duration_ms, error, attempt_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.DB.ExecContext(ctx, query,
		a.ID, a.SubscriberID, a.Event, a.Outcome.String(), a.StatusCode,
		a.Duration.Milliseconds(), a.Error, a.AttemptNumber, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting attempt: %w", err)
	}
	return nil
}

// ListBySubscriber returns up to limit attempts, newest first; limit <= 0 returns all
func (r *Repository) ListBySubscriber(ctx context.Context, subscriberID string, limit int) ([]webhook.Attempt, error) {
	query := `
		SELECT id, subscriber_id, event, outcome, status_code, duration_ms, error, attempt_number, created_at
		FROM webhook_attempts
		WHERE subscriber_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := r.DB.QueryContext(ctx, query, subscriberID, lim)
	if err != nil {
		return nil, fmt.Errorf("selecting attempts: %w", err)
	}
	defer rows.Close()

	var attempts []webhook.Attempt
	for rows.Next() {
		var (
			a          webhook.Attempt
			outcome    string
			durationMS int64
		)
		if err := rows.Scan(&a.ID, &a.SubscriberID, &a.Event, &outcome, &a.StatusCode, &durationMS, &a.Error, &a.AttemptNumber, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning attempt: %w", err)
		}
		a.Outcome = webhook.NewOutcome(outcome)
		a.Duration = time.Duration(durationMS) * time.Millisecond
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attempts: %w", err)
	}

	return attempts, nil
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// Close closes the database connection
func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateTables creates the subscriber and attempt tables
func (r *Repository) CreateTables(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

// DropTables removes the subscriber and attempt tables
func (r *Repository) DropTables(ctx context.Context) error {
	query := "DROP TABLE IF EXISTS webhook_attempts, webhook_subscribers CASCADE"

	if _, err := r.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("dropping tables: %w", err)
	}
	return nil
}
