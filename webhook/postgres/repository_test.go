//go:build !integration

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/marcelsud/webhook-outbox/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* Unit tests with sqlmock: they check the SQL issued and the mapping of
 * results, not database behavior. Run the integration suite with -tags=integration.
 */

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return &Repository{DB: db}, mock
}

var subscriberRowColumns = []string{"id", "url", "secret", "active", "event_types", "success_count", "failure_count", "last_triggered_at"}

func TestRepository_Get_Unit(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT " + subscriberColumns + " FROM webhook_subscribers WHERE id = $1")

	t.Run("success - maps every column", func(t *testing.T) {
		repo, mock := newMock(t)
		last := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(subscriberRowColumns).
			AddRow("sub-1", "https://erp.example.com", "s3cret", true, "{payment.*,order.created}", 10, 2, last)
		mock.ExpectQuery(query).WithArgs("sub-1").WillReturnRows(rows)

		s, err := repo.Get(ctx, "sub-1")

		require.NoError(t, err)
		assert.Equal(t, "sub-1", s.ID)
		assert.Equal(t, "https://erp.example.com", s.URL)
		assert.Equal(t, "s3cret", s.Secret)
		assert.True(t, s.Active)
		assert.Equal(t, []string{"payment.*", "order.created"}, s.EventTypes)
		assert.Equal(t, int64(10), s.SuccessCount)
		assert.Equal(t, int64(2), s.FailureCount)
		assert.True(t, last.Equal(s.LastTriggeredAt))
	})

	t.Run("success - never triggered", func(t *testing.T) {
		repo, mock := newMock(t)

		rows := sqlmock.NewRows(subscriberRowColumns).
			AddRow("sub-1", "https://erp.example.com", "s3cret", false, "{}", 0, 0, nil)
		mock.ExpectQuery(query).WithArgs("sub-1").WillReturnRows(rows)

		s, err := repo.Get(ctx, "sub-1")

		require.NoError(t, err)
		assert.False(t, s.Active)
		assert.Empty(t, s.EventTypes)
		assert.True(t, s.LastTriggeredAt.IsZero())
	})

	t.Run("error - not found", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(query).WithArgs("ghost").WillReturnRows(sqlmock.NewRows(subscriberRowColumns))

		_, err := repo.Get(ctx, "ghost")

		require.ErrorIs(t, err, webhook.ErrSubscriberNotFound)
	})

	t.Run("error - query failure", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(query).WithArgs("sub-1").WillReturnError(errors.New("connection refused"))

		_, err := repo.Get(ctx, "sub-1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "selecting subscriber")
		assert.NotErrorIs(t, err, webhook.ErrSubscriberNotFound)
	})
}

func TestRepository_ListActive_Unit(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMock(t)

	rows := sqlmock.NewRows(subscriberRowColumns).
		AddRow("a", "https://a.example.com", "s", true, "{}", 1, 0, nil).
		AddRow("b", "https://b.example.com", "s", true, "{shipment.*}", 0, 3, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM webhook_subscribers WHERE active ORDER BY id")).WillReturnRows(rows)

	subs, err := repo.ListActive(ctx)

	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "a", subs[0].ID)
	assert.Equal(t, []string{"shipment.*"}, subs[1].EventTypes)
}

func TestRepository_Counters_Unit(t *testing.T) {
	ctx := context.Background()

	t.Run("success - increments in place", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE webhook_subscribers SET success_count = success_count + 1 WHERE id = $1")).
			WithArgs("sub-1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE webhook_subscribers SET failure_count = failure_count + 1 WHERE id = $1")).
			WithArgs("sub-1").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.IncrementSuccess(ctx, "sub-1"))
		require.NoError(t, repo.IncrementFailure(ctx, "sub-1"))
	})

	t.Run("success - touch last triggered", func(t *testing.T) {
		repo, mock := newMock(t)
		at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE webhook_subscribers SET last_triggered_at = $2 WHERE id = $1")).
			WithArgs("sub-1", at).WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.TouchLastTriggered(ctx, "sub-1", at))
	})

	t.Run("error - unknown subscriber", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectExec(regexp.QuoteMeta("SET success_count = success_count + 1")).
			WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.IncrementSuccess(ctx, "ghost")
		require.ErrorIs(t, err, webhook.ErrSubscriberNotFound)
	})

	t.Run("error - exec failure", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectExec(regexp.QuoteMeta("SET active = $2")).
			WithArgs("sub-1", false).WillReturnError(errors.New("deadlock"))

		err := repo.SetActive(ctx, "sub-1", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "setting subscriber active")
	})
}

func TestRepository_Save_Unit(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webhook_subscribers (id, url, secret, active, event_types)")).
		WithArgs("sub-1", "https://erp.example.com", "s3cret", true, pq.Array([]string{"payment.*"})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE")).
		WithArgs("sub-2", "https://b.example.com", "s", false, pq.Array([]string{})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(ctx, webhook.Subscriber{ID: "sub-1", URL: "https://erp.example.com", Secret: "s3cret", Active: true, EventTypes: []string{"payment.*"}}))
	require.NoError(t, repo.Save(ctx, webhook.Subscriber{ID: "sub-2", URL: "https://b.example.com", Secret: "s"}))
}

func TestRepository_Attempts_Unit(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	attemptColumns := []string{"id", "subscriber_id", "event", "outcome", "status_code", "duration_ms", "error", "attempt_number", "created_at"}

	t.Run("success - append", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webhook_attempts")).
			WithArgs("a1", "sub-1", "order.created", "failure", 0, int64(8000), "timeout after 8s", 1, createdAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Append(ctx, webhook.Attempt{
			ID: "a1", SubscriberID: "sub-1", Event: "order.created", Outcome: webhook.Failure,
			Duration: 8 * time.Second, Error: "timeout after 8s", AttemptNumber: 1, CreatedAt: createdAt,
		})
		require.NoError(t, err)
	})

	t.Run("success - list newest first with limit", func(t *testing.T) {
		repo, mock := newMock(t)

		rows := sqlmock.NewRows(attemptColumns).
			AddRow("a2", "sub-1", "order.created", "success", 200, 150, "", 2, createdAt.Add(2*time.Second)).
			AddRow("a1", "sub-1", "order.created", "failure", 0, 8000, "timeout after 8s", 1, createdAt)
		mock.ExpectQuery(regexp.QuoteMeta("FROM webhook_attempts")).WithArgs("sub-1", 2).WillReturnRows(rows)

		attempts, err := repo.ListBySubscriber(ctx, "sub-1", 2)

		require.NoError(t, err)
		require.Len(t, attempts, 2)
		assert.Equal(t, webhook.Success, attempts[0].Outcome)
		assert.Equal(t, 150*time.Millisecond, attempts[0].Duration)
		assert.Equal(t, webhook.Failure, attempts[1].Outcome)
		assert.Equal(t, 8*time.Second, attempts[1].Duration)
		assert.Equal(t, 1, attempts[1].AttemptNumber)
	})

	t.Run("success - no limit", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM webhook_attempts")).WithArgs("sub-1", nil).WillReturnRows(sqlmock.NewRows(attemptColumns))

		attempts, err := repo.ListBySubscriber(ctx, "sub-1", 0)

		require.NoError(t, err)
		assert.Empty(t, attempts)
	})

	t.Run("error - insert failure", func(t *testing.T) {
		repo, mock := newMock(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webhook_attempts")).WillReturnError(errors.New("disk full"))

		err := repo.Append(ctx, webhook.Attempt{ID: "a1", Outcome: webhook.Success})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inserting attempt")
	})
}

func TestRepository_Schema_Unit(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS webhook_subscribers")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS webhook_attempts")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS webhook_attempts_subscriber_created_idx")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS webhook_attempts, webhook_subscribers CASCADE")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.CreateTables(ctx))
	require.NoError(t, repo.DropTables(ctx))
}
