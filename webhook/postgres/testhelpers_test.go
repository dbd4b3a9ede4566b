//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

/* Test helpers for PostgreSQL integration tests
 * Each helper starts a real postgres container through testcontainers
 */

const (
	defaultDatabase = "testdb"
	defaultUser     = "testuser"
	defaultPassword = "testpass"
)

// PostgresContainer holds the container and an open connection
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	ConnStr   string
}

// SetupPostgresContainer creates and starts a PostgreSQL container
func SetupPostgresContainer(t *testing.T, ctx context.Context) (*PostgresContainer, func()) {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(defaultDatabase),
		postgres.WithUsername(defaultUser),
		postgres.WithPassword(defaultPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))

	container := &PostgresContainer{
		Container: pgContainer,
		DB:        db,
		ConnStr:   connStr,
	}

	cleanup := func() {
		if db != nil {
			_ = db.Close()
		}
		if pgContainer != nil {
			_ = pgContainer.Terminate(ctx)
		}
	}

	return container, cleanup
}

// CreateTestRepository creates a repository with its tables
func CreateTestRepository(t *testing.T, ctx context.Context, connStr string) *Repository {
	t.Helper()

	repo, err := NewRepository(connStr)
	require.NoError(t, err)
	require.NoError(t, repo.CreateTables(ctx))

	return repo
}

// CleanupDatabase removes every row
func CleanupDatabase(t *testing.T, ctx context.Context, db *sql.DB) {
	t.Helper()

	_, err := db.ExecContext(ctx, "TRUNCATE TABLE webhook_attempts, webhook_subscribers")
	require.NoError(t, err)
}

// AssertAttemptCount checks how many attempts a subscriber has
func AssertAttemptCount(t *testing.T, ctx context.Context, db *sql.DB, subscriberID string, expected int) {
	t.Helper()

	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM webhook_attempts WHERE subscriber_id = $1", subscriberID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}
