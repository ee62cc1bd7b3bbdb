//go:build integration

// Package testdb provides Postgres helpers for integration tests. Tests
// that use it are skipped when no database URL is configured.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/yomu-api/internal/platform/postgres"
	"github.com/phrazzld/yomu-api/internal/redact"
	"github.com/stretchr/testify/require"
)

// Environment variables checked for the test database, in order.
const (
	EnvTestDatabaseURL = "YOMU_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// ErrRollback can be returned from a transaction callback to force a
// rollback in tests.
var ErrRollback = errors.New("testdb: rollback")

// GetTestDatabaseURL returns the first configured test database URL, or "".
func GetTestDatabaseURL() string {
	for _, key := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if url := os.Getenv(key); url != "" {
			return url
		}
	}
	return ""
}

// Open connects to the test database and applies all migrations. It skips
// the test when no URL is set and closes the pool on cleanup.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := GetTestDatabaseURL()
	if url == "" {
		t.Skipf("%s not set", EnvTestDatabaseURL)
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("test database unreachable: %s", redact.Error(err))
	}

	require.NoError(t, postgres.Migrate(context.Background(), db, "up", nil))
	return db
}

// Reset empties the cards table.
func Reset(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), "TRUNCATE cards")
	require.NoError(t, err)
}

// WithTx runs fn inside a transaction that is always rolled back, so the
// test leaves no rows behind.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Errorf("rollback failed: %v", err)
		}
	}()

	fn(t, tx)
}
