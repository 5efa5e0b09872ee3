// Package dbtest connects integration tests to a disposable Postgres database.
package dbtest

import (
	"context"
	"os"
	"santaAPI/internal/database"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SetupTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. The test is skipped when the variable is not set.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	truncate(t, pool)

	return pool
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
	TRUNCATE user_challenges, meetings, user_mountains, challenges, users, categories
	RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
}

// Seed runs raw statements, failing the test on the first error.
func Seed(t *testing.T, pool *pgxpool.Pool, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		if _, err := pool.Exec(context.Background(), stmt); err != nil {
			t.Fatalf("Failed to seed %q: %v", stmt, err)
		}
	}
}
