package helpers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/fleet/pkg/database"
)

// TestDatabaseURLEnv names the PostgreSQL URL used by repository tests
const TestDatabaseURLEnv = "TEST_DATABASE_URL"

// SetupTestDatabase connects to the database named by TEST_DATABASE_URL,
// applies the embedded migrations and closes the pool on cleanup.
// The test is skipped when the variable is unset or in short mode.
func SetupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database integration test in short mode")
	}
	databaseURL := os.Getenv(TestDatabaseURLEnv)
	if databaseURL == "" {
		t.Skipf("%s not set", TestDatabaseURLEnv)
	}

	if _, err := database.Migrate(migrationURL(databaseURL), database.Up); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		t.Fatalf("failed to create test database pool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("failed to ping test database: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// ResetTables truncates the supplied tables so every test starts empty
func ResetTables(t *testing.T, pool *pgxpool.Pool, tables ...string) {
	t.Helper()

	if len(tables) == 0 {
		return
	}
	stmt := fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if _, err := pool.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("failed to truncate tables %v: %v", tables, err)
	}
}

// migrationURL switches a postgres:// URL to the pgx5 migrate driver
func migrationURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}
