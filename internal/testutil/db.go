// AngelaMos | 2026
// db.go

// Package testutil provides databases, a controllable clock and fixture
// seeders for package tests. Seeders write raw SQL so any package can use
// them without an import cycle.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carterperez-dev/curator-backend/internal/config"
	"github.com/carterperez-dev/curator-backend/internal/core"
)

// NewSQLiteDB opens a migrated database file in a per-test directory.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := core.NewDatabase(context.Background(), config.DatabaseConfig{
		Driver:      core.DriverSQLite,
		URL:         filepath.Join(t.TempDir(), "curator.db"),
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db.DB
}

// NewPostgresDB starts a throwaway PostgreSQL container. It skips under
// -short and when no container runtime is reachable.
func NewPostgresDB(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres container skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("curator_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		Driver:          core.DriverPostgres,
		URL:             connStr,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute,
		AutoMigrate:     true,
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db.DB
}

// EachDriver runs fn against SQLite and, outside -short, PostgreSQL.
func EachDriver(t *testing.T, fn func(t *testing.T, db *sqlx.DB)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewSQLiteDB(t))
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, NewPostgresDB(t))
	})
}
