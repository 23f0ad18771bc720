//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"podium/internal/platform/config"
	"podium/internal/platform/database"
	"podium/migrations"
)

type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres and applies the embedded schema through
// the same pool and migration path the server uses.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("podium_test"),
		postgres.WithUsername("podium"),
		postgres.WithPassword("podium_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("postgres connection string: %v", err)
	}

	pool, err := database.New(ctx, config.DatabaseConfig{
		URL:             dsn,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("connect postgres: %v", err)
	}
	if err := pool.Migrate(ctx, migrations.FS); err != nil {
		_ = pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("migrate postgres: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: pool.DB()}
}

// TruncateAll empties the auth context table between tests.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE auth_context_entries"); err != nil {
		return fmt.Errorf("truncate auth_context_entries: %w", err)
	}
	return nil
}
