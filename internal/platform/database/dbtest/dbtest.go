// Package dbtest starts a migrated Postgres container for integration tests.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glowbook/glowbook/internal/platform/database"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Setup runs postgres:16-alpine, applies the project migrations and returns
// a pool plus a cleanup func. Callers skip under testing.Short().
func Setup(t *testing.T) (*database.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("glowbook_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		),
	)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = database.RunMigrations(connStr, "file://"+filepath.Join(projectRoot(t), "migrations"))
	require.NoError(t, err)

	pool, err := database.Connect(ctx, connStr, 5)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup
}

// SeedTenant inserts a tenant and returns its id.
func SeedTenant(t *testing.T, pool *database.Pool, name, slug string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		"INSERT INTO tenants (name, slug) VALUES ($1, $2) RETURNING id", name, slug,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedUser inserts an active user with a placeholder password hash. An
// empty tenantID makes a platform-level account.
func SeedUser(t *testing.T, pool *database.Pool, tenantID, email string, roles ...string) string {
	t.Helper()
	var tid *string
	if tenantID != "" {
		tid = &tenantID
	}
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (tenant_id, email, password_hash, display_name, roles)
		 VALUES ($1, $2, 'x', $2, $3) RETURNING id`,
		tid, email, roles,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedSalon inserts a salon and returns its id.
func SeedSalon(t *testing.T, pool *database.Pool, tenantID, name string, active bool) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		"INSERT INTO salons (tenant_id, name, active) VALUES ($1, $2, $3) RETURNING id",
		tenantID, name, active,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func projectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (no go.mod found)")
		}
		dir = parent
	}
}
