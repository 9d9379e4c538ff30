package database

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"dbfixture/internal/config"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.DatabaseConfig{DBType: "sqlite", File: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "sqlite", store.Dialect())
	tables, err := store.GetTables(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestOpenRejectsUnknownType(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{DBType: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestConnectRejectsBadDSN(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz", 0, 0)
	assert.ErrorContains(t, err, "failed to parse connection string")

	assert.Error(t, EnsureDatabaseExists(context.Background(), "host=localhost user=fixture"))
}

func TestOpenPostgresCreatesDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fixture"),
		postgres.WithUsername("fixture"),
		postgres.WithPassword("fixture"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	dsn = strings.Replace(dsn, "/fixture?", "/fixture_seed?", 1)

	cfg := config.DatabaseConfig{
		DBType:           "postgres",
		ConnectionString: dsn,
		MaxConns:         4,
		MinConns:         1,
		CreateIfMissing:  true,
	}
	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, "postgres", store.Dialect())

	// A second check finds the database already there.
	require.NoError(t, EnsureDatabaseExists(ctx, dsn))

	tables, err := store.GetTables(ctx, "public")
	require.NoError(t, err)
	assert.Empty(t, tables)
}
