//go:build integration

package sql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/docstore/storetest"
)

// postgresDSN returns a DSN for integration tests. It prefers the
// GRIDSTORE_TEST_POSTGRES_DSN environment variable and falls back to
// starting a disposable container.
func postgresDSN(t *testing.T) string {
	t.Helper()

	if dsn := os.Getenv("GRIDSTORE_TEST_POSTGRES_DSN"); dsn != "" {
		return dsn
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gridstore_test"),
		tcpostgres.WithUsername("gridstore"),
		tcpostgres.WithPassword("gridstore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresConformance(t *testing.T) {
	dsn := postgresDSN(t)

	storetest.Run(t, func(t *testing.T) docstore.Store {
		store, err := Open(Config{Type: DatabasePostgres, DSN: dsn})
		require.NoError(t, err)
		t.Cleanup(func() {
			// Each subtest expects an empty store
			_, _ = store.Collection("fs.files").Delete(context.Background(), nil)
			_, _ = store.Collection("fs.chunks").Delete(context.Background(), nil)
			_, _ = store.Collection("a.files").Delete(context.Background(), nil)
			_, _ = store.Collection("b.files").Delete(context.Background(), nil)
			_ = store.Close()
		})
		return store
	})
}
