//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/persistence"
	"github.com/spec-kit/inventory-console/internal/store"
)

// setupNodeRepository starts a throwaway Postgres, applies the migrations and
// returns a repository backed by it.
func setupNodeRepository(t *testing.T) *NodeRepository {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration tests")
	}
	provider.Close()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("console_test"),
		postgres.WithUsername("console"),
		postgres.WithPassword("console_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	return NewNodeRepository(pool)
}

func TestNodeRepositoryRoundTrip(t *testing.T) {
	repo := setupNodeRepository(t)
	ctx := context.Background()
	s := store.New(repo, nil)
	path := "requests/a@x.in/7/history/1700000000000"

	require.NoError(t, s.Set(ctx, path, map[string]any{"status": "raised", "requestedQty": 2}))
	require.NoError(t, s.Update(ctx, path, map[string]any{"status": "approved"}))

	got, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "approved", "requestedQty": float64(2)}, got)

	qty, err := s.Get(ctx, path+"/requestedQty")
	require.NoError(t, err)
	assert.Equal(t, float64(2), qty)

	missing, err := s.Get(ctx, "requests/nobody@x.in")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNodeRepositoryWriteReplacesSubtree(t *testing.T) {
	repo := setupNodeRepository(t)
	ctx := context.Background()
	path := "requests/a@x.in/Mentor_Support/history/1"

	require.NoError(t, repo.Write(ctx, path, map[string]any{"query": "hi", "solution": "hello"}))
	require.NoError(t, repo.Write(ctx, path, map[string]any{"query": "again"}))

	got, err := repo.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"query": "again"}, got)
}

func TestNodeRepositoryWriteBelowLeafDropsLeaf(t *testing.T) {
	repo := setupNodeRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Write(ctx, "requests/a@x.in/7", "placeholder"))
	require.NoError(t, repo.Write(ctx, "requests/a@x.in/7/history/1/status", "raised"))

	got, err := repo.Read(ctx, "requests/a@x.in")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"7": map[string]any{"history": map[string]any{"1": map[string]any{"status": "raised"}}},
	}, got)
}

func TestNodeRepositoryRemoveKeepsSiblings(t *testing.T) {
	repo := setupNodeRepository(t)
	ctx := context.Background()
	s := store.New(repo, nil)

	require.NoError(t, s.Set(ctx, "requests/a@x.in/Mentor_Support/history/1", map[string]any{"query": "hi"}))
	require.NoError(t, s.Set(ctx, "requests/b@x.in/7/history/2/status", "raised"))
	require.NoError(t, s.Remove(ctx, "requests/a@x.in/Mentor_Support"))

	gone, err := s.Get(ctx, "requests/a@x.in")
	require.NoError(t, err)
	assert.Nil(t, gone)

	requests, err := s.Get(ctx, "requests")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"b@x.in": map[string]any{"7": map[string]any{"history": map[string]any{"2": map[string]any{"status": "raised"}}}},
	}, requests)
}

func TestNodeRepositoryRejectsBadPath(t *testing.T) {
	repo := setupNodeRepository(t)
	ctx := context.Background()

	assert.Error(t, repo.Write(ctx, "requests//x", "v"))
	assert.Error(t, repo.Merge(ctx, "requests", map[string]any{"a//b": 1}))
}
