package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendSetGet(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), nil)

	require.NoError(t, s.Set(ctx, "requests/a@x.in/7/history/1700000000000", map[string]any{
		"status":       "raised",
		"requestedQty": 2,
	}))

	got, err := s.Get(ctx, "requests/a@x.in/7/history/1700000000000/status")
	require.NoError(t, err)
	assert.Equal(t, "raised", got)

	qty, err := s.Get(ctx, "/requests/a@x.in/7/history/1700000000000/requestedQty/")
	require.NoError(t, err)
	assert.Equal(t, float64(2), qty)
}

func TestMemoryBackendUpdateLeavesSiblings(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), nil)
	path := "requests/a@x.in/Mentor_Support/history/1700000000000"

	require.NoError(t, s.Set(ctx, path, map[string]any{"query": "Which port?"}))
	require.NoError(t, s.Update(ctx, path, map[string]any{"solution": "Use port 2", "time": 1700000005000}))

	got, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"query":    "Which port?",
		"solution": "Use port 2",
		"time":     float64(1700000005000),
	}, got)
}

func TestMemoryBackendRemovePrunesEmptyParents(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), nil)

	require.NoError(t, s.Set(ctx, "requests/a@x.in/Mentor_Support/history/1", map[string]any{"query": "hi"}))
	require.NoError(t, s.Set(ctx, "requests/b@x.in/7/history/2/status", "raised"))
	require.NoError(t, s.Remove(ctx, "requests/a@x.in/Mentor_Support"))

	gone, err := s.Get(ctx, "requests/a@x.in")
	require.NoError(t, err)
	assert.Nil(t, gone)

	requests, err := s.Get(ctx, "requests")
	require.NoError(t, err)
	assert.Len(t, AsMap(requests), 1)
}

func TestMemoryBackendReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), nil)
	require.NoError(t, s.Set(ctx, "users/role/primary", map[string]any{"u1": "a@x.in"}))

	first, err := s.Get(ctx, "users/role")
	require.NoError(t, err)
	AsMap(first)["primary"] = "tampered"

	second, err := s.Get(ctx, "users/role/primary/u1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.in", second)
}

func TestSetRejectsEmptySegments(t *testing.T) {
	s := New(NewMemoryBackend(), nil)
	err := s.Set(context.Background(), "requests//7", "x")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSetOverLeafReplacesIt(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), nil)
	require.NoError(t, s.Set(ctx, "components/stockLink", "https://docs.google.com/spreadsheets/d/abc"))
	require.NoError(t, s.Set(ctx, "components/stockLink/extra", "x"))

	got, err := s.Get(ctx, "components/stockLink")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"extra": "x"}, got)
}
