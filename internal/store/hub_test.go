package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(s *Store, path string) (*Listener, chan any) {
	ch := make(chan any, 16)
	l := s.Subscribe(path, func(_ context.Context, snapshot any) {
		ch <- snapshot
	})
	return l, ch
}

func next(t *testing.T, ch chan any) any {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func quiet(t *testing.T, ch chan any) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected snapshot: %v", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeDeliversInitialAndChanges(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), nil)
	require.NoError(t, s.Set(ctx, "requests/a@x.in/7/history/1/status", "raised"))

	l, ch := collect(s, "requests")
	defer l.Off()

	initial := AsMap(next(t, ch))
	require.Contains(t, initial, "a@x.in")

	require.NoError(t, s.Set(ctx, "requests/a@x.in/7/history/1/status", "approved"))
	updated := next(t, ch)
	status := Child(Child(Child(Child(AsMap(updated), "a@x.in"), "7"), "history"), "1")["status"]
	assert.Equal(t, "approved", status)
}

func TestSubscribeIgnoresUnrelatedPaths(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), nil)

	l, ch := collect(s, "requests/a@x.in/Mentor_Support/history")
	defer l.Off()
	assert.Nil(t, next(t, ch))

	require.NoError(t, s.Set(ctx, "requests/b@x.in/Mentor_Support/history/1/query", "hello"))
	quiet(t, ch)
}

func TestOffStopsDelivery(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), nil)

	l, ch := collect(s, "requests")
	next(t, ch)
	assert.Equal(t, 1, s.Hub().Active())

	l.Off()
	l.Off()
	assert.Equal(t, 0, s.Hub().Active())

	require.NoError(t, s.Set(ctx, "requests/a@x.in/7/history/1/status", "raised"))
	quiet(t, ch)
}

func TestHandlerPanicDoesNotStopListener(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), nil)

	calls := make(chan int, 4)
	count := 0
	l := s.Subscribe("requests", func(_ context.Context, _ any) {
		count++
		calls <- count
		if count == 1 {
			panic("render failed")
		}
	})
	defer l.Off()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial delivery")
	}
	require.NoError(t, s.Set(ctx, "requests/a@x.in/7/history/1/status", "raised"))
	select {
	case n := <-calls:
		assert.Equal(t, 2, n)
	case <-time.After(2 * time.Second):
		t.Fatal("listener stopped after panic")
	}
}
