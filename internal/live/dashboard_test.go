package live

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/store"
)

type countingInventory struct {
	calls atomic.Int32
	items map[string]domain.InventoryItem
}

func (c *countingInventory) Fetch(context.Context) map[string]domain.InventoryItem {
	c.calls.Add(1)
	return c.items
}

func nextView(t *testing.T, ch <-chan *View) *View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no view rendered")
		return nil
	}
}

func TestDashboardRendersEveryChange(t *testing.T) {
	s := store.New(store.NewMemoryBackend(), nil)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, domain.RequestsRoot, requestsTree()))
	inv := &countingInventory{items: map[string]domain.InventoryItem{}}
	d := NewDashboard(s, inv, time.UTC, nil)

	views, release := d.Acquire()
	defer release()

	first := nextView(t, views)
	assert.Len(t, first.Components, 4)
	assert.EqualValues(t, 1, first.Version)

	require.NoError(t, s.Set(ctx, "requests/amy@presidencyuniversity.in/7/history/1700000000003/status", "returned"))
	second := nextView(t, views)
	assert.Greater(t, second.Version, first.Version)
	assert.Equal(t, domain.StatusReturned, second.Components[0].Status)
	assert.Equal(t, domain.StatusDelivered, first.Components[0].Status)
	assert.GreaterOrEqual(t, inv.calls.Load(), int32(2))
}

func TestDashboardSharesOneSubscription(t *testing.T) {
	s := store.New(store.NewMemoryBackend(), nil)
	d := NewDashboard(s, &countingInventory{}, time.UTC, nil)

	a, releaseA := d.Acquire()
	nextView(t, a)
	b, releaseB := d.Acquire()
	assert.Equal(t, 1, s.Hub().Active())
	nextView(t, b)

	releaseA()
	assert.True(t, d.Watching())
	releaseB()
	releaseB()
	assert.False(t, d.Watching())
	assert.Equal(t, 0, s.Hub().Active())
}

func TestDashboardCurrentWithoutWatchers(t *testing.T) {
	s := store.New(store.NewMemoryBackend(), nil)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, domain.RequestsRoot, requestsTree()))
	d := NewDashboard(s, &countingInventory{}, time.UTC, nil)

	view, err := d.Current(ctx)
	require.NoError(t, err)
	assert.Len(t, view.Prints, 1)
	assert.Len(t, view.ChatUsers, 1)
	assert.Equal(t, 0, s.Hub().Active())
}
