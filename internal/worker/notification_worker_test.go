package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/inventory-console/internal/store"
)

type flakyBus struct {
	mu    sync.Mutex
	runs  int
	fails int
}

func (b *flakyBus) Run(ctx context.Context, _ store.Notifier) error {
	b.mu.Lock()
	b.runs++
	fail := b.runs <= b.fails
	b.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	<-ctx.Done()
	return nil
}

func (b *flakyBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runs
}

type rootNotifier struct {
	mu    sync.Mutex
	paths []string
}

func (n *rootNotifier) Notify(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func TestRunChangeBusReconnects(t *testing.T) {
	bus := &flakyBus{fails: 1}
	target := &rootNotifier{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunChangeBus(ctx, bus, target, nil)
		close(done)
	}()

	require.Eventually(t, func() bool { return bus.count() == 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bus runner did not stop")
	}

	target.mu.Lock()
	defer target.mu.Unlock()
	assert.Equal(t, []string{""}, target.paths)
}

func TestRunChangeBusStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus := &flakyBus{}
	RunChangeBus(ctx, bus, &rootNotifier{}, nil)
	assert.Equal(t, 1, bus.count())
}
