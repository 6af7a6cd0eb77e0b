package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type notifyRecorder chan string

func (n notifyRecorder) Notify(path string) { n <- path }

func TestRedisBusForwardsRemoteChangesOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	local := NewRedisBus(client, "test:changes", nil)
	remote := NewRedisBus(client, "test:changes", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(notifyRecorder, 4)
	go func() { _ = local.Run(ctx, received) }()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("test:changes")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, local.Publish(ctx, "requests/self"))
	require.NoError(t, remote.Publish(ctx, "requests/a@x.in/7"))

	select {
	case path := <-received:
		require.Equal(t, "requests/a@x.in/7", path)
	case <-time.After(2 * time.Second):
		t.Fatal("remote change not forwarded")
	}
	select {
	case path := <-received:
		t.Fatalf("own change forwarded: %s", path)
	case <-time.After(100 * time.Millisecond):
	}
}
