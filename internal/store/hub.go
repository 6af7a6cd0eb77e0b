package store

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler receives the full snapshot at the listener path. A nil snapshot means
// the path holds no data.
type Handler func(ctx context.Context, snapshot any)

// Observer receives listener lifecycle and delivery notifications.
type Observer interface {
	ListenerAttached(path string)
	ListenerDetached(path string)
	SnapshotDelivered(path string)
}

type reader func(ctx context.Context, path string) (any, error)

// Hub fans change notifications out to listeners.
type Hub struct {
	mu        sync.RWMutex
	listeners map[string]*Listener
	read      reader
	logger    *zap.Logger
	observer  Observer
}

func newHub(read reader, logger *zap.Logger, observer Observer) *Hub {
	return &Hub{
		listeners: make(map[string]*Listener),
		read:      read,
		logger:    logger,
		observer:  observer,
	}
}

// Listener is an active subscription. It is exclusively owned by whoever
// subscribed and must be released with Off.
type Listener struct {
	id      string
	path    string
	hub     *Hub
	handler Handler
	kick    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Path returns the subscribed path.
func (l *Listener) Path() string {
	return l.path
}

// Off detaches the listener and waits for an in-flight delivery to finish.
// The handler is never invoked after Off returns. Off must not be called from
// the listener's own handler.
func (l *Listener) Off() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		l.hub.remove(l)
		l.cancel()
		<-l.done
	})
}

func (h *Hub) subscribe(path string, handler Handler) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		id:      uuid.NewString(),
		path:    Clean(path),
		hub:     h,
		handler: handler,
		kick:    make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	h.listeners[l.id] = l
	h.mu.Unlock()
	if h.observer != nil {
		h.observer.ListenerAttached(l.path)
	}

	l.kick <- struct{}{}
	go l.run(ctx)
	return l
}

func (h *Hub) remove(l *Listener) {
	h.mu.Lock()
	_, ok := h.listeners[l.id]
	delete(h.listeners, l.id)
	h.mu.Unlock()
	if ok && h.observer != nil {
		h.observer.ListenerDetached(l.path)
	}
}

// Notify schedules a fresh snapshot for every listener related to path.
// Pending notifications coalesce: a listener only ever renders the latest state.
func (h *Hub) Notify(path string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, l := range h.listeners {
		if !Related(l.path, path) {
			continue
		}
		select {
		case l.kick <- struct{}{}:
		default:
		}
	}
}

// Active returns the number of attached listeners.
func (h *Hub) Active() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.kick:
		}

		snapshot, err := l.hub.read(ctx, l.path)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.hub.logger.Warn("snapshot read failed", zap.String("path", l.path), zap.Error(err))
			continue
		}
		l.deliver(ctx, snapshot)
	}
}

func (l *Listener) deliver(ctx context.Context, snapshot any) {
	defer func() {
		if r := recover(); r != nil {
			l.hub.logger.Error("snapshot handler panicked",
				zap.String("path", l.path),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	l.handler(ctx, snapshot)
	if l.hub.observer != nil {
		l.hub.observer.SnapshotDelivered(l.path)
	}
}
