package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/spec-kit/inventory-console/internal/domain"
)

type published struct {
	user *domain.UserContext
}

// State is the session context shared by the guard and the dashboards. It is
// replaced as a whole on every session change and never partially visible.
type State struct {
	value    atomic.Pointer[published]
	ready    chan struct{}
	once     sync.Once
	mu       sync.Mutex
	watchers map[chan *domain.UserContext]struct{}
}

// NewState returns a state that is not ready yet.
func NewState() *State {
	return &State{
		ready:    make(chan struct{}),
		watchers: make(map[chan *domain.UserContext]struct{}),
	}
}

// Publish replaces the user context. The first call resolves Ready.
func (s *State) Publish(user *domain.UserContext) {
	var snapshot *domain.UserContext
	if user != nil {
		copied := *user
		snapshot = &copied
	}
	s.value.Store(&published{user: snapshot})
	s.once.Do(func() { close(s.ready) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

// Ready is closed once the first context has been published.
func (s *State) Ready() <-chan struct{} {
	return s.ready
}

// Current returns the latest context and whether one was published.
func (s *State) Current() (*domain.UserContext, bool) {
	p := s.value.Load()
	if p == nil {
		return nil, false
	}
	return p.user, true
}

// Wait blocks until the first publish or ctx is done.
func (s *State) Wait(ctx context.Context) (*domain.UserContext, error) {
	select {
	case <-s.ready:
		user, _ := s.Current()
		return user, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Watch returns a channel holding the latest published context. Only the most
// recent value is kept. The returned func stops the watch.
func (s *State) Watch() (<-chan *domain.UserContext, func()) {
	ch := make(chan *domain.UserContext, 1)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()
	}
}
