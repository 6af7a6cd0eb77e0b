package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/events"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

// Restorer reads and re-announces persisted sessions. Both return nil when
// the session no longer exists.
type Restorer interface {
	Restore(ctx context.Context, sessionID string) (*domain.Identity, error)
	Lookup(ctx context.Context, sessionID string) (*domain.Identity, error)
}

// Registry holds one State per session id and keeps it current with session changes.
type Registry struct {
	mu       sync.Mutex
	states   map[string]*State
	resolver *Resolver
	restorer Restorer
	logger   *zap.Logger
	onExpire []func(sessionID string)
}

// NewRegistry builds a registry. Register HandleSessionChange with the identity provider.
func NewRegistry(resolver *Resolver, restorer Restorer, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		states:   make(map[string]*State),
		resolver: resolver,
		restorer: restorer,
		logger:   logger,
	}
}

// HandleSessionChange resolves the identity in the event and publishes it.
func (r *Registry) HandleSessionChange(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SessionChangedPayload)
	if !ok {
		return nil
	}
	user := r.resolver.Resolve(ctx, payload.Identity)
	state := r.state(payload.SessionID, payload.Identity != nil)
	if state == nil {
		return nil
	}
	state.Publish(user)
	if payload.Identity == nil {
		r.mu.Lock()
		delete(r.states, payload.SessionID)
		r.mu.Unlock()
	}
	r.logger.Debug("session resolved",
		zap.String("session_id", payload.SessionID),
		zap.Bool("signed_in", user != nil),
		zap.String("role", roleOf(user)))
	return nil
}

// State returns the live state for a session, if one is tracked.
func (r *Registry) State(sessionID string) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[sessionID]
	return state, ok
}

// OnExpire registers fn to run when a tracked session is found to be gone
// from the session store without a sign-out event. Register before serving.
func (r *Registry) OnExpire(fn func(sessionID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpire = append(r.onExpire, fn)
}

// Current returns the resolved context for a session, restoring a persisted
// session this instance has not seen yet. A tracked session is checked against
// the session store first. Nil means no session.
func (r *Registry) Current(ctx context.Context, sessionID string) (*domain.UserContext, error) {
	if sessionID == "" {
		return nil, nil
	}
	state, ok := r.State(sessionID)
	if !ok {
		return r.Refresh(ctx, sessionID)
	}
	identity, err := r.restorer.Lookup(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewDataFetchFailure("session", err)
	}
	if identity == nil {
		r.expire(sessionID)
		return nil, nil
	}
	return state.Wait(ctx)
}

// Refresh re-resolves a session from the identity provider, as happens on every page load.
func (r *Registry) Refresh(ctx context.Context, sessionID string) (*domain.UserContext, error) {
	if sessionID == "" {
		return nil, nil
	}
	identity, err := r.restorer.Restore(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		r.expire(sessionID)
		return nil, nil
	}
	state, ok := r.State(sessionID)
	if !ok {
		return nil, nil
	}
	return state.Wait(ctx)
}

// Watch follows the context of a session. An untracked session yields a
// single nil.
func (r *Registry) Watch(sessionID string) (<-chan *domain.UserContext, func()) {
	state, ok := r.State(sessionID)
	if !ok {
		ch := make(chan *domain.UserContext, 1)
		ch <- nil
		return ch, func() {}
	}
	return state.Watch()
}

// expire drops a session whose persisted record is gone and tells its watchers.
func (r *Registry) expire(sessionID string) {
	r.mu.Lock()
	state, ok := r.states[sessionID]
	delete(r.states, sessionID)
	hooks := append([]func(string){}, r.onExpire...)
	r.mu.Unlock()
	if !ok {
		return
	}

	state.Publish(nil)
	for _, fn := range hooks {
		fn(sessionID)
	}
	r.logger.Info("session expired", zap.String("session_id", sessionID))
}

func (r *Registry) state(sessionID string, create bool) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[sessionID]
	if !ok && create {
		state = NewState()
		r.states[sessionID] = state
	}
	return state
}

func roleOf(user *domain.UserContext) string {
	if user == nil {
		return ""
	}
	return string(user.RoleKey)
}
