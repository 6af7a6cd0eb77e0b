package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/events"
)

// Manager keeps one conversation per operator session.
type Manager struct {
	store      Store
	dispatcher events.Dispatcher
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger

	mu            sync.Mutex
	conversations map[string]*Conversation
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the reply timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDispatcher publishes reply and delete events.
func WithDispatcher(d events.Dispatcher) Option {
	return func(m *Manager) { m.dispatcher = d }
}

// NewManager builds a manager.
func NewManager(s Store, loc *time.Location, logger *zap.Logger, opts ...Option) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		store:         s,
		loc:           loc,
		now:           time.Now,
		logger:        logger,
		conversations: make(map[string]*Conversation),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Conversation returns the session's conversation, creating it on first use.
func (m *Manager) Conversation(sessionID, operator string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[sessionID]
	if !ok {
		c = newConversation(m, operator)
		m.conversations[sessionID] = c
	}
	return c
}

// Close detaches and forgets a session's conversation.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	c, ok := m.conversations[sessionID]
	delete(m.conversations, sessionID)
	m.mu.Unlock()
	if ok {
		c.Leave()
	}
}

// HandleSessionChange closes the conversation of a signed-out session.
func (m *Manager) HandleSessionChange(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SessionChangedPayload)
	if !ok || payload.Identity != nil {
		return nil
	}
	m.Close(payload.SessionID)
	return nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
