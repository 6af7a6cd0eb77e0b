// Package chat runs the mentor support conversations operators reply to.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/events"
	"github.com/spec-kit/inventory-console/internal/store"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

// Operator-facing validation messages.
const (
	MsgSelectUser    = "Select a user first."
	MsgSelectMessage = "Select a user message to reply to."
	MsgEnterReply    = "Enter a reply."
	MsgReplyFailed   = "Failed to send reply."
	MsgDeleteFailed  = "Delete failed."
)

// Store is the part of the request store a conversation uses.
type Store interface {
	Subscribe(path string, handler store.Handler) *store.Listener
	Update(ctx context.Context, path string, fields map[string]any) error
	Remove(ctx context.Context, path string) error
}

// View is one immutable render of a conversation.
type View struct {
	Version         uint64 `json:"version"`
	User            string `json:"user,omitempty"`
	Header          string `json:"header"`
	Items           []Item `json:"items"`
	Note            string `json:"note,omitempty"`
	SelectedMessage string `json:"selected_message,omitempty"`
	Input           string `json:"input"`
	InputEnabled    bool   `json:"input_enabled"`
	DeleteVisible   bool   `json:"delete_visible"`
}

// Conversation is one operator's chat pane. At most one history listener is
// attached at any time.
type Conversation struct {
	store      Store
	dispatcher events.Dispatcher
	operator   string
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger

	// ops serializes operations that attach or detach the listener.
	ops sync.Mutex

	mu       sync.Mutex
	gen      uint64
	version  uint64
	listener *store.Listener
	user     string
	selected string
	awaiting string
	input    string
	msgs     []message
	loaded   bool
	view     *View
	watchers map[chan *View]struct{}
	streams  int
}

func newConversation(m *Manager, operator string) *Conversation {
	c := &Conversation{
		store:      m.store,
		dispatcher: m.dispatcher,
		operator:   operator,
		loc:        m.loc,
		now:        m.now,
		logger:     m.logger.With(zap.String("operator", operator)),
		watchers:   make(map[chan *View]struct{}),
	}
	c.mu.Lock()
	c.publishLocked()
	c.mu.Unlock()
	return c
}

func historyPath(email string) string {
	return store.Join(domain.RequestsRoot, email, domain.MentorSupportID, domain.HistoryCollection)
}

// SelectUser switches the pane to email. The previous listener is detached
// before the new one is attached.
func (c *Conversation) SelectUser(email string) error {
	if !store.ValidSegment(email) {
		return apperrors.NewValidationError(MsgSelectUser, map[string]any{"user": email})
	}
	c.ops.Lock()
	defer c.ops.Unlock()

	c.detach()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.user = email
	c.selected = ""
	c.awaiting = ""
	c.msgs = nil
	c.loaded = false
	c.publishLocked()
	c.listener = c.store.Subscribe(historyPath(email), func(ctx context.Context, snapshot any) {
		c.handle(gen, snapshot)
	})
	c.mu.Unlock()

	c.logger.Debug("chat user selected", zap.String("user", email))
	return nil
}

// SelectMessage marks the message at ts as the reply target.
func (c *Conversation) SelectMessage(ts string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == "" {
		return apperrors.NewValidationError(MsgSelectUser, nil)
	}
	if !hasQuery(c.msgs, ts) {
		return apperrors.NewNotFound("message", map[string]any{"ts": ts})
	}
	c.selected = ts
	c.publishLocked()
	return nil
}

// SetInput stores the draft reply.
func (c *Conversation) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
	c.publishLocked()
}

// Reply writes text as the solution of the selected message. The reply shows
// up once the store reports the change.
func (c *Conversation) Reply(ctx context.Context, text string) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	user, ts := c.user, c.selected
	if text == "" {
		text = c.input
	}
	c.mu.Unlock()

	switch {
	case user == "":
		return apperrors.NewValidationError(MsgSelectUser, nil)
	case ts == "":
		return apperrors.NewValidationError(MsgSelectMessage, nil)
	}
	text = trimmed(text)
	if text == "" {
		return apperrors.NewValidationError(MsgEnterReply, nil)
	}

	path := store.Join(historyPath(user), ts)
	if err := c.store.Update(ctx, path, map[string]any{
		"solution": text,
		"time":     c.now().UnixMilli(),
	}); err != nil {
		c.logger.Error("chat reply failed", zap.String("user", user), zap.String("ts", ts), zap.Error(err))
		return apperrors.NewWriteFailure(MsgReplyFailed, err)
	}

	c.mu.Lock()
	if c.user == user {
		c.input = ""
		c.selected = ""
		c.awaiting = ts
		c.autoSelectLocked()
		c.publishLocked()
	}
	c.mu.Unlock()

	c.publish(ctx, events.EventChatReplied, user, events.ChatRepliedPayload{
		Owner:           user,
		MessageTS:       ts,
		SolutionPreview: preview(text),
	})
	return nil
}

// DeletePrompt is the confirmation shown before deleting a conversation.
func DeletePrompt(email string) string {
	return fmt.Sprintf("Delete entire chat history for %s? This cannot be undone.", email)
}

// Delete removes the selected user's whole support conversation. It is a
// no-op until confirmed.
func (c *Conversation) Delete(ctx context.Context, confirmed bool) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	if user == "" {
		return apperrors.NewValidationError(MsgSelectUser, nil)
	}
	if !confirmed {
		return apperrors.NewValidationError(DeletePrompt(user), map[string]any{"confirm": "required"})
	}

	if err := c.store.Remove(ctx, store.Join(domain.RequestsRoot, user, domain.MentorSupportID)); err != nil {
		c.logger.Error("chat delete failed", zap.String("user", user), zap.Error(err))
		return apperrors.NewWriteFailure(MsgDeleteFailed, err)
	}
	c.reset()
	c.logger.Info("chat deleted", zap.String("user", user))

	c.publish(ctx, events.EventChatDeleted, user, events.ChatDeletedPayload{Owner: user})
	return nil
}

// Leave detaches the listener and clears all selection state.
func (c *Conversation) Leave() {
	c.ops.Lock()
	defer c.ops.Unlock()
	c.reset()
}

// View returns the latest render.
func (c *Conversation) View() *View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Watch returns a channel holding the latest render. The returned func stops the watch.
func (c *Conversation) Watch() (<-chan *View, func()) {
	ch := make(chan *View, 1)
	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	ch <- c.view
	c.mu.Unlock()
	return ch, func() {
		c.mu.Lock()
		delete(c.watchers, ch)
		c.mu.Unlock()
	}
}

// Attach registers an open stream on the pane. The returned release leaves
// the pane when the last stream ends.
func (c *Conversation) Attach() func() {
	c.mu.Lock()
	c.streams++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(c.releaseStream)
	}
}

func (c *Conversation) releaseStream() {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	c.streams--
	idle := c.streams == 0
	c.mu.Unlock()
	if idle {
		c.reset()
		c.logger.Debug("chat pane left")
	}
}

// reset must be called with ops held.
func (c *Conversation) reset() {
	c.detach()
	c.mu.Lock()
	c.gen++
	c.user = ""
	c.selected = ""
	c.awaiting = ""
	c.input = ""
	c.msgs = nil
	c.loaded = false
	c.publishLocked()
	c.mu.Unlock()
}

// detach must be called with ops held and mu released.
func (c *Conversation) detach() {
	c.mu.Lock()
	l := c.listener
	c.listener = nil
	c.gen++
	c.mu.Unlock()
	l.Off()
}

func (c *Conversation) handle(gen uint64, snapshot any) {
	msgs := messages(snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.msgs = msgs
	c.loaded = true
	if c.awaiting != "" && !pending(msgs, c.awaiting) {
		c.awaiting = ""
	}
	if c.selected != "" && !hasQuery(msgs, c.selected) {
		c.selected = ""
	}
	c.autoSelectLocked()
	c.publishLocked()
}

func (c *Conversation) autoSelectLocked() {
	if c.selected != "" {
		return
	}
	for i := len(c.msgs) - 1; i >= 0; i-- {
		m := c.msgs[i]
		if m.entry.Query != "" && m.entry.Solution == "" && m.ts != c.awaiting {
			c.selected = m.ts
			return
		}
	}
}

func (c *Conversation) publishLocked() {
	c.version++
	view := &View{
		Version:         c.version,
		User:            c.user,
		Header:          NoUserHeader,
		Items:           []Item{},
		SelectedMessage: c.selected,
		Input:           c.input,
		InputEnabled:    c.user != "" && c.selected != "",
		DeleteVisible:   c.user != "",
	}
	if c.user != "" {
		name, roll := domain.SplitEmail(c.user)
		view.Header = fmt.Sprintf("Chat – %s (%s)", name, roll)
		view.Items = render(c.msgs, c.selected, c.loc)
		if c.loaded && len(c.msgs) == 0 {
			view.Note = EmptyThreadNote
		}
	}
	c.view = view
	for ch := range c.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- view
	}
}

func (c *Conversation) publish(ctx context.Context, typ events.EventType, subject string, payload any) {
	if c.dispatcher == nil {
		return
	}
	if err := c.dispatcher.Publish(ctx, events.Event{Type: typ, Subject: subject, Actor: c.operator, Payload: payload}); err != nil {
		c.logger.Warn("chat event handlers failed", zap.String("event", string(typ)), zap.Error(err))
	}
}

func pending(msgs []message, ts string) bool {
	for _, m := range msgs {
		if m.ts == ts {
			return m.entry.Solution == ""
		}
	}
	return false
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= 80 {
		return text
	}
	return string(runes[:80]) + "…"
}
