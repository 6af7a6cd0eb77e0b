package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/auth"
	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/guard"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

const keepAliveInterval = 15 * time.Second

// SessionWatcher follows the context of a signed-in session.
type SessionWatcher interface {
	Current(ctx context.Context, sessionID string) (*domain.UserContext, error)
	Watch(sessionID string) (<-chan *domain.UserContext, func())
}

// streamGuard ends a stream once its session no longer passes the page guard.
type streamGuard struct {
	page      guard.Page
	sessionID string
	sessions  SessionWatcher
	changes   <-chan *domain.UserContext
	stop      func()
}

func newStreamGuard(c *fiber.Ctx, page guard.Page, sessions SessionWatcher) (*streamGuard, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	changes, stop := sessions.Watch(principal.SessionID)
	return &streamGuard{page: page, sessionID: principal.SessionID, sessions: sessions, changes: changes, stop: stop}, nil
}

func (g *streamGuard) allows(user *domain.UserContext) bool {
	return guard.Decide(g.page, user).Allow
}

// revalidate re-reads the session. A failed read keeps the stream open.
func (g *streamGuard) revalidate(logger *zap.Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	user, err := g.sessions.Current(ctx, g.sessionID)
	if err != nil {
		logger.Warn("stream session check failed", zap.String("session_id", g.sessionID), zap.Error(err))
		return true
	}
	return g.allows(user)
}

// streamViews writes every value received on updates as a server-sent event
// until the client goes away or the session loses access. stop is called once
// the stream ends.
func streamViews[T any](c *fiber.Ctx, logger *zap.Logger, event string, updates <-chan T, stop func(), g *streamGuard) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer stop()
		defer g.stop()
		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		pumpEvents(w, logger, event, updates, g, ticker.C)
	}))
	return nil
}

func pumpEvents[T any](w *bufio.Writer, logger *zap.Logger, event string, updates <-chan T, g *streamGuard, tick <-chan time.Time) {
	for {
		select {
		case view, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(view)
			if err != nil {
				logger.Error("encode stream event", zap.String("event", event), zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
		case user := <-g.changes:
			if !g.allows(user) {
				endStream(w)
				return
			}
			continue
		case <-tick:
			if !g.revalidate(logger) {
				endStream(w)
				return
			}
			fmt.Fprint(w, ": keepalive\n\n")
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func endStream(w *bufio.Writer) {
	fmt.Fprint(w, "event: end\ndata: {}\n\n")
	_ = w.Flush()
}
