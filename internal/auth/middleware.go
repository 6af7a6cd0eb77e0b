package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-console/internal/domain"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"

	// SessionCookie carries the session token for browser clients.
	SessionCookie = "session"
)

// Principal represents the caller behind a session token. User is nil when the
// session no longer exists.
type Principal struct {
	SessionID string
	User      *domain.UserContext
}

// SessionSource resolves session ids into user contexts.
type SessionSource interface {
	Current(ctx context.Context, sessionID string) (*domain.UserContext, error)
	Refresh(ctx context.Context, sessionID string) (*domain.UserContext, error)
}

// AuthMiddleware reads the session token and loads the principal. Requests
// without a token pass through anonymously; page guards decide what they see.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions SessionSource
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions SessionSource) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions}
}

// Handle loads the principal for the request. Page loads re-resolve the
// session so role changes take effect on navigation.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := extractToken(c)
	if err != nil {
		return err
	}
	if token == "" {
		return c.Next()
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		clearSessionCookie(c)
		return c.Next()
	}

	resolve := m.sessions.Current
	if c.Method() == fiber.MethodGet && !isStream(c) {
		resolve = m.sessions.Refresh
	}
	user, err := resolve(c.UserContext(), claims.SessionID)
	if err != nil {
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{SessionID: claims.SessionID, User: user})
	return c.Next()
}

func extractToken(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", apperrors.NewUnauthorized("invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	return c.Cookies(SessionCookie), nil
}

func isStream(c *fiber.Ctx) bool {
	return strings.HasSuffix(c.Path(), "/stream") || strings.Contains(c.Get(fiber.HeaderAccept), "text/event-stream")
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// UserFromContext returns the resolved user, or nil for anonymous callers.
func UserFromContext(c *fiber.Ctx) *domain.UserContext {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return nil
	}
	return principal.User
}

// SetSessionCookie stores token for browser clients.
func SetSessionCookie(c *fiber.Ctx, token string, maxAge int, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	if c.Cookies(SessionCookie) == "" {
		return
	}
	c.ClearCookie(SessionCookie)
}
