package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/guard"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

type fakeSessions struct {
	users     map[string]*domain.UserContext
	refreshes int
	signedOut []string
}

func (f *fakeSessions) Current(_ context.Context, sid string) (*domain.UserContext, error) {
	return f.users[sid], nil
}

func (f *fakeSessions) Refresh(ctx context.Context, sid string) (*domain.UserContext, error) {
	f.refreshes++
	return f.Current(ctx, sid)
}

func (f *fakeSessions) SignOut(_ context.Context, sid string) error {
	f.signedOut = append(f.signedOut, sid)
	delete(f.users, sid)
	return nil
}

func guardedApp(t *testing.T) (*fiber.App, *TokenManager, *fakeSessions) {
	t.Helper()
	tokens := NewTokenManager("test-secret", time.Hour)
	sessions := &fakeSessions{users: map[string]*domain.UserContext{
		"sid-mgr":  {Email: "mgr@presidencyuniversity.in", RoleKey: domain.RoleSecondary},
		"sid-none": {Email: "new@presidencyuniversity.in", RoleKey: domain.RoleNone},
	}}
	mw := NewAuthMiddleware(tokens, sessions)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	app.Use(mw.Handle)
	app.Get("/manager", RequirePage(guard.PageManager, sessions), func(c *fiber.Ctx) error {
		return c.SendString(UserFromContext(c).Email)
	})
	app.Get("/admin", RequirePage(guard.PageAdmin, sessions), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app, tokens, sessions
}

func tokenFor(t *testing.T, tokens *TokenManager, sid string) string {
	t.Helper()
	token, _, err := tokens.GenerateToken(sid, "x@presidencyuniversity.in")
	require.NoError(t, err)
	return token
}

func TestRequirePageAllowsMatchingRole(t *testing.T) {
	app, tokens, sessions := guardedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/manager", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, tokens, "sid-mgr"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, sessions.refreshes)
}

func TestRequirePageRedirectsWrongRole(t *testing.T) {
	app, tokens, _ := guardedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tokenFor(t, tokens, "sid-mgr")})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/unauthorized", resp.Header.Get("Location"))
}

func TestRequirePageSignsOutRolelessSession(t *testing.T) {
	app, tokens, sessions := guardedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/manager", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, tokens, "sid-none"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Equal(t, []string{"sid-none"}, sessions.signedOut)
}

func TestRequirePageRedirectsAnonymous(t *testing.T) {
	app, _, _ := guardedApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/manager", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	app, _, _ := guardedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/manager", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
