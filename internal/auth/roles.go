package auth

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-console/internal/guard"
)

// SignOuter ends a session.
type SignOuter interface {
	SignOut(ctx context.Context, sessionID string) error
}

// RequirePage runs the page guard before any handler behind it reads data.
// Denied requests are redirected with 303; role-less sessions are signed out first.
func RequirePage(page guard.Page, signer SignOuter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		user := UserFromContext(c)

		decision := guard.Decide(page, user)
		if decision.SignOut && principal != nil {
			if err := signer.SignOut(c.UserContext(), principal.SessionID); err != nil {
				return err
			}
			clearSessionCookie(c)
			c.Locals(principalKey, nil)
		}
		if decision.Allow {
			return c.Next()
		}
		return c.Redirect(decision.Redirect, http.StatusSeeOther)
	}
}

// RequireSession ensures the caller holds a live session.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
