package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-console/internal/api/dto"
	"github.com/spec-kit/inventory-console/internal/auth"
	"github.com/spec-kit/inventory-console/internal/service"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

// LoginFlow signs callers in and out.
type LoginFlow interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler exposes sign-in and sign-out.
type AuthHandler struct {
	login        LoginFlow
	secureCookie bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(login LoginFlow, secureCookie bool) *AuthHandler {
	return &AuthHandler{login: login, secureCookie: secureCookie}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.login.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	auth.SetSessionCookie(c, result.Token, maxAge, h.secureCookie)
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Title:    result.Title,
		Message:  result.Message,
		Redirect: result.Redirect,
		User:     result.User,
		Auth:     dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
	}})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	if err := h.login.Logout(c.UserContext(), principal.SessionID); err != nil {
		return err
	}
	c.ClearCookie(auth.SessionCookie)
	return c.JSON(fiber.Map{"data": fiber.Map{"redirect": "/"}})
}
