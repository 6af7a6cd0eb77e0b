package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/api/dto"
	"github.com/spec-kit/inventory-console/internal/auth"
	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/guard"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

// StatusSetter applies status changes to request entries.
type StatusSetter interface {
	SetStatus(ctx context.Context, actor string, loc domain.Locator, status domain.Status) (string, error)
}

// RequestsHandler exposes the live request tables and status changes.
type RequestsHandler struct {
	status    StatusSetter
	dashboard DashboardViews
	sessions  SessionWatcher
	logger    *zap.Logger
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(status StatusSetter, dashboard DashboardViews, sessions SessionWatcher, logger *zap.Logger) *RequestsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestsHandler{status: status, dashboard: dashboard, sessions: sessions, logger: logger}
}

// UpdateStatus POST /manager/requests/status.
func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	if user == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	message, err := h.status.SetStatus(c.UserContext(), user.Email, req.Locator(), domain.Status(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": message}})
}

// Stream GET /manager/stream. Each event is a full render of the tables. The
// stream ends when the session signs out or loses the manager page.
func (h *RequestsHandler) Stream(c *fiber.Ctx) error {
	g, err := newStreamGuard(c, guard.PageManager, h.sessions)
	if err != nil {
		return err
	}
	updates, release := h.dashboard.Acquire()
	return streamViews(c, h.logger, "dashboard", updates, release, g)
}
