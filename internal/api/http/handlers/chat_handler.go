package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/api/dto"
	"github.com/spec-kit/inventory-console/internal/auth"
	"github.com/spec-kit/inventory-console/internal/chat"
	"github.com/spec-kit/inventory-console/internal/guard"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

// ChatHandler drives the caller's support chat pane.
type ChatHandler struct {
	manager  *chat.Manager
	sessions SessionWatcher
	logger   *zap.Logger
}

// NewChatHandler constructs handler.
func NewChatHandler(manager *chat.Manager, sessions SessionWatcher, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{manager: manager, sessions: sessions, logger: logger}
}

func (h *ChatHandler) conversation(c *fiber.Ctx) (*chat.Conversation, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return h.manager.Conversation(principal.SessionID, principal.User.Email), nil
}

func viewResponse(c *fiber.Ctx, conv *chat.Conversation) error {
	return c.JSON(fiber.Map{"data": conv.View()})
}

// View GET /manager/chat.
func (h *ChatHandler) View(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	return viewResponse(c, conv)
}

// Stream GET /manager/chat/stream. The pane is left when its last stream ends.
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	g, err := newStreamGuard(c, guard.PageManager, h.sessions)
	if err != nil {
		return err
	}
	release := conv.Attach()
	updates, stopWatch := conv.Watch()
	return streamViews(c, h.logger, "chat", updates, func() {
		stopWatch()
		release()
	}, g)
}

// SelectUser POST /manager/chat/select.
func (h *ChatHandler) SelectUser(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	var req dto.ChatSelectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return apperrors.NewValidationError(chat.MsgSelectUser, nil)
	}
	if err := conv.SelectUser(req.Email); err != nil {
		return err
	}
	return viewResponse(c, conv)
}

// SelectMessage POST /manager/chat/messages/:ts/select.
func (h *ChatHandler) SelectMessage(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	if err := conv.SelectMessage(c.Params("ts")); err != nil {
		return err
	}
	return viewResponse(c, conv)
}

// SetInput PUT /manager/chat/input.
func (h *ChatHandler) SetInput(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	var req dto.ChatInputRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	conv.SetInput(req.Text)
	return viewResponse(c, conv)
}

// Reply POST /manager/chat/reply.
func (h *ChatHandler) Reply(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	var req dto.ChatReplyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if err := conv.Reply(c.UserContext(), req.Text); err != nil {
		return err
	}
	return viewResponse(c, conv)
}

// Delete DELETE /manager/chat?confirm=true.
func (h *ChatHandler) Delete(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	if err := conv.Delete(c.UserContext(), c.QueryBool("confirm")); err != nil {
		return err
	}
	return viewResponse(c, conv)
}

// Leave POST /manager/chat/leave.
func (h *ChatHandler) Leave(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}
	conv.Leave()
	return c.SendStatus(fiber.StatusNoContent)
}
