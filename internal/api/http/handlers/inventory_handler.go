package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-console/internal/api/dto"
	"github.com/spec-kit/inventory-console/internal/inventory"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

// StockSheet is the inventory source as seen by handlers.
type StockSheet interface {
	Link(ctx context.Context) (string, error)
	SaveLink(ctx context.Context, url string) error
	DeleteLink(ctx context.Context) error
	Table(ctx context.Context) ([]inventory.Row, error)
}

// InventoryHandler manages the stock sheet link and table.
type InventoryHandler struct {
	sheet StockSheet
}

// NewInventoryHandler constructs handler.
func NewInventoryHandler(sheet StockSheet) *InventoryHandler {
	return &InventoryHandler{sheet: sheet}
}

// Link GET /manager/inventory/link.
func (h *InventoryHandler) Link(c *fiber.Ctx) error {
	link, err := h.sheet.Link(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"link": link}})
}

// SaveLink POST /manager/inventory/link.
func (h *InventoryHandler) SaveLink(c *fiber.Ctx) error {
	var req dto.InventoryLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.sheet.SaveLink(c.UserContext(), req.Link); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "Inventory link saved successfully!"}})
}

// DeleteLink DELETE /manager/inventory/link.
func (h *InventoryHandler) DeleteLink(c *fiber.Ctx) error {
	if err := h.sheet.DeleteLink(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "Inventory link removed from Database"}})
}

// Table GET /manager/inventory.
func (h *InventoryHandler) Table(c *fiber.Ctx) error {
	rows, err := h.sheet.Table(c.UserContext())
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []inventory.Row{}
	}
	return c.JSON(fiber.Map{"data": rows})
}
