package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-console/internal/api/dto"
	"github.com/spec-kit/inventory-console/internal/auth"
	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/guard"
	"github.com/spec-kit/inventory-console/internal/live"
)

// DashboardViews is the live dashboard as seen by handlers.
type DashboardViews interface {
	Current(ctx context.Context) (*live.View, error)
	Acquire() (<-chan *live.View, func())
}

var drawerPages = []guard.Page{guard.PageAdmin, guard.PageManager, guard.PageVolunteer}

// PagesHandler serves the page models.
type PagesHandler struct {
	dashboard DashboardViews
}

// NewPagesHandler constructs handler.
func NewPagesHandler(dashboard DashboardViews) *PagesHandler {
	return &PagesHandler{dashboard: dashboard}
}

type drawerLink struct {
	Page guard.Page `json:"page"`
	Path string     `json:"path"`
}

// PageModel is the drawer and footer shared by every page.
type PageModel struct {
	Page   guard.Page       `json:"page"`
	User   *dto.UserSummary `json:"user,omitempty"`
	Drawer []drawerLink     `json:"drawer"`
	Views  *live.View       `json:"views,omitempty"`
}

func pageModel(page guard.Page, user *domain.UserContext) PageModel {
	model := PageModel{Page: page, User: dto.NewUserSummary(user), Drawer: []drawerLink{}}
	for _, p := range drawerPages {
		if guard.Decide(p, user).Allow {
			model.Drawer = append(model.Drawer, drawerLink{Page: p, Path: p.Path()})
		}
	}
	return model
}

// Landing GET /.
func (h *PagesHandler) Landing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": pageModel(guard.PageLanding, auth.UserFromContext(c))})
}

// Unauthorized GET /unauthorized.
func (h *PagesHandler) Unauthorized(c *fiber.Ctx) error {
	model := pageModel(guard.PageUnauthorized, auth.UserFromContext(c))
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"data": model})
}

// Admin GET /admin.
func (h *PagesHandler) Admin(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": pageModel(guard.PageAdmin, auth.UserFromContext(c))})
}

// Volunteer GET /volunteer.
func (h *PagesHandler) Volunteer(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": pageModel(guard.PageVolunteer, auth.UserFromContext(c))})
}

// Manager GET /manager. The model carries the current table renders.
func (h *PagesHandler) Manager(c *fiber.Ctx) error {
	model := pageModel(guard.PageManager, auth.UserFromContext(c))
	view, err := h.dashboard.Current(c.UserContext())
	if err != nil {
		return err
	}
	model.Views = view
	return c.JSON(fiber.Map{"data": model})
}
