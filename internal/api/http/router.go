package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/inventory-console/internal/api/http/handlers"
	"github.com/spec-kit/inventory-console/internal/auth"
	"github.com/spec-kit/inventory-console/internal/guard"
	"github.com/spec-kit/inventory-console/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Pages          *handlers.PagesHandler
	Requests       *handlers.RequestsHandler
	Inventory      *handlers.InventoryHandler
	Chat           *handlers.ChatHandler
	AuthMiddleware *auth.AuthMiddleware
	SignOut        auth.SignOuter
	LoginLimiter   *RateLimiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Use(cfg.AuthMiddleware.Handle)

	authGroup := app.Group("/auth")
	login := []fiber.Handler{cfg.Auth.Login}
	if cfg.LoginLimiter != nil {
		login = append([]fiber.Handler{cfg.LoginLimiter.ByIP()}, login...)
	}
	authGroup.Post("/login", login...)
	authGroup.Post("/logout", auth.RequireSession(), cfg.Auth.Logout)

	app.Get(guard.LandingPath, auth.RequirePage(guard.PageLanding, cfg.SignOut), cfg.Pages.Landing)
	app.Get(guard.UnauthorizedPath, auth.RequirePage(guard.PageUnauthorized, cfg.SignOut), cfg.Pages.Unauthorized)
	app.Get("/admin", auth.RequirePage(guard.PageAdmin, cfg.SignOut), cfg.Pages.Admin)
	app.Get("/volunteer", auth.RequirePage(guard.PageVolunteer, cfg.SignOut), cfg.Pages.Volunteer)

	manager := app.Group("/manager", auth.RequirePage(guard.PageManager, cfg.SignOut))
	manager.Get("", cfg.Pages.Manager)
	manager.Get("/stream", cfg.Requests.Stream)
	manager.Post("/requests/status", cfg.Requests.UpdateStatus)

	manager.Get("/inventory", cfg.Inventory.Table)
	manager.Get("/inventory/link", cfg.Inventory.Link)
	manager.Post("/inventory/link", cfg.Inventory.SaveLink)
	manager.Delete("/inventory/link", cfg.Inventory.DeleteLink)

	manager.Get("/chat", cfg.Chat.View)
	manager.Get("/chat/stream", cfg.Chat.Stream)
	manager.Post("/chat/select", cfg.Chat.SelectUser)
	manager.Post("/chat/messages/:ts/select", cfg.Chat.SelectMessage)
	manager.Put("/chat/input", cfg.Chat.SetInput)
	manager.Post("/chat/reply", cfg.Chat.Reply)
	manager.Delete("/chat", cfg.Chat.Delete)
	manager.Post("/chat/leave", cfg.Chat.Leave)
}
