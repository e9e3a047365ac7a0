package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// Router wires the programmatic surface under /api, plus health probes and
// the websocket endpoints shared by both surfaces.
type Router struct {
	Auth       *auth.Middleware
	Health     *handlers.HealthHandler
	Categories *handlers.CategoriesHandler
	Tickets    *handlers.TicketsHandler
	Comments   *handlers.CommentsHandler
	Messages   *handlers.MessagesHandler
	Realtime   *handlers.RealtimeHandler
}

// Register mounts all routes on the app.
func (r *Router) Register(app *fiber.App) {
	app.Get("/health/live", r.Health.Live)
	app.Get("/health/ready", r.Health.Ready)

	api := app.Group("/api", r.Auth.Bearer)

	categories := api.Group("/categories")
	categories.Get("/", r.Categories.List)
	categories.Get("/:id", r.Categories.Get)
	categories.Post("/", auth.RequireAdmin(), r.Categories.Create)
	categories.Put("/:id", auth.RequireAdmin(), r.Categories.Update)
	categories.Delete("/:id", auth.RequireAdmin(), r.Categories.Delete)

	tickets := api.Group("/tickets")
	tickets.Get("/", r.Tickets.List)
	tickets.Post("/", r.Tickets.Create)
	tickets.Get("/:id", r.Tickets.Get)
	tickets.Put("/:id", r.Tickets.Update)
	tickets.Delete("/:id", r.Tickets.Delete)

	tickets.Get("/:id/comments", r.Comments.List)
	tickets.Post("/:id/comments", r.Comments.Create)
	api.Put("/comments/:id", r.Comments.Update)
	api.Delete("/comments/:id", r.Comments.Delete)

	tickets.Get("/:id/messages", r.Messages.List)
	tickets.Post("/:id/messages", r.Messages.Send)
	api.Get("/messages/unread-count", r.Messages.UnreadCount)

	ws := app.Group("/ws", r.Realtime.Upgrade, r.Auth.Any)
	ws.Get("/tickets/:id", r.Realtime.TicketGate, r.Realtime.Serve())
	ws.Get("/notifications", r.Realtime.NotificationsGate, r.Realtime.Serve())
}
