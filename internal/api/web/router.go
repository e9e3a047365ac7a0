package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/auth"
)

// Router wires the interactive surface. Every route sits behind the session
// middleware; category management additionally requires the admin role.
type Router struct {
	Auth        *auth.Middleware
	Dashboard   *DashboardHandler
	Tickets     *TicketsHandler
	Categories  *CategoriesHandler
	Comments    *CommentsHandler
	Messages    *MessagesHandler
	Attachments *AttachmentsHandler
}

// Register mounts all routes on the app.
func (r *Router) Register(app *fiber.App) {
	session := r.Auth.Session

	app.Get("/dashboard", session, r.Dashboard.Show)

	app.Get("/tickets", session, r.Tickets.Index)
	app.Get("/tickets/new", session, r.Tickets.New)
	app.Post("/tickets", session, r.Tickets.Create)
	app.Get("/tickets/:id", session, r.Tickets.Show)
	app.Get("/tickets/:id/edit", session, r.Tickets.Edit)
	app.Put("/tickets/:id", session, r.Tickets.Update)
	app.Delete("/tickets/:id", session, r.Tickets.Delete)

	app.Post("/tickets/:id/comments", session, r.Comments.Create)
	app.Put("/comments/:id", session, r.Comments.Update)
	app.Delete("/comments/:id", session, r.Comments.Delete)

	app.Get("/tickets/:id/messages", session, r.Messages.List)
	app.Post("/tickets/:id/messages", session, r.Messages.Send)
	app.Get("/messages/unread-count", session, r.Messages.UnreadCount)

	app.Get("/categories", session, auth.RequireAdmin(), r.Categories.Index)
	app.Post("/categories", session, auth.RequireAdmin(), r.Categories.Create)
	app.Put("/categories/:id", session, auth.RequireAdmin(), r.Categories.Update)
	app.Delete("/categories/:id", session, auth.RequireAdmin(), r.Categories.Delete)

	app.Get("/attachments/*", session, auth.RequireAuthenticated(), r.Attachments.Download)
}
