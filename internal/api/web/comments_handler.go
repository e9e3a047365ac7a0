package web

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// CommentsHandler serves comment form posts. The thread itself is delivered
// with the ticket page, oldest entry first.
type CommentsHandler struct {
	service  *service.CommentService
	sessions *auth.SessionStore
	logger   *zap.Logger
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService, sessions *auth.SessionStore, logger *zap.Logger) *CommentsHandler {
	return &CommentsHandler{service: commentService, sessions: sessions, logger: logger}
}

// Create POST /tickets/:id/comments.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticketID := c.Params("id")
	if _, err := h.service.Create(c.UserContext(), principal, ticketID, req.Content); err != nil {
		return err
	}
	return redirectWithFlash(c, h.sessions, h.logger, "success", "Comment added successfully.", "/tickets/"+ticketID)
}

// Update PUT /comments/:id.
func (h *CommentsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.Update(c.UserContext(), principal, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return redirectWithFlash(c, h.sessions, h.logger, "success", "Comment updated successfully.", "/tickets/"+comment.TicketID)
}

// Delete DELETE /comments/:id.
func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return redirectWithFlash(c, h.sessions, h.logger, "success", "Comment deleted successfully.", backLocation(c, "/tickets"))
}
