package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// socketIDHeader names the sender's live connection; fan-out skips it so the
// chat pane never sees its own message twice.
const socketIDHeader = "X-Socket-ID"

// MessagesHandler serves the chat pane. Unlike the rest of this surface the
// chat talks JSON over XHR, not form posts, so no redirects here.
type MessagesHandler struct {
	service *service.MessageService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messageService *service.MessageService) *MessagesHandler {
	return &MessagesHandler{service: messageService}
}

// List GET /tickets/:id/messages. Marks everyone else's messages read.
func (h *MessagesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	messages, err := h.service.List(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, dto.FromMessage(&messages[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Send POST /tickets/:id/messages.
func (h *MessagesHandler) Send(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	msg, err := h.service.Send(c.UserContext(), principal, c.Params("id"), req.Message, c.Get(socketIDHeader))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromMessage(msg)})
}

// UnreadCount GET /messages/unread-count. Feeds the navigation badge.
func (h *MessagesHandler) UnreadCount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	count, err := h.service.UnreadCount(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(dto.UnreadCountResponse{UnreadCount: count})
}
