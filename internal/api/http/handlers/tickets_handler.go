package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/api/upload"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

const apiPageSize = 15

// TicketsHandler manages ticket endpoints on the programmatic surface.
type TicketsHandler struct {
	service       *service.TicketService
	maxUploadSize int64
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, maxUploadSize int64) *TicketsHandler {
	return &TicketsHandler{service: ticketService, maxUploadSize: maxUploadSize}
}

// List GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := service.TicketListFilter{
		Page:     c.QueryInt("page", 1),
		PageSize: apiPageSize,
	}
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := domain.TicketPriority(v)
		filter.Priority = &priority
	}
	if v := c.Query("category_id"); v != "" {
		categoryID := v
		filter.CategoryID = &categoryID
	}

	page, err := h.service.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.FromTicket(&page.Items[i]))
	}
	return c.JSON(dto.TicketPageResponse{
		Data:     items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// Create POST /api/tickets. Accepts JSON or multipart with an optional
// attachment; on this surface the upload is capped by size only.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	file, closeUpload, err := upload.ParseAttachment(c, upload.Policy{MaxBytes: h.maxUploadSize})
	if err != nil {
		return err
	}
	defer closeUpload()

	ticket, err := h.service.Create(c.UserContext(), principal, service.TicketCreateInput{
		CategoryID:   req.CategoryID,
		Subject:      req.Subject,
		Description:  req.Description,
		Priority:     req.Priority,
		TargetUserID: req.UserID,
		Attachment:   file,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "ticket created",
		"data":    dto.FromTicketDetail(ticket),
	})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicketDetail(ticket)})
}

// Update PUT /api/tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	file, closeUpload, err := upload.ParseAttachment(c, upload.Policy{MaxBytes: h.maxUploadSize})
	if err != nil {
		return err
	}
	defer closeUpload()

	input := service.TicketUpdateInput{
		CategoryID:  req.CategoryID,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
		Attachment:  file,
	}
	// An explicit empty assigned_to unassigns the ticket.
	if req.AssignedTo != nil && *req.AssignedTo == "" {
		input.AssignedTo = nil
		input.ClearAssignee = true
	}

	ticket, err := h.service.Update(c.UserContext(), principal, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "ticket updated",
		"data":    dto.FromTicketDetail(ticket),
	})
}

// Delete DELETE /api/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "ticket deleted"})
}
