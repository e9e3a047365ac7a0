package web

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/api/upload"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

const webPageSize = 10

// webAttachmentExts is the upload whitelist on this surface; the
// programmatic surface caps size only.
var webAttachmentExts = []string{"jpg", "jpeg", "png", "pdf", "doc", "docx"}

// TicketsHandler serves ticket pages and form posts.
type TicketsHandler struct {
	tickets    *service.TicketService
	categories *service.CategoryService
	sessions   *auth.SessionStore
	logger     *zap.Logger
	maxUpload  int64
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, categories *service.CategoryService, sessions *auth.SessionStore, logger *zap.Logger, maxUpload int64) *TicketsHandler {
	return &TicketsHandler{
		tickets:    tickets,
		categories: categories,
		sessions:   sessions,
		logger:     logger,
		maxUpload:  maxUpload,
	}
}

func (h *TicketsHandler) uploadPolicy() upload.Policy {
	return upload.Policy{MaxBytes: h.maxUpload, AllowedExts: webAttachmentExts}
}

// Index GET /tickets. Customers see their own tickets, admins everything.
func (h *TicketsHandler) Index(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := service.TicketListFilter{
		Page:     c.QueryInt("page", 1),
		PageSize: webPageSize,
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

	page, err := h.tickets.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.FromTicket(&page.Items[i]))
	}
	return renderPage(c, h.sessions, h.logger, "Tickets/Index", principal, fiber.Map{
		"tickets": fiber.Map{
			"data":      items,
			"total":     page.Total,
			"page":      page.Page,
			"page_size": page.PageSize,
		},
	})
}

// New GET /tickets/new. Form props: the category picker, plus the customer
// picker and admin list for admins filing on someone's behalf.
func (h *TicketsHandler) New(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	props, err := h.formProps(c, principal)
	if err != nil {
		return err
	}
	return renderPage(c, h.sessions, h.logger, "Tickets/Create", principal, props)
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	file, closeUpload, err := upload.ParseAttachment(c, h.uploadPolicy())
	if err != nil {
		return err
	}
	defer closeUpload()

	ticket, err := h.tickets.Create(c.UserContext(), principal, service.TicketCreateInput{
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
	return redirectWithFlash(c, h.sessions, h.logger, "success", "Ticket created successfully.", "/tickets/"+ticket.ID)
}

// Show GET /tickets/:id. Props carry the full ticket with its comment
// thread oldest-first and the chat log.
func (h *TicketsHandler) Show(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return renderPage(c, h.sessions, h.logger, "Tickets/Show", principal, fiber.Map{
		"ticket": dto.FromTicketDetail(ticket),
	})
}

// Edit GET /tickets/:id/edit.
func (h *TicketsHandler) Edit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	props, err := h.formProps(c, principal)
	if err != nil {
		return err
	}
	props["ticket"] = dto.FromTicketDetail(ticket)
	return renderPage(c, h.sessions, h.logger, "Tickets/Edit", principal, props)
}

// Update PUT /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	file, closeUpload, err := upload.ParseAttachment(c, h.uploadPolicy())
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
	if req.AssignedTo != nil && *req.AssignedTo == "" {
		input.AssignedTo = nil
		input.ClearAssignee = true
	}

	ticket, err := h.tickets.Update(c.UserContext(), principal, c.Params("id"), input)
	if err != nil {
		return err
	}
	return redirectWithFlash(c, h.sessions, h.logger, "success", "Ticket updated successfully.", "/tickets/"+ticket.ID)
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.tickets.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return redirectWithFlash(c, h.sessions, h.logger, "success", "Ticket deleted successfully.", "/tickets")
}

func (h *TicketsHandler) formProps(c *fiber.Ctx, principal *domain.User) (fiber.Map, error) {
	categories, err := h.categories.List(c.UserContext())
	if err != nil {
		return nil, err
	}
	categoryItems := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		categoryItems = append(categoryItems, *dto.FromCategory(&categories[i]))
	}
	props := fiber.Map{"categories": categoryItems}

	if principal.IsAdmin() {
		admins, err := h.tickets.AssignableAdmins(c.UserContext(), principal)
		if err != nil {
			return nil, err
		}
		adminItems := make([]*dto.UserResponse, 0, len(admins))
		for i := range admins {
			adminItems = append(adminItems, dto.FromUser(&admins[i]))
		}
		props["admins"] = adminItems
	}
	return props, nil
}
