package web

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// DashboardHandler serves the landing page: ticket counts by status and the
// most recent tickets, both scoped to what the principal can see.
type DashboardHandler struct {
	tickets  *service.TicketService
	sessions *auth.SessionStore
	logger   *zap.Logger
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(ticketService *service.TicketService, sessions *auth.SessionStore, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{tickets: ticketService, sessions: sessions, logger: logger}
}

// Show GET /dashboard.
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	counts, err := h.tickets.DashboardStats(c.UserContext(), principal)
	if err != nil {
		return err
	}
	recent, err := h.tickets.List(c.UserContext(), principal, service.TicketListFilter{Page: 1, PageSize: 5})
	if err != nil {
		return err
	}
	recentItems := make([]dto.TicketSummary, 0, len(recent.Items))
	for i := range recent.Items {
		recentItems = append(recentItems, dto.FromTicket(&recent.Items[i]))
	}

	return renderPage(c, h.sessions, h.logger, "Dashboard", principal, fiber.Map{
		"stats": fiber.Map{
			"total":       counts.Total,
			"open":        counts.Open,
			"in_progress": counts.InProgress,
			"resolved":    counts.Resolved,
		},
		"recent_tickets": recentItems,
		"is_admin":       principal.Role == domain.RoleAdmin,
	})
}
