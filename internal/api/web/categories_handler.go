package web

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// CategoriesHandler serves the admin category pages and form posts.
type CategoriesHandler struct {
	service  *service.CategoryService
	sessions *auth.SessionStore
	logger   *zap.Logger
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService, sessions *auth.SessionStore, logger *zap.Logger) *CategoriesHandler {
	return &CategoriesHandler{service: categoryService, sessions: sessions, logger: logger}
}

// Index GET /categories.
func (h *CategoriesHandler) Index(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	categories, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, *dto.FromCategory(&categories[i]))
	}
	return renderPage(c, h.sessions, h.logger, "Categories/Index", principal, fiber.Map{
		"categories": items,
	})
}

// Create POST /categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if _, err := h.service.Create(c.UserContext(), principal, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	}); err != nil {
		return err
	}
	return redirectWithFlash(c, h.sessions, h.logger, "success", "Category created successfully.", "/categories")
}

// Update PUT /categories/:id.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if _, err := h.service.Update(c.UserContext(), principal, c.Params("id"), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	}); err != nil {
		return err
	}
	return redirectWithFlash(c, h.sessions, h.logger, "success", "Category updated successfully.", "/categories")
}

// Delete DELETE /categories/:id. Deleting a category that still has tickets
// is refused and reported through the flash instead of an error page.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		if domainErr := apperrors.ToDomainError(err); domainErr.Code == apperrors.CodeConflict {
			return redirectWithFlash(c, h.sessions, h.logger, "error", domainErr.Message, "/categories")
		}
		return err
	}
	return redirectWithFlash(c, h.sessions, h.logger, "success", "Category deleted successfully.", "/categories")
}
