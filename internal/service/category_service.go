package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/authz"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// CategoryService manages the flat category reference data.
type CategoryService struct {
	categories repository.CategoryRepository
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// CategoryInput describes create/update payloads.
type CategoryInput struct {
	Name        string
	Description *string
}

// List returns all categories annotated with their ticket counts.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// Get returns one category with its ticket count.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// Create adds a category. Admin only; name must be unique; the slug is
// derived from the name.
func (s *CategoryService) Create(ctx context.Context, principal *domain.User, input CategoryInput) (*domain.Category, error) {
	if !authz.CanManageCategories(principal) {
		return nil, apperrors.NewForbidden("only administrators can manage categories")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 255 {
		return nil, apperrors.NewValidationError("name required", map[string]any{"name": "must be 1-255 characters"})
	}
	taken, err := s.categories.NameTaken(ctx, name, "")
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if taken {
		return nil, apperrors.NewValidationError("name already taken", map[string]any{"name": "has already been taken"})
	}

	category := &domain.Category{
		Name:        name,
		Slug:        slug.Make(name),
		Description: input.Description,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// Update renames or re-describes a category. The slug follows the name.
func (s *CategoryService) Update(ctx context.Context, principal *domain.User, id string, input CategoryInput) (*domain.Category, error) {
	if !authz.CanManageCategories(principal) {
		return nil, apperrors.NewForbidden("only administrators can manage categories")
	}
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 255 {
		return nil, apperrors.NewValidationError("name required", map[string]any{"name": "must be 1-255 characters"})
	}
	taken, err := s.categories.NameTaken(ctx, name, category.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if taken {
		return nil, apperrors.NewValidationError("name already taken", map[string]any{"name": "has already been taken"})
	}

	category.Name = name
	category.Slug = slug.Make(name)
	category.Description = input.Description
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// Delete removes a category. The precondition is checked, not delegated to a
// constraint: a category with tickets yields a ConflictError and nothing is
// removed.
func (s *CategoryService) Delete(ctx context.Context, principal *domain.User, id string) error {
	if !authz.CanManageCategories(principal) {
		return apperrors.NewForbidden("only administrators can manage categories")
	}
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.categories.CountTickets(ctx, category.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return apperrors.NewConflict("cannot delete category with existing tickets", map[string]any{"tickets_count": count})
	}
	if err := s.categories.Delete(ctx, category.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
