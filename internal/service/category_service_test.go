package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func TestCategoryCreateSlugFromName(t *testing.T) {
	repo := newFakeCategoryRepo()
	svc := NewCategoryService(repo)

	category, err := svc.Create(context.Background(), adminPrincipal(), CategoryInput{Name: "Technical Support"})
	require.NoError(t, err)
	assert.Equal(t, "technical-support", category.Slug)
}

func TestCategoryCreateAdminOnly(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo())

	_, err := svc.Create(context.Background(), customerPrincipal(), CategoryInput{Name: "Billing"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)
}

func TestCategoryNameUniqueness(t *testing.T) {
	repo := newFakeCategoryRepo(&domain.Category{ID: "cat-1", Name: "Billing", Slug: "billing"})
	svc := NewCategoryService(repo)
	ctx := context.Background()
	admin := adminPrincipal()

	_, err := svc.Create(ctx, admin, CategoryInput{Name: "Billing"})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	assert.Equal(t, "has already been taken", domainErr.Details["name"])

	// Renaming a category to its own name is allowed.
	updated, err := svc.Update(ctx, admin, "cat-1", CategoryInput{Name: "Billing"})
	require.NoError(t, err)
	assert.Equal(t, "billing", updated.Slug)
}

func TestCategoryUpdateRefreshesSlug(t *testing.T) {
	repo := newFakeCategoryRepo(&domain.Category{ID: "cat-1", Name: "Billing", Slug: "billing"})
	svc := NewCategoryService(repo)

	updated, err := svc.Update(context.Background(), adminPrincipal(), "cat-1", CategoryInput{Name: "Account Billing"})
	require.NoError(t, err)
	assert.Equal(t, "account-billing", updated.Slug)
}

func TestCategoryDeleteBlockedWithTickets(t *testing.T) {
	repo := newFakeCategoryRepo(&domain.Category{ID: "cat-1", Name: "Billing", Slug: "billing"})
	repo.ticketCounts["cat-1"] = 3
	svc := NewCategoryService(repo)

	err := svc.Delete(context.Background(), adminPrincipal(), "cat-1")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeConflict, domainErr.Code)
	assert.EqualValues(t, 3, domainErr.Details["tickets_count"])
	assert.Contains(t, repo.categories, "cat-1")
}

func TestCategoryDeleteEmpty(t *testing.T) {
	repo := newFakeCategoryRepo(&domain.Category{ID: "cat-1", Name: "Billing", Slug: "billing"})
	svc := NewCategoryService(repo)

	require.NoError(t, svc.Delete(context.Background(), adminPrincipal(), "cat-1"))
	assert.NotContains(t, repo.categories, "cat-1")
}

func TestCategoryGetMissing(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo())

	_, err := svc.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}
