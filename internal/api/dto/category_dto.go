package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CategoryRequest payload for create/update.
type CategoryRequest struct {
	Name        string  `json:"name" form:"name" validate:"required,max=255"`
	Description *string `json:"description" form:"description"`
}

// CategoryResponse with associated ticket count.
type CategoryResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description"`
	TicketsCount int64     `json:"tickets_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromCategory maps a domain category.
func FromCategory(category *domain.Category) *CategoryResponse {
	if category == nil {
		return nil
	}
	return &CategoryResponse{
		ID:           category.ID,
		Name:         category.Name,
		Slug:         category.Slug,
		Description:  category.Description,
		TicketsCount: category.TicketsCount,
		CreatedAt:    category.CreatedAt,
		UpdatedAt:    category.UpdatedAt,
	}
}
