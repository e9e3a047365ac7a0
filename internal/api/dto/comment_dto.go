package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CommentRequest payload for create/update.
type CommentRequest struct {
	Content string `json:"content" form:"content" validate:"required"`
}

// CommentResponse with author attached.
type CommentResponse struct {
	ID        string        `json:"id"`
	TicketID  string        `json:"ticket_id"`
	Content   string        `json:"content"`
	User      *UserResponse `json:"user,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// FromComment maps a domain comment.
func FromComment(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		Content:   comment.Content,
		User:      FromUser(comment.User),
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}
