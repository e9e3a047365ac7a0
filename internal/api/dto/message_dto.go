package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// MessageRequest payload for sending a chat message.
type MessageRequest struct {
	Message string `json:"message" form:"message" validate:"required"`
}

// MessageResponse with sender attached.
type MessageResponse struct {
	ID        string        `json:"id"`
	TicketID  string        `json:"ticket_id"`
	Message   string        `json:"message"`
	IsRead    bool          `json:"is_read"`
	User      *UserResponse `json:"user,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// UnreadCountResponse is the badge payload.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

// FromMessage maps a domain message.
func FromMessage(msg *domain.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.ID,
		TicketID:  msg.TicketID,
		Message:   msg.Message,
		IsRead:    msg.IsRead,
		User:      FromUser(msg.User),
		CreatedAt: msg.CreatedAt,
	}
}
