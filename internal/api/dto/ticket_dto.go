package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload. UserID is honored (and required) only when the
// principal is an admin filing on behalf of a customer. Status is never read
// from input; creation forces open.
type CreateTicketRequest struct {
	CategoryID  string                `json:"category_id" form:"category_id" validate:"required"`
	Subject     string                `json:"subject" form:"subject" validate:"required,max=255"`
	Description string                `json:"description" form:"description" validate:"required"`
	Priority    domain.TicketPriority `json:"priority" form:"priority" validate:"required,oneof=low medium high urgent"`
	UserID      *string               `json:"user_id" form:"user_id"`
}

// UpdateTicketRequest payload; nil means field absent.
type UpdateTicketRequest struct {
	CategoryID  *string                `json:"category_id" form:"category_id"`
	Subject     *string                `json:"subject" form:"subject" validate:"omitempty,max=255"`
	Description *string                `json:"description" form:"description"`
	Priority    *domain.TicketPriority `json:"priority" form:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status      *domain.TicketStatus   `json:"status" form:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
	AssignedTo  *string                `json:"assigned_to" form:"assigned_to"`
}

// UserResponse identifies a referenced user.
type UserResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// TicketSummary is one denormalized list entry.
type TicketSummary struct {
	ID            string                `json:"id"`
	Subject       string                `json:"subject"`
	Priority      domain.TicketPriority `json:"priority"`
	Status        domain.TicketStatus   `json:"status"`
	Attachment    *string               `json:"attachment"`
	User          *UserResponse         `json:"user,omitempty"`
	Category      *CategoryResponse     `json:"category,omitempty"`
	AssignedAdmin *UserResponse         `json:"assigned_admin,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info with thread and chat log.
type TicketDetailResponse struct {
	TicketSummary
	Description string            `json:"description"`
	Comments    []CommentResponse `json:"comments"`
	Messages    []MessageResponse `json:"messages"`
}

// TicketPageResponse is one page of tickets.
type TicketPageResponse struct {
	Data     []TicketSummary `json:"data"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// FromUser maps a domain user.
func FromUser(user *domain.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

// FromTicket maps a denormalized ticket to its summary.
func FromTicket(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:            ticket.ID,
		Subject:       ticket.Subject,
		Priority:      ticket.Priority,
		Status:        ticket.Status,
		Attachment:    ticket.Attachment,
		User:          FromUser(ticket.User),
		Category:      FromCategory(ticket.Category),
		AssignedAdmin: FromUser(ticket.AssignedAdmin),
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

// FromTicketDetail maps a ticket with its eager-loaded thread and chat log.
func FromTicketDetail(ticket *domain.Ticket) TicketDetailResponse {
	comments := make([]CommentResponse, 0, len(ticket.Comments))
	for i := range ticket.Comments {
		comments = append(comments, FromComment(&ticket.Comments[i]))
	}
	messages := make([]MessageResponse, 0, len(ticket.Messages))
	for i := range ticket.Messages {
		messages = append(messages, FromMessage(&ticket.Messages[i]))
	}
	return TicketDetailResponse{
		TicketSummary: FromTicket(ticket),
		Description:   ticket.Description,
		Comments:      comments,
		Messages:      messages,
	}
}
