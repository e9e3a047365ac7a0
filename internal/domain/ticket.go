package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Transitions are
// unrestricted; any of the four values may be set by an admin.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// ValidStatus reports whether s is one of the four ticket statuses.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the four priorities.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests. UserID is the creating
// customer and is immutable after creation; AssignedTo is the admin working
// the ticket, if any. Attachment holds the relative path of the stored file.
type Ticket struct {
	ID          string
	UserID      string
	CategoryID  string
	AssignedTo  *string
	Subject     string
	Description string
	Priority    TicketPriority
	Status      TicketStatus
	Attachment  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Denormalized relations, populated by the repository on demand.
	User          *User
	Category      *Category
	AssignedAdmin *User
	Comments      []Comment
	Messages      []Message
}
