package realtime

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketChannel returns the live channel name for a ticket.
func TicketChannel(ticketID string) string {
	return "ticket." + ticketID
}

// UserChannel returns the private channel name for a user.
func UserChannel(userID string) string {
	return "user." + userID
}

// MessageEvent is the fan-out payload published when a chat message is sent.
// SocketID identifies the sender's connection, which is excluded from
// delivery so the sender never receives its own echo.
type MessageEvent struct {
	Event    string         `json:"event"`
	SocketID string         `json:"socket_id,omitempty"`
	Message  MessagePayload `json:"message"`
}

// MessagePayload is the fully loaded message record carried by the event.
type MessagePayload struct {
	ID        string        `json:"id"`
	TicketID  string        `json:"ticket_id"`
	Message   string        `json:"message"`
	IsRead    bool          `json:"is_read"`
	CreatedAt time.Time     `json:"created_at"`
	User      SenderPayload `json:"user"`
}

// SenderPayload identifies the message sender.
type SenderPayload struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// EventMessageSent is the event name for chat fan-out.
const EventMessageSent = "message.sent"

// NewMessageEvent builds the fan-out event from a persisted, sender-loaded
// message.
func NewMessageEvent(msg *domain.Message, socketID string) MessageEvent {
	event := MessageEvent{
		Event:    EventMessageSent,
		SocketID: socketID,
		Message: MessagePayload{
			ID:        msg.ID,
			TicketID:  msg.TicketID,
			Message:   msg.Message,
			IsRead:    msg.IsRead,
			CreatedAt: msg.CreatedAt,
		},
	}
	if msg.User != nil {
		event.Message.User = SenderPayload{
			ID:    msg.User.ID,
			Name:  msg.User.Name,
			Email: msg.User.Email,
			Role:  msg.User.Role,
		}
	}
	return event
}
