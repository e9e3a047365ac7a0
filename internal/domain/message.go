package domain

import "time"

// Message is a chat entry on a ticket. IsRead flips to true in bulk when the
// other party lists the thread.
type Message struct {
	ID        string
	TicketID  string
	UserID    string
	Message   string
	IsRead    bool
	CreatedAt time.Time

	User *User
}
