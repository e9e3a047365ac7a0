package domain

import "time"

// Comment is an append-only annotation on a ticket. Only the author may edit
// it; the author or any admin may delete it.
type Comment struct {
	ID        string
	TicketID  string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time

	User *User
}
