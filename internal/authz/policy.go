// Package authz holds the single authorization policy shared by the
// programmatic surface, the interactive surface and the realtime channel
// gate. Every entry point calls these predicates; none re-implements them.
package authz

import "github.com/spec-kit/helpdesk/internal/domain"

// CanAccessTicket reports whether user may read or act on ticket-scoped
// resources: admins always, customers only on tickets they own.
func CanAccessTicket(user *domain.User, ticket *domain.Ticket) bool {
	if user == nil || ticket == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return ticket.UserID == user.ID
}

// CanSetStatusOrAssignee reports whether user may mutate ticket status or
// assignment. Restricted to admins regardless of ownership.
func CanSetStatusOrAssignee(user *domain.User) bool {
	return user.IsAdmin()
}

// CanManageCategories reports whether user may create, update or delete
// categories.
func CanManageCategories(user *domain.User) bool {
	return user.IsAdmin()
}

// CanEditComment reports whether user may update a comment. Only the author
// may; admins get no override.
func CanEditComment(user *domain.User, comment *domain.Comment) bool {
	if user == nil || comment == nil {
		return false
	}
	return comment.UserID == user.ID
}

// CanDeleteComment reports whether user may delete a comment: the author or
// any admin.
func CanDeleteComment(user *domain.User, comment *domain.Comment) bool {
	if user == nil || comment == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return comment.UserID == user.ID
}

// CanSubscribeTicketChannel gates subscription to a ticket's live channel.
// Same ownership rule as CanAccessTicket; kept separate so the realtime gate
// reads as an explicit contract.
func CanSubscribeTicketChannel(user *domain.User, ticket *domain.Ticket) bool {
	return CanAccessTicket(user, ticket)
}

// CanSubscribeUserChannel gates subscription to a user's private channel:
// only that same user.
func CanSubscribeUserChannel(user *domain.User, channelUserID string) bool {
	if user == nil {
		return false
	}
	return user.ID == channelUserID
}
