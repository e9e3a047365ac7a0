package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/realtime"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// MessageService manages the per-ticket chat log and its fan-out.
type MessageService struct {
	messages   repository.MessageRepository
	tickets    repository.TicketRepository
	broker     realtime.Broker
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// MessageDependencies bundles collaborators for the message service.
type MessageDependencies struct {
	MessageRepo repository.MessageRepository
	TicketRepo  repository.TicketRepository
	Broker      realtime.Broker
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewMessageService constructs the service.
func NewMessageService(deps MessageDependencies) *MessageService {
	return &MessageService{
		messages:   deps.MessageRepo,
		tickets:    deps.TicketRepo,
		broker:     deps.Broker,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// List returns the ticket's messages oldest-first with senders attached. As a
// side effect every unread message authored by someone else is marked read in
// one bulk update.
func (s *MessageService) List(ctx context.Context, principal *domain.User, ticketID string) ([]domain.Message, error) {
	if _, err := ticketForPrincipal(ctx, s.tickets, principal, ticketID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.messages.MarkReadForOthers(ctx, ticketID, principal.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return messages, nil
}

// Send persists a message and publishes the loaded record on the ticket's
// live channel. socketID names the sender's own connection, which the hub
// excludes from delivery. The publish is fire-and-forget: a failed fan-out is
// logged and never surfaced to the sender.
func (s *MessageService) Send(ctx context.Context, principal *domain.User, ticketID, text, socketID string) (*domain.Message, error) {
	if _, err := ticketForPrincipal(ctx, s.tickets, principal, ticketID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("message required", map[string]any{"message": "required"})
	}

	msg := &domain.Message{
		TicketID: ticketID,
		UserID:   principal.ID,
		Message:  text,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	msg.User = principal

	if s.broker != nil {
		event := realtime.NewMessageEvent(msg, socketID)
		if err := s.broker.Publish(ctx, realtime.TicketChannel(ticketID), event); err != nil {
			s.logger.Warn("message fan-out failed",
				zap.String("ticket_id", ticketID), zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventMessageSent,
			TicketID:  ticketID,
			ActorID:   principal.ID,
			ActorRole: principal.Role,
			Timestamp: time.Now(),
			Payload: events.MessageSentPayload{
				MessageID: msg.ID,
				Preview:   stringPreview(msg.Message, 120),
			},
		})
	}
	return msg, nil
}

// UnreadCount returns the badge count: for customers, unread messages on
// tickets they own; for admins, unread messages on tickets assigned to them.
// Messages the principal authored never count.
func (s *MessageService) UnreadCount(ctx context.Context, principal *domain.User) (int64, error) {
	var (
		count int64
		err   error
	)
	if principal.IsCustomer() {
		count, err = s.messages.UnreadCountForOwner(ctx, principal.ID)
	} else {
		count, err = s.messages.UnreadCountForAssignee(ctx, principal.ID)
	}
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}
