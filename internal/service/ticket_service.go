package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/authz"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	tickets     repository.TicketRepository
	categories  repository.CategoryRepository
	users       repository.UserRepository
	comments    repository.CommentRepository
	messages    repository.MessageRepository
	attachments storage.AttachmentStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
	CommentRepo  repository.CommentRepository
	MessageRepo  repository.MessageRepository
	Attachments  storage.AttachmentStore
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		categories:  deps.CategoryRepo,
		users:       deps.UserRepo,
		comments:    deps.CommentRepo,
		messages:    deps.MessageRepo,
		attachments: deps.Attachments,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// Upload is an attachment arriving with a create or update request. Surface
// handlers enforce their own size and mime restrictions before it gets here.
type Upload struct {
	Filename string
	Content  io.Reader
}

// TicketCreateInput describes ticket creation payload. TargetUserID is only
// honored for admin principals and is required for them.
type TicketCreateInput struct {
	CategoryID   string
	Subject      string
	Description  string
	Priority     domain.TicketPriority
	TargetUserID *string
	Attachment   *Upload
}

// TicketUpdateInput uses nil to mean "field absent". Status and AssignedTo
// are silently discarded for customer principals.
type TicketUpdateInput struct {
	CategoryID    *string
	Subject       *string
	Description   *string
	Priority      *domain.TicketPriority
	Status        *domain.TicketStatus
	AssignedTo    *string
	ClearAssignee bool
	Attachment    *Upload
}

// TicketListFilter describes listing parameters.
type TicketListFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	CategoryID *string
	Page       int
	PageSize   int
}

// TicketPage is one page of denormalized ticket entries.
type TicketPage struct {
	Items    []domain.Ticket
	Total    int64
	Page     int
	PageSize int
}

// List returns tickets visible to the principal, newest-created-first.
// Customers are restricted to their own tickets; admins see all.
func (s *TicketService) List(ctx context.Context, principal *domain.User, filter TicketListFilter) (*TicketPage, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 15
	}

	repoFilter := repository.TicketFilter{
		Status:     filter.Status,
		Priority:   filter.Priority,
		CategoryID: filter.CategoryID,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	}
	if principal.IsCustomer() {
		userID := principal.ID
		repoFilter.UserID = &userID
	}

	items, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.tickets.Count(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Create files a new ticket. Status is forced to open irrespective of input.
func (s *TicketService) Create(ctx context.Context, principal *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	details := map[string]any{}
	if input.CategoryID == "" {
		details["category_id"] = "required"
	}
	if subject == "" || utf8.RuneCountInString(subject) > 255 {
		details["subject"] = "must be 1-255 characters"
	}
	if description == "" {
		details["description"] = "required"
	}
	if !domain.ValidPriority(input.Priority) {
		details["priority"] = "must be one of low, medium, high, urgent"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket payload", details)
	}

	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}

	ownerID := principal.ID
	if principal.IsAdmin() {
		if input.TargetUserID == nil || *input.TargetUserID == "" {
			return nil, apperrors.NewValidationError("invalid ticket payload", map[string]any{"user_id": "required when creating on behalf of a user"})
		}
		if _, err := s.users.GetByID(ctx, *input.TargetUserID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("user", map[string]any{"id": *input.TargetUserID})
			}
			return nil, apperrors.MapError(err)
		}
		ownerID = *input.TargetUserID
	}

	ticket := &domain.Ticket{
		UserID:      ownerID,
		CategoryID:  input.CategoryID,
		Subject:     subject,
		Description: description,
		Priority:    input.Priority,
		Status:      domain.TicketStatusOpen,
	}

	if input.Attachment != nil {
		path, err := s.attachments.Store(ctx, input.Attachment.Filename, input.Attachment.Content)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		ticket.Attachment = &path
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		ActorID:   principal.ID,
		ActorRole: principal.Role,
		Payload: events.TicketCreatedPayload{
			CategoryID: ticket.CategoryID,
			Subject:    ticket.Subject,
			Priority:   ticket.Priority,
		},
	})

	detail, err := s.tickets.GetDetail(ctx, ticket.ID)
	if err != nil {
		return ticket, nil
	}
	return detail, nil
}

// Get returns a ticket with creator, category, assigned admin, comments and
// messages eagerly attached. Customers may only fetch their own tickets.
func (s *TicketService) Get(ctx context.Context, principal *domain.User, id string) (*domain.Ticket, error) {
	if _, err := ticketForPrincipal(ctx, s.tickets, principal, id); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetDetail(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByTicket(ctx, id, repository.CommentOrderOldestFirst)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	messages, err := s.messages.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Comments = comments
	ticket.Messages = messages
	return ticket, nil
}

// AuthorizeAccess reports whether the principal may view the ticket, without
// loading the thread or chat log. Live channel subscriptions check this
// before the connection is upgraded.
func (s *TicketService) AuthorizeAccess(ctx context.Context, principal *domain.User, id string) error {
	_, err := ticketForPrincipal(ctx, s.tickets, principal, id)
	return err
}

// Update applies a partial update. Customers may change category, subject,
// description, priority and the attachment on their own tickets; status and
// assignment fields in their input are dropped without error. Admins may
// change any field.
func (s *TicketService) Update(ctx context.Context, principal *domain.User, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := ticketForPrincipal(ctx, s.tickets, principal, id)
	if err != nil {
		return nil, err
	}

	if !authz.CanSetStatusOrAssignee(principal) {
		input.Status = nil
		input.AssignedTo = nil
		input.ClearAssignee = false
	}

	if input.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("category", map[string]any{"id": *input.CategoryID})
			}
			return nil, apperrors.MapError(err)
		}
		ticket.CategoryID = *input.CategoryID
	}
	if input.Subject != nil {
		subject := strings.TrimSpace(*input.Subject)
		if subject == "" || utf8.RuneCountInString(subject) > 255 {
			return nil, apperrors.NewValidationError("invalid ticket payload", map[string]any{"subject": "must be 1-255 characters"})
		}
		ticket.Subject = subject
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("invalid ticket payload", map[string]any{"description": "required"})
		}
		ticket.Description = description
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("invalid ticket payload", map[string]any{"priority": "must be one of low, medium, high, urgent"})
		}
		ticket.Priority = *input.Priority
	}
	if input.Status != nil {
		if !domain.ValidStatus(*input.Status) {
			return nil, apperrors.NewValidationError("invalid ticket payload", map[string]any{"status": "must be one of open, in_progress, resolved, closed"})
		}
		ticket.Status = *input.Status
	}
	if input.ClearAssignee {
		ticket.AssignedTo = nil
	} else if input.AssignedTo != nil {
		assignee, err := s.users.GetByID(ctx, *input.AssignedTo)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("user", map[string]any{"id": *input.AssignedTo})
			}
			return nil, apperrors.MapError(err)
		}
		ticket.AssignedTo = &assignee.ID
	}

	var previousAttachment *string
	if input.Attachment != nil {
		path, err := s.attachments.Store(ctx, input.Attachment.Filename, input.Attachment.Content)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		previousAttachment = ticket.Attachment
		ticket.Attachment = &path
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	// The new file is stored and recorded before the old one goes away, so a
	// crash in between never leaves the ticket pointing at nothing.
	if previousAttachment != nil {
		if err := s.attachments.Remove(ctx, *previousAttachment); err != nil {
			s.logger.Warn("failed to remove replaced attachment",
				zap.String("ticket_id", ticket.ID), zap.String("path", *previousAttachment), zap.Error(err))
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketUpdated,
		TicketID:  ticket.ID,
		ActorID:   principal.ID,
		ActorRole: principal.Role,
		Payload: events.TicketUpdatedPayload{
			Status:     ticket.Status,
			AssignedTo: ticket.AssignedTo,
		},
	})

	detail, err := s.tickets.GetDetail(ctx, ticket.ID)
	if err != nil {
		return ticket, nil
	}
	return detail, nil
}

// Delete removes a ticket, its stored attachment and, through the database
// cascade, its comments and messages. Allowed for admins or the owning
// customer.
func (s *TicketService) Delete(ctx context.Context, principal *domain.User, id string) error {
	ticket, err := ticketForPrincipal(ctx, s.tickets, principal, id)
	if err != nil {
		return err
	}

	if ticket.Attachment != nil {
		if err := s.attachments.Remove(ctx, *ticket.Attachment); err != nil {
			s.logger.Warn("failed to remove attachment on ticket delete",
				zap.String("ticket_id", ticket.ID), zap.String("path", *ticket.Attachment), zap.Error(err))
		}
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketDeleted,
		TicketID:  id,
		ActorID:   principal.ID,
		ActorRole: principal.Role,
	})
	return nil
}

// DashboardStats summarizes ticket counts by status, customer-scoped.
func (s *TicketService) DashboardStats(ctx context.Context, principal *domain.User) (repository.StatusCounts, error) {
	var userID *string
	if principal.IsCustomer() {
		id := principal.ID
		userID = &id
	}
	counts, err := s.tickets.CountByStatus(ctx, userID)
	if err != nil {
		return repository.StatusCounts{}, apperrors.MapError(err)
	}
	return counts, nil
}

// AssignableAdmins lists admins for the assignment picker.
func (s *TicketService) AssignableAdmins(ctx context.Context, principal *domain.User) ([]domain.User, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can list admins")
	}
	admins, err := s.users.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return admins, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
