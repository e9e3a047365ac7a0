package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/authz"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// CommentService manages the per-ticket comment thread.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, tickets repository.TicketRepository, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{comments: comments, tickets: tickets, dispatcher: dispatcher}
}

// List returns the ticket's comments with authors attached, in the order the
// calling surface asks for.
func (s *CommentService) List(ctx context.Context, principal *domain.User, ticketID string, order repository.CommentOrder) ([]domain.Comment, error) {
	if _, err := ticketForPrincipal(ctx, s.tickets, principal, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID, order)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// Create appends a comment. The ticket owner or any admin may comment.
func (s *CommentService) Create(ctx context.Context, principal *domain.User, ticketID, content string) (*domain.Comment, error) {
	if _, err := ticketForPrincipal(ctx, s.tickets, principal, ticketID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", map[string]any{"content": "required"})
	}

	comment := &domain.Comment{
		TicketID: ticketID,
		UserID:   principal.ID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	comment.User = principal

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCommentAdded,
			TicketID:  ticketID,
			ActorID:   principal.ID,
			ActorRole: principal.Role,
			Timestamp: time.Now(),
			Payload:   events.CommentAddedPayload{CommentID: comment.ID},
		})
	}
	return comment, nil
}

// Update rewrites a comment. Only the original author may; admins get no
// override here.
func (s *CommentService) Update(ctx context.Context, principal *domain.User, commentID, content string) (*domain.Comment, error) {
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEditComment(principal, comment) {
		return nil, apperrors.NewForbidden("only the author can update this comment")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", map[string]any{"content": "required"})
	}

	comment.Content = content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// Delete removes a comment. The author or any admin may.
func (s *CommentService) Delete(ctx context.Context, principal *domain.User, commentID string) error {
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !authz.CanDeleteComment(principal, comment) {
		return apperrors.NewForbidden("no access to this comment")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *CommentService) getComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("comment", map[string]any{"id": commentID})
		}
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}
