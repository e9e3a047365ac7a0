package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func commentFixture() (*CommentService, *fakeCommentRepo) {
	tickets := newFakeTicketRepo(&domain.Ticket{ID: "t1", UserID: "cust-1", Status: domain.TicketStatusOpen})
	comments := newFakeCommentRepo()
	svc := NewCommentService(comments, tickets, events.NewInMemoryDispatcher())
	return svc, comments
}

func TestCommentCreateAndOrder(t *testing.T) {
	svc, _ := commentFixture()
	ctx := context.Background()
	customer := customerPrincipal()

	first, err := svc.Create(ctx, customer, "t1", "first")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, first.UserID)
	require.NotNil(t, first.User)

	_, err = svc.Create(ctx, customer, "t1", "second")
	require.NoError(t, err)

	oldest, err := svc.List(ctx, customer, "t1", repository.CommentOrderOldestFirst)
	require.NoError(t, err)
	require.Len(t, oldest, 2)
	assert.Equal(t, "first", oldest[0].Content)

	newest, err := svc.List(ctx, customer, "t1", repository.CommentOrderNewestFirst)
	require.NoError(t, err)
	assert.Equal(t, "second", newest[0].Content)
}

func TestCommentCreateRequiresContent(t *testing.T) {
	svc, _ := commentFixture()

	_, err := svc.Create(context.Background(), customerPrincipal(), "t1", "   ")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.ToDomainError(err).Code)
}

func TestCommentCreateNeedsTicketAccess(t *testing.T) {
	svc, _ := commentFixture()

	intruder := &domain.User{ID: "cust-2", Role: domain.RoleCustomer}
	_, err := svc.Create(context.Background(), intruder, "t1", "hello")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)
}

func TestCommentUpdateAuthorOnly(t *testing.T) {
	svc, _ := commentFixture()
	ctx := context.Background()
	customer := customerPrincipal()

	comment, err := svc.Create(ctx, customer, "t1", "original")
	require.NoError(t, err)

	// Admins may not rewrite someone else's words.
	_, err = svc.Update(ctx, adminPrincipal(), comment.ID, "rewritten")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)

	updated, err := svc.Update(ctx, customer, comment.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
}

func TestCommentDeleteAuthorOrAdmin(t *testing.T) {
	svc, comments := commentFixture()
	ctx := context.Background()
	customer := customerPrincipal()

	mine, err := svc.Create(ctx, customer, "t1", "mine")
	require.NoError(t, err)

	intruder := &domain.User{ID: "cust-2", Role: domain.RoleCustomer}
	err = svc.Delete(ctx, intruder, mine.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)

	require.NoError(t, svc.Delete(ctx, adminPrincipal(), mine.ID))
	assert.NotContains(t, comments.comments, mine.ID)
}

func TestCommentMissing(t *testing.T) {
	svc, _ := commentFixture()

	_, err := svc.Update(context.Background(), customerPrincipal(), "nope", "text")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}
