package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func messageFixture() (*MessageService, *fakeMessageRepo, *fakeBroker) {
	assignee := "admin-1"
	tickets := newFakeTicketRepo(
		&domain.Ticket{ID: "t1", UserID: "cust-1", AssignedTo: &assignee, Status: domain.TicketStatusOpen},
	)
	messages := newFakeMessageRepo()
	messages.ticketOwners["t1"] = "cust-1"
	messages.ticketAssignees["t1"] = "admin-1"

	broker := &fakeBroker{}
	svc := NewMessageService(MessageDependencies{
		MessageRepo: messages,
		TicketRepo:  tickets,
		Broker:      broker,
		Dispatcher:  events.NewInMemoryDispatcher(),
		Logger:      zap.NewNop(),
	})
	return svc, messages, broker
}

func TestMessageSendPublishesWithSocketExclusion(t *testing.T) {
	svc, _, broker := messageFixture()

	msg, err := svc.Send(context.Background(), customerPrincipal(), "t1", "hello there", "socket-42")
	require.NoError(t, err)
	require.NotNil(t, msg.User)
	assert.Equal(t, "cust-1", msg.UserID)

	require.Len(t, broker.published, 1)
	published := broker.published[0]
	assert.Equal(t, "ticket.t1", published.channel)
	assert.Equal(t, "message.sent", published.event.Event)
	assert.Equal(t, "socket-42", published.event.SocketID)
	assert.Equal(t, msg.ID, published.event.Message.ID)
	assert.Equal(t, "hello there", published.event.Message.Message)
}

func TestMessageSendBrokerFailureNotSurfaced(t *testing.T) {
	svc, messages, broker := messageFixture()
	broker.failWith = errors.New("redis down")

	msg, err := svc.Send(context.Background(), customerPrincipal(), "t1", "still persisted", "")
	require.NoError(t, err)
	assert.Contains(t, messages.messages, msg.ID)
}

func TestMessageSendRequiresText(t *testing.T) {
	svc, _, _ := messageFixture()

	_, err := svc.Send(context.Background(), customerPrincipal(), "t1", "  ", "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.ToDomainError(err).Code)
}

func TestMessageSendNeedsTicketAccess(t *testing.T) {
	svc, _, _ := messageFixture()

	intruder := &domain.User{ID: "cust-2", Role: domain.RoleCustomer}
	_, err := svc.Send(context.Background(), intruder, "t1", "hi", "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)
}

func TestMessageListMarksOthersRead(t *testing.T) {
	svc, messages, _ := messageFixture()
	ctx := context.Background()
	customer := customerPrincipal()
	admin := adminPrincipal()

	_, err := svc.Send(ctx, customer, "t1", "from customer", "")
	require.NoError(t, err)
	_, err = svc.Send(ctx, admin, "t1", "from admin", "")
	require.NoError(t, err)

	listed, err := svc.List(ctx, customer, "t1")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	for _, msg := range messages.messages {
		if msg.UserID == admin.ID {
			assert.True(t, msg.IsRead, "other party's message should be read after listing")
		} else {
			assert.False(t, msg.IsRead, "own message stays untouched")
		}
	}
}

func TestUnreadCountScopedByRole(t *testing.T) {
	svc, _, _ := messageFixture()
	ctx := context.Background()
	customer := customerPrincipal()
	admin := adminPrincipal()

	_, err := svc.Send(ctx, customer, "t1", "ping", "")
	require.NoError(t, err)
	_, err = svc.Send(ctx, admin, "t1", "pong", "")
	require.NoError(t, err)

	// The customer owns the ticket and has one unread admin message.
	count, err := svc.UnreadCount(ctx, customer)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// The admin is assigned and has one unread customer message; their own
	// reply never counts.
	count, err = svc.UnreadCount(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Listing clears the customer's badge.
	_, err = svc.List(ctx, customer, "t1")
	require.NoError(t, err)
	count, err = svc.UnreadCount(ctx, customer)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
