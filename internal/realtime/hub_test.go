package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// stubBroker hands the test direct control over the subscription feed.
type stubBroker struct {
	feeds      map[string]chan []byte
	stopped    map[string]bool
	subscribes int
}

func newStubBroker() *stubBroker {
	return &stubBroker{
		feeds:   make(map[string]chan []byte),
		stopped: make(map[string]bool),
	}
}

func (b *stubBroker) Publish(_ context.Context, channel string, event MessageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if feed, ok := b.feeds[channel]; ok {
		feed <- data
	}
	return nil
}

func (b *stubBroker) Subscribe(_ context.Context, channel string) (<-chan []byte, func()) {
	b.subscribes++
	feed := make(chan []byte, 16)
	b.feeds[channel] = feed
	return feed, func() {
		b.stopped[channel] = true
		close(feed)
		delete(b.feeds, channel)
	}
}

func recvPayload(t *testing.T, sub *Subscription) MessageEvent {
	t.Helper()
	select {
	case payload, ok := <-sub.C:
		require.True(t, ok, "subscription closed unexpectedly")
		var event MessageEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return MessageEvent{}
	}
}

func expectNothing(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case payload, ok := <-sub.C:
		if ok {
			t.Fatalf("unexpected delivery: %s", payload)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubSkipsSenderConnection(t *testing.T) {
	broker := newStubBroker()
	hub := NewHub(broker, zap.NewNop())
	ctx := context.Background()
	channel := TicketChannel("t1")

	sender := hub.Subscribe(ctx, channel, "socket-a")
	other := hub.Subscribe(ctx, channel, "socket-b")
	defer sender.Cancel()
	defer other.Cancel()

	msg := &domain.Message{ID: "m1", TicketID: "t1", Message: "hi",
		User: &domain.User{ID: "u1", Name: "Cara", Role: domain.RoleCustomer}}
	require.NoError(t, broker.Publish(ctx, channel, NewMessageEvent(msg, "socket-a")))

	event := recvPayload(t, other)
	assert.Equal(t, EventMessageSent, event.Event)
	assert.Equal(t, "m1", event.Message.ID)
	assert.Equal(t, "Cara", event.Message.User.Name)

	expectNothing(t, sender)
}

func TestHubSharesOneBrokerSubscriptionPerChannel(t *testing.T) {
	broker := newStubBroker()
	hub := NewHub(broker, zap.NewNop())
	ctx := context.Background()
	channel := TicketChannel("t1")

	first := hub.Subscribe(ctx, channel, "socket-a")
	second := hub.Subscribe(ctx, channel, "socket-b")
	assert.Equal(t, 1, broker.subscribes)

	first.Cancel()
	assert.False(t, broker.stopped[channel], "subscription must survive remaining subscribers")

	second.Cancel()
	assert.True(t, broker.stopped[channel], "last cancel drops the broker subscription")
}

func TestHubResubscribesAfterChannelIdle(t *testing.T) {
	broker := newStubBroker()
	hub := NewHub(broker, zap.NewNop())
	ctx := context.Background()
	channel := UserChannel("u1")

	sub := hub.Subscribe(ctx, channel, "socket-a")
	sub.Cancel()
	require.True(t, broker.stopped[channel])

	again := hub.Subscribe(ctx, channel, "socket-a")
	defer again.Cancel()
	assert.Equal(t, 2, broker.subscribes)
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "ticket.abc", TicketChannel("abc"))
	assert.Equal(t, "user.u9", UserChannel("u9"))
}
