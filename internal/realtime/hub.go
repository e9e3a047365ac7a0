package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Subscription is one authorized connection's view of a channel. Events
// arrive on C already filtered for the connection's socket id.
type Subscription struct {
	SocketID string
	C        chan []byte
	cancel   func()
}

// Cancel detaches the subscription from its channel.
func (s *Subscription) Cancel() {
	s.cancel()
}

type channelState struct {
	subscribers map[string]*Subscription
	stop        func()
}

// Hub fans broker events out to local websocket subscribers. It holds one
// broker subscription per active channel and drops it when the last local
// subscriber leaves.
type Hub struct {
	broker Broker
	logger *zap.Logger

	mu       sync.Mutex
	channels map[string]*channelState
}

// NewHub builds a hub over the broker.
func NewHub(broker Broker, logger *zap.Logger) *Hub {
	return &Hub{
		broker:   broker,
		logger:   logger,
		channels: make(map[string]*channelState),
	}
}

// Subscribe attaches a connection to a channel. Authorization must already
// have happened; the hub does not re-check it.
func (h *Hub) Subscribe(ctx context.Context, channel, socketID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.channels[channel]
	if !ok {
		msgs, stop := h.broker.Subscribe(ctx, channel)
		state = &channelState{
			subscribers: make(map[string]*Subscription),
			stop:        stop,
		}
		h.channels[channel] = state
		go h.relay(channel, msgs)
	}

	sub := &Subscription{
		SocketID: socketID,
		C:        make(chan []byte, 16),
	}
	sub.cancel = func() { h.unsubscribe(channel, socketID) }
	state.subscribers[socketID] = sub
	return sub
}

func (h *Hub) unsubscribe(channel, socketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.channels[channel]
	if !ok {
		return
	}
	if sub, ok := state.subscribers[socketID]; ok {
		delete(state.subscribers, socketID)
		close(sub.C)
	}
	if len(state.subscribers) == 0 {
		state.stop()
		delete(h.channels, channel)
	}
}

// relay forwards broker payloads to local subscribers, skipping the
// connection named by the event's socket_id.
func (h *Hub) relay(channel string, msgs <-chan []byte) {
	for payload := range msgs {
		var event MessageEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			h.logger.Warn("malformed fan-out payload", zap.String("channel", channel), zap.Error(err))
			continue
		}

		h.mu.Lock()
		state, ok := h.channels[channel]
		if !ok {
			h.mu.Unlock()
			return
		}
		for socketID, sub := range state.subscribers {
			if socketID == event.SocketID {
				continue
			}
			select {
			case sub.C <- payload:
			default:
				h.logger.Warn("subscriber buffer full; dropping event",
					zap.String("channel", channel), zap.String("socket_id", socketID))
			}
		}
		h.mu.Unlock()
	}
}
