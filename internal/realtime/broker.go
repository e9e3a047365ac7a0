package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broker carries fan-out events between instances. Delivery is best-effort
// fire-and-forget: there is no retry, acknowledgment or delivery guarantee,
// and callers must treat the persisted row as the source of truth. A dropped
// event is recovered only by the client re-fetching the message list.
type Broker interface {
	Publish(ctx context.Context, channel string, event MessageEvent) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func())
}

// RedisBroker implements Broker over Redis pub/sub so fan-out reaches
// subscribers connected to any instance.
type RedisBroker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBroker builds a broker on the shared client.
func NewRedisBroker(client *redis.Client, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{client: client, logger: logger}
}

// Publish marshals the event and publishes it on the channel.
func (b *RedisBroker) Publish(ctx context.Context, channel string, event MessageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal fan-out event: %w", err)
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish fan-out event: %w", err)
	}
	return nil
}

// Subscribe returns raw payloads for the channel and a stop function. The
// returned channel closes when stop is called or the subscription drops.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, func()) {
	sub := b.client.Subscribe(ctx, channel)
	out := make(chan []byte, 16)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			default:
				b.logger.Warn("fan-out subscriber lagging; dropping event",
					zap.String("channel", channel))
			}
		}
	}()

	stop := func() {
		_ = sub.Close()
	}
	return out, stop
}
