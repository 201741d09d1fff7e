package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/live"
	"qrmenu/order-svc/internal/service"
)

const OrderEventsChannel = "qrmenu:order_events"

const (
	minBackplaneRetry = 100 * time.Millisecond
	maxBackplaneRetry = 10 * time.Second
)

var errBackplaneClosed = errors.New("backplane subscription closed")

// RedisBackplane carries order events between order-svc replicas over Redis
// Pub/Sub, so a subscriber connected to one replica sees writes made on
// another.
type RedisBackplane struct {
	client  *redis.Client
	channel string
}

func NewRedisBackplane(client *redis.Client) *RedisBackplane {
	return &RedisBackplane{client: client, channel: OrderEventsChannel}
}

func (b *RedisBackplane) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

// Serve keeps Run going until ctx is cancelled. Every failure is reported to
// dispatcher's subscribers and the subscription is retried with growing delay.
func (b *RedisBackplane) Serve(ctx context.Context, dispatcher live.Dispatcher) {
	retry := minBackplaneRetry
	for {
		started := time.Now()
		err := b.Run(ctx, dispatcher)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errBackplaneClosed
		}
		if time.Since(started) > maxBackplaneRetry {
			retry = minBackplaneRetry
		}
		log.Printf("backplane: %v, retrying in %s", err, retry)
		dispatcher.DispatchError(domain.StoreErr("order backplane", err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
		retry = min(2*retry, maxBackplaneRetry)
	}
}

// Run relays events to dispatcher until ctx is cancelled. Undecodable
// messages are reported through dispatcher and skipped. Once subscribed it
// asks dispatcher to resync, since events sent while it was away are lost.
func (b *RedisBackplane) Run(ctx context.Context, dispatcher live.Dispatcher) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	log.Printf("backplane: listening on %s", b.channel)
	dispatcher.Resync()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errBackplaneClosed
			}
			var event domain.OrderEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				dispatcher.DispatchError(fmt.Errorf("failed to unmarshal order event: %w", err))
				continue
			}
			dispatcher.Dispatch(event)
		}
	}
}

var _ service.EventPublisher = (*RedisBackplane)(nil)
