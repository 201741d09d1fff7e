package storage

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/service"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher feeds order and scan events to the analytics topics. Both
// are keyed by restaurant so one restaurant's events stay ordered.
type KafkaPublisher struct {
	Orders messageWriter
	Scans  messageWriter
}

func NewKafkaPublisher(orders, scans *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Orders: orders, Scans: scans}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Orders.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RestaurantID),
		Value: payload,
	})
}

func (p *KafkaPublisher) PublishScanEvent(ctx context.Context, event domain.ScanEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Scans.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RestaurantID),
		Value: payload,
	})
}

var (
	_ service.EventPublisher = (*KafkaPublisher)(nil)
	_ service.ScanPublisher  = (*KafkaPublisher)(nil)
)
