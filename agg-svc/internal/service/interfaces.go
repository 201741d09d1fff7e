package service

import (
	"context"

	"github.com/segmentio/kafka-go"

	"qrmenu/agg-svc/internal/domain"
	"qrmenu/agg-svc/internal/storage"
)

type StoreInterface interface {
	RecordOrderCreated(ctx context.Context, msg domain.KafkaMessage) error
	RecordOrderCompleted(ctx context.Context, msg domain.KafkaMessage) error
	RecordScan(ctx context.Context, msg domain.KafkaMessage) error
	DailyStats(ctx context.Context, restaurantID, date string) (*domain.DailyStats, error)
}

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type ConsumerInterface interface {
	Start(ctx context.Context)
	Process(ctx context.Context, msg domain.KafkaMessage)
}

var (
	_ StoreInterface    = (*storage.Store)(nil)
	_ MessageReader     = (*kafka.Reader)(nil)
	_ ConsumerInterface = (*Consumer)(nil)
)
