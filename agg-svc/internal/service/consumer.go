package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"qrmenu/agg-svc/internal/domain"
)

type Consumer struct {
	Reader MessageReader
	Store  StoreInterface
}

func NewConsumer(reader MessageReader, store StoreInterface) *Consumer {
	return &Consumer{
		Reader: reader,
		Store:  store,
	}
}

// Start reads until ctx is cancelled. Both event topics share the message
// shape, so one consumer type serves either reader.
func (c *Consumer) Start(ctx context.Context) {
	log.Println("Starting Aggregation Service consumer...")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Println("Aggregation consumer stopped")
				return
			}
			log.Printf("Error reading message: %v", err)
			continue
		}

		var msg domain.KafkaMessage
		if err := json.Unmarshal(message.Value, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		c.Process(ctx, msg)
	}
}

func (c *Consumer) Process(ctx context.Context, msg domain.KafkaMessage) {
	if msg.RestaurantID == "" {
		log.Printf("Skipping %s event without restaurant", msg.Type)
		return
	}

	var err error
	switch msg.Type {
	case domain.TypeOrderCreated:
		err = c.Store.RecordOrderCreated(ctx, msg)
	case domain.TypeOrderStatusChanged:
		if msg.Status != domain.StatusCompleted {
			return
		}
		err = c.Store.RecordOrderCompleted(ctx, msg)
	case domain.TypeScanRecorded:
		err = c.Store.RecordScan(ctx, msg)
	default:
		return
	}

	if err != nil {
		log.Printf("Error recording %s for restaurant %s: %v", msg.Type, msg.RestaurantID, err)
		return
	}
	log.Printf("Recorded %s for restaurant %s", msg.Type, msg.RestaurantID)
}
