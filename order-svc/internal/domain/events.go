package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderCreated       OrderEventType = "order_created"
	OrderStatusChanged OrderEventType = "order_status_changed"
)

// OrderEvent is published after every committed order mutation. Subscribers
// use it only as a signal to reload; it is not a diff.
type OrderEvent struct {
	Type         OrderEventType  `json:"type"`
	OrderID      string          `json:"order_id"`
	RestaurantID string          `json:"restaurant_id"`
	Status       Status          `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Timestamp    time.Time       `json:"timestamp"`
}

func NewOrderEvent(t OrderEventType, o *Order) OrderEvent {
	return OrderEvent{
		Type:         t,
		OrderID:      o.ID,
		RestaurantID: o.RestaurantID,
		Status:       o.Status(),
		TotalAmount:  o.TotalAmount,
		Timestamp:    o.UpdatedAt,
	}
}

const ScanRecorded = "qr_scanned"

type ScanEvent struct {
	Type         string    `json:"type"`
	CodeID       string    `json:"code_id"`
	RestaurantID string    `json:"restaurant_id"`
	TableNumber  *int      `json:"table_number,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
