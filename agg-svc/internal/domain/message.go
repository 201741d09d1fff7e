package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated       = "order_created"
	TypeOrderStatusChanged = "order_status_changed"
	TypeScanRecorded       = "qr_scanned"

	StatusCompleted = "completed"
)

// KafkaMessage is the union of the order and scan events order-svc publishes.
// Type decides which fields are set.
type KafkaMessage struct {
	Type         string          `json:"type"`
	OrderID      string          `json:"order_id,omitempty"`
	CodeID       string          `json:"code_id,omitempty"`
	RestaurantID string          `json:"restaurant_id"`
	Status       string          `json:"status,omitempty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TableNumber  *int            `json:"table_number,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Day is the UTC calendar day the event counts towards.
func (m KafkaMessage) Day() string {
	return DayOf(m.Timestamp)
}

func DayOf(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(DateLayout)
}

const DateLayout = "2006-01-02"

// RestaurantTable labels scans of the restaurant-level code.
const RestaurantTable = "restaurant"

type DailyStats struct {
	RestaurantID    string           `json:"restaurant_id"`
	Date            string           `json:"date"`
	OrdersCreated   int64            `json:"orders_created"`
	OrdersCompleted int64            `json:"orders_completed"`
	Revenue         decimal.Decimal  `json:"revenue"`
	ScansTotal      int64            `json:"scans_total"`
	ScansByTable    map[string]int64 `json:"scans_by_table"`
}
