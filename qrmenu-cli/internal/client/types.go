package client

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type Order struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	TableNumber  *int   `json:"table_number,omitempty"`
	CustomerInfo struct {
		Name  string `json:"name"`
		Phone string `json:"phone,omitempty"`
	} `json:"customer_info"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CreatedOrder struct {
	Order       Order  `json:"order"`
	TrackingURL string `json:"tracking_url"`
}

type MenuItem struct {
	ID          string          `json:"id"`
	SectionID   string          `json:"section_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
}

type Menu struct {
	Restaurant struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		IsActive bool   `json:"is_active"`
	} `json:"restaurant"`
	TableNumber *int       `json:"table_number,omitempty"`
	Items       []MenuItem `json:"items"`
}

// Item finds a menu item by id.
func (m *Menu) Item(id string) (MenuItem, bool) {
	for _, item := range m.Items {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

type QRCode struct {
	ID          string `json:"id"`
	TableNumber *int   `json:"table_number,omitempty"`
	MenuURL     string `json:"menu_url"`
	Scans       int64  `json:"scans"`
	ImageURL    string `json:"image_url"`
}

type BatchResult struct {
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Codes     []QRCode       `json:"codes"`
	Errors    map[int]string `json:"errors,omitempty"`
}

// Snapshot is one pushed view of a live subscription. Restaurant streams
// fill Orders; order streams fill Order, which is nil once it is gone.
type Snapshot struct {
	Version      uint64    `json:"version"`
	RestaurantID string    `json:"restaurant_id,omitempty"`
	Status       *string   `json:"status,omitempty"`
	Orders       []Order   `json:"orders,omitempty"`
	OrderID      string    `json:"order_id,omitempty"`
	Order        *Order    `json:"order,omitempty"`
	At           time.Time `json:"at"`
}
