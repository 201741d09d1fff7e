package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const GuestName = "Guest"

type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// DisplayName falls back to GuestName when the customer left the name empty.
func (c CustomerInfo) DisplayName() string {
	if strings.TrimSpace(c.Name) == "" {
		return GuestName
	}
	return c.Name
}

// OrderItem is a copy of a menu item taken at checkout; later menu edits do
// not reach it.
type OrderItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a submitted customer order. Its status is unexported: NewOrder sets
// it to pending and Advance is the only way to move it afterwards.
type Order struct {
	ID           string
	RestaurantID string
	TableNumber  *int
	CustomerInfo CustomerInfo
	Items        []OrderItem
	TotalAmount  decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time

	status Status
}

// NewOrder validates the submission and returns a pending order. Items are
// copied and the total is computed from them.
func NewOrder(id, restaurantID string, table *int, customer CustomerInfo, items []OrderItem, at time.Time) (*Order, error) {
	const op = "create order"
	if strings.TrimSpace(restaurantID) == "" {
		return nil, Validationf(op, "restaurant id is required")
	}
	if len(items) == 0 {
		return nil, Validationf(op, "order must contain at least one item")
	}
	if table != nil && *table < 1 {
		return nil, Validationf(op, "table number must be at least 1, got %d", *table)
	}

	snapshot := make([]OrderItem, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, Validationf(op, "item %q: quantity must be at least 1", item.ID)
		}
		if item.Price.IsNegative() {
			return nil, Validationf(op, "item %q: price cannot be negative", item.ID)
		}
		if !item.Price.Equal(item.Price.Truncate(2)) {
			return nil, Validationf(op, "item %q: price %s has more than 2 decimal places", item.ID, item.Price)
		}
		snapshot[i] = item
	}

	var tableCopy *int
	if table != nil {
		n := *table
		tableCopy = &n
	}

	return &Order{
		ID:           id,
		RestaurantID: restaurantID,
		TableNumber:  tableCopy,
		CustomerInfo: customer,
		Items:        snapshot,
		TotalAmount:  SumItems(snapshot),
		CreatedAt:    at,
		UpdatedAt:    at,
		status:       StatusPending,
	}, nil
}

func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (o *Order) Status() Status {
	return o.status
}

// Advance moves the order one step along the lifecycle.
func (o *Order) Advance(to Status, at time.Time) error {
	if err := checkTransition(o.status, to); err != nil {
		return err
	}
	o.status = to
	o.UpdatedAt = at
	return nil
}

// Hydrate sets the status of an order being rebuilt from storage. It refuses
// to overwrite the status of an order that already has one.
func (o *Order) Hydrate(status Status) error {
	if o.status != "" {
		return Validationf("hydrate order", "order %s already has status %s", o.ID, o.status)
	}
	if !status.Valid() {
		return Validationf("hydrate order", "unknown status %q", status)
	}
	o.status = status
	return nil
}

// Clone returns a deep copy, so snapshots handed to subscribers never alias
// store state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	if o.TableNumber != nil {
		n := *o.TableNumber
		cp.TableNumber = &n
	}
	return &cp
}

type orderJSON struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurant_id"`
	TableNumber  *int            `json:"table_number,omitempty"`
	CustomerInfo CustomerInfo    `json:"customer_info"`
	Items        []OrderItem     `json:"items"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(orderJSON{
		ID:           o.ID,
		RestaurantID: o.RestaurantID,
		TableNumber:  o.TableNumber,
		CustomerInfo: o.CustomerInfo,
		Items:        o.Items,
		TotalAmount:  o.TotalAmount,
		Status:       o.status,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	})
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var raw orderJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Status != "" && !raw.Status.Valid() {
		return Validationf("decode order", "unknown status %q", raw.Status)
	}
	*o = Order{
		ID:           raw.ID,
		RestaurantID: raw.RestaurantID,
		TableNumber:  raw.TableNumber,
		CustomerInfo: raw.CustomerInfo,
		Items:        raw.Items,
		TotalAmount:  raw.TotalAmount,
		CreatedAt:    raw.CreatedAt,
		UpdatedAt:    raw.UpdatedAt,
		status:       raw.Status,
	}
	return nil
}

// CreateOrderRequest is the checkout payload. TotalAmount is optional; when
// present it must match the sum of the items.
type CreateOrderRequest struct {
	RestaurantID string           `json:"restaurant_id"`
	TableNumber  *int             `json:"table_number,omitempty"`
	CustomerInfo CustomerInfo     `json:"customer_info"`
	Items        []OrderItem      `json:"items"`
	TotalAmount  *decimal.Decimal `json:"total_amount,omitempty"`
}
