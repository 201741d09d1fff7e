package cart

import (
	"github.com/shopspring/decimal"
)

type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type OrderItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// CheckoutRequest is the body of POST /api/orders.
type CheckoutRequest struct {
	RestaurantID string           `json:"restaurant_id"`
	TableNumber  *int             `json:"table_number,omitempty"`
	CustomerInfo CustomerInfo     `json:"customer_info"`
	Items        []OrderItem      `json:"items"`
	TotalAmount  *decimal.Decimal `json:"total_amount,omitempty"`
}

// CheckoutRequest snapshots the cart into an order payload. The cart itself
// is left untouched; callers Clear it once the order is accepted.
func (c *Cart) CheckoutRequest(phone string) (CheckoutRequest, error) {
	if len(c.lines) == 0 {
		return CheckoutRequest{}, ErrEmptyCart
	}
	items := make([]OrderItem, 0, len(c.lines))
	for _, line := range c.lines {
		items = append(items, OrderItem{
			ID:       line.ID,
			Name:     line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
		})
	}
	total := c.Total()
	req := CheckoutRequest{
		RestaurantID: c.restaurantID,
		CustomerInfo: CustomerInfo{Name: c.customerName, Phone: phone},
		Items:        items,
		TotalAmount:  &total,
	}
	if c.tableNumber != nil {
		n := *c.tableNumber
		req.TableNumber = &n
	}
	return req, nil
}
