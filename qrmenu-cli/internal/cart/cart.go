// Package cart accumulates menu items for one restaurant before checkout.
// Every mutation is written through to a Storage so the cart survives between
// CLI invocations.
package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrRestaurantSwitchDeclined = errors.New("restaurant switch declined")
	ErrEmptyCart                = errors.New("cart is empty")
	ErrItemNotInCart            = errors.New("item not in cart")
)

// Item is the menu item snapshot taken when it is added.
type Item struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Line struct {
	Item
	Quantity int `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ConfirmFunc is asked before a cart bound to current is discarded for next.
type ConfirmFunc func(current, next string) bool

type Cart struct {
	restaurantID string
	tableNumber  *int
	customerName string
	lines        []Line
	byID         map[string]int

	storage Storage
}

// Load rehydrates the cart kept by storage.
func Load(storage Storage) (*Cart, error) {
	state, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	c := &Cart{
		restaurantID: state.RestaurantID,
		tableNumber:  state.TableNumber,
		customerName: state.Name,
		storage:      storage,
	}
	for _, line := range state.Items {
		if line.ID == "" || line.Quantity < 1 {
			continue
		}
		c.lines = append(c.lines, line)
	}
	c.reindex()
	if len(c.lines) == 0 {
		c.restaurantID, c.tableNumber = "", nil
	}
	return c, nil
}

func (c *Cart) RestaurantID() string { return c.restaurantID }
func (c *Cart) TableNumber() *int    { return c.tableNumber }
func (c *Cart) CustomerName() string { return c.customerName }
func (c *Cart) IsEmpty() bool        { return len(c.lines) == 0 }

// Lines returns a copy of the lines in the order they were first added.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// AddItem adds one unit of item. A non-empty cart bound to another
// restaurant is only rebound when confirm agrees; the old lines are dropped.
func (c *Cart) AddItem(item Item, restaurantID string, confirm ConfirmFunc) error {
	if item.ID == "" || restaurantID == "" {
		return fmt.Errorf("item id and restaurant id are required")
	}
	if len(c.lines) > 0 && c.restaurantID != restaurantID {
		if confirm == nil || !confirm(c.restaurantID, restaurantID) {
			return ErrRestaurantSwitchDeclined
		}
		c.lines, c.tableNumber = nil, nil
		c.reindex()
	}

	c.restaurantID = restaurantID
	if c.byID == nil {
		c.reindex()
	}
	if i, ok := c.byID[item.ID]; ok {
		c.lines[i].Quantity++
	} else {
		c.byID[item.ID] = len(c.lines)
		c.lines = append(c.lines, Line{Item: item, Quantity: 1})
	}
	return c.save()
}

// SetTable records the table the menu was scanned at. It only applies to the
// restaurant the cart is bound to.
func (c *Cart) SetTable(restaurantID string, table *int) error {
	if c.restaurantID != restaurantID {
		return nil
	}
	c.tableNumber = table
	return c.save()
}

// UpdateQuantity changes a line by delta, never going below one.
func (c *Cart) UpdateQuantity(itemID string, delta int) error {
	i, ok := c.byID[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotInCart, itemID)
	}
	c.lines[i].Quantity = max(1, c.lines[i].Quantity+delta)
	return c.save()
}

func (c *Cart) RemoveItem(itemID string) error {
	i, ok := c.byID[itemID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotInCart, itemID)
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.reindex()
	if len(c.lines) == 0 {
		c.restaurantID, c.tableNumber = "", nil
	}
	return c.save()
}

// Total is recomputed from the lines on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (c *Cart) Count() int {
	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

// Clear empties the cart and unbinds it. The customer name is kept.
func (c *Cart) Clear() error {
	c.lines, c.restaurantID, c.tableNumber = nil, "", nil
	c.reindex()
	return c.save()
}

func (c *Cart) SetCustomerName(name string) error {
	c.customerName = strings.TrimSpace(name)
	return c.save()
}

func (c *Cart) reindex() {
	c.byID = make(map[string]int, len(c.lines))
	for i, line := range c.lines {
		c.byID[line.ID] = i
	}
}

func (c *Cart) state() State {
	return State{
		RestaurantID: c.restaurantID,
		TableNumber:  c.tableNumber,
		Name:         c.customerName,
		Items:        c.Lines(),
	}
}

func (c *Cart) save() error {
	if c.storage == nil {
		return nil
	}
	if err := c.storage.Save(c.state()); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
