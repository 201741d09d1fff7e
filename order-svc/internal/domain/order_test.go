package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewOrderValidation(t *testing.T) {
	zero, three := 0, 3
	valid := []OrderItem{{ID: "i1", Name: "Soup", Price: price("4.00"), Quantity: 1}}

	tests := []struct {
		name         string
		restaurantID string
		table        *int
		items        []OrderItem
		wantErr      bool
	}{
		{name: "valid", restaurantID: "r1", table: &three, items: valid},
		{name: "no table", restaurantID: "r1", items: valid},
		{name: "empty items", restaurantID: "r1", items: nil, wantErr: true},
		{name: "missing restaurant", restaurantID: " ", items: valid, wantErr: true},
		{name: "table zero", restaurantID: "r1", table: &zero, items: valid, wantErr: true},
		{
			name:         "zero quantity",
			restaurantID: "r1",
			items:        []OrderItem{{ID: "i1", Price: price("1"), Quantity: 0}},
			wantErr:      true,
		},
		{
			name:         "negative price",
			restaurantID: "r1",
			items:        []OrderItem{{ID: "i1", Price: price("-1"), Quantity: 1}},
			wantErr:      true,
		},
		{
			name:         "sub-cent price",
			restaurantID: "r1",
			items:        []OrderItem{{ID: "i1", Price: price("1.005"), Quantity: 1}},
			wantErr:      true,
		},
		{
			name:         "trailing zeros are whole cents",
			restaurantID: "r1",
			items:        []OrderItem{{ID: "i1", Price: price("1.500"), Quantity: 1}},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			order, err := NewOrder("o1", testCase.restaurantID, testCase.table, CustomerInfo{}, testCase.items, time.Now())
			if testCase.wantErr {
				assert.True(t, errors.Is(err, ErrValidation))
				assert.Nil(t, order)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusPending, order.Status())
			assert.Equal(t, order.CreatedAt, order.UpdatedAt)
		})
	}
}

func TestNewOrderComputesTotalAndCopiesItems(t *testing.T) {
	items := []OrderItem{
		{ID: "a", Name: "Burger", Price: price("8.50"), Quantity: 2},
		{ID: "b", Name: "Fries", Price: price("3.25"), Quantity: 1},
	}
	table := 4
	order, err := NewOrder("o1", "r1", &table, CustomerInfo{Name: "Ana"}, items, time.Now())
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(price("20.25")))

	items[0].Price = price("100")
	table = 9
	assert.True(t, order.Items[0].Price.Equal(price("8.50")), "menu edits after submission do not reach the order")
	assert.Equal(t, 4, *order.TableNumber)
}

func TestDisplayNameFallsBackToGuest(t *testing.T) {
	assert.Equal(t, GuestName, CustomerInfo{}.DisplayName())
	assert.Equal(t, GuestName, CustomerInfo{Name: "   "}.DisplayName())
	assert.Equal(t, "Ana", CustomerInfo{Name: "Ana"}.DisplayName())
}

func TestCloneDoesNotAlias(t *testing.T) {
	table := 2
	order, err := NewOrder("o1", "r1", &table, CustomerInfo{}, []OrderItem{
		{ID: "a", Price: price("1"), Quantity: 1},
	}, time.Now())
	require.NoError(t, err)

	cp := order.Clone()
	cp.Items[0].Quantity = 5
	*cp.TableNumber = 7

	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.Equal(t, 2, *order.TableNumber)
	assert.Equal(t, order.Status(), cp.Status())
}

func TestOrderJSON(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	order, err := NewOrder("o1", "r1", nil, CustomerInfo{Name: "Ana", Phone: "555"}, []OrderItem{
		{ID: "a", Name: "Tea", Price: price("2.5"), Quantity: 2},
	}, at)
	require.NoError(t, err)

	data, err := json.Marshal(order)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "pending", raw["status"])
	assert.Equal(t, "r1", raw["restaurant_id"])
	assert.NotContains(t, raw, "table_number")

	var decoded Order
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, StatusPending, decoded.Status())
	assert.True(t, decoded.TotalAmount.Equal(order.TotalAmount))

	err = json.Unmarshal([]byte(`{"id":"x","status":"shipped"}`), &decoded)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := StoreErr("get order", cause)
	assert.True(t, errors.Is(err, ErrStore))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "get order: store failure: connection reset", err.Error())

	notFound := NotFound("get order", "order", "o1")
	assert.Same(t, notFound, StoreErr("list", notFound), "typed errors pass through")
	assert.True(t, IsNotFound(notFound))
	assert.Nil(t, StoreErr("noop", nil))
}
