package tests

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"qrmenu/qrmenu-cli/internal/cart"
	"qrmenu/qrmenu-cli/internal/mocks"
)

var (
	burger = cart.Item{ID: "burger", Name: "Burger", Price: decimal.RequireFromString("8.50")}
	fries  = cart.Item{ID: "fries", Name: "Fries", Price: decimal.RequireFromString("3.25")}
	pie    = cart.Item{ID: "pie", Name: "Pie", Price: decimal.RequireFromString("4.00")}
)

func setupTestCart(t *testing.T) (*cart.Cart, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), cart.DefaultFileName)
	c, err := cart.Load(cart.NewFileStorage(path))
	require.NoError(t, err)
	return c, path
}

// assertSameLines compares lines by value; prices may differ in scale after
// a JSON round trip.
func assertSameLines(t *testing.T, want, got []cart.Line) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].Price.Equal(got[i].Price), "price of %s", want[i].ID)
	}
}

func accept(string, string) bool  { return true }
func decline(string, string) bool { return false }

func TestCart_AddItem(t *testing.T) {
	c, _ := setupTestCart(t)

	require.NoError(t, c.AddItem(burger, "r1", nil))
	require.NoError(t, c.AddItem(fries, "r1", nil))
	require.NoError(t, c.AddItem(burger, "r1", nil))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "burger", lines[0].ID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "fries", lines[1].ID)
	assert.Equal(t, 1, lines[1].Quantity)
	assert.Equal(t, "r1", c.RestaurantID())
	assert.Equal(t, 3, c.Count())
	assert.True(t, c.Total().Equal(decimal.RequireFromString("20.25")), c.Total().String())
}

func TestCart_AddItemFromAnotherRestaurant(t *testing.T) {
	table := 4

	tests := []struct {
		name      string
		confirm   cart.ConfirmFunc
		wantErr   error
		wantRest  string
		wantLines []string
		wantTable bool
		wantAsked bool
	}{
		{
			name:      "declined keeps the cart",
			confirm:   decline,
			wantErr:   cart.ErrRestaurantSwitchDeclined,
			wantRest:  "r1",
			wantLines: []string{"burger", "fries"},
			wantTable: true,
			wantAsked: true,
		},
		{
			name:      "no confirmation counts as declined",
			confirm:   nil,
			wantErr:   cart.ErrRestaurantSwitchDeclined,
			wantRest:  "r1",
			wantLines: []string{"burger", "fries"},
			wantTable: true,
		},
		{
			name:      "accepted rebinds",
			confirm:   accept,
			wantRest:  "r2",
			wantLines: []string{"pie"},
			wantAsked: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			c, _ := setupTestCart(t)
			require.NoError(t, c.AddItem(burger, "r1", nil))
			require.NoError(t, c.AddItem(fries, "r1", nil))
			require.NoError(t, c.SetTable("r1", &table))

			asked := false
			var confirm cart.ConfirmFunc
			if testCase.confirm != nil {
				confirm = func(current, next string) bool {
					asked = true
					assert.Equal(t, "r1", current)
					assert.Equal(t, "r2", next)
					return testCase.confirm(current, next)
				}
			}

			err := c.AddItem(pie, "r2", confirm)
			if testCase.wantErr != nil {
				assert.ErrorIs(t, err, testCase.wantErr)
			} else {
				assert.NoError(t, err)
			}

			var ids []string
			for _, line := range c.Lines() {
				ids = append(ids, line.ID)
				assert.Equal(t, 1, line.Quantity)
			}
			assert.Equal(t, testCase.wantLines, ids)
			assert.Equal(t, testCase.wantRest, c.RestaurantID())
			assert.Equal(t, testCase.wantTable, c.TableNumber() != nil)
			assert.Equal(t, testCase.wantAsked, asked)
		})
	}
}

func TestCart_EmptiedCartRebindsWithoutAsking(t *testing.T) {
	c, _ := setupTestCart(t)
	require.NoError(t, c.AddItem(burger, "r1", nil))
	require.NoError(t, c.RemoveItem("burger"))

	assert.Equal(t, "", c.RestaurantID())
	require.NoError(t, c.AddItem(pie, "r2", func(string, string) bool {
		t.Fatal("confirmation not expected")
		return false
	}))
	assert.Equal(t, "r2", c.RestaurantID())
}

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name    string
		delta   int
		want    int
		wantErr error
		itemID  string
	}{
		{name: "increase", itemID: "burger", delta: 3, want: 5},
		{name: "decrease", itemID: "burger", delta: -1, want: 1},
		{name: "clamped at one", itemID: "burger", delta: -10, want: 1},
		{name: "zero delta", itemID: "burger", delta: 0, want: 2},
		{name: "unknown item", itemID: "pie", delta: 1, want: 2, wantErr: cart.ErrItemNotInCart},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			c, _ := setupTestCart(t)
			require.NoError(t, c.AddItem(burger, "r1", nil))
			require.NoError(t, c.AddItem(burger, "r1", nil))

			err := c.UpdateQuantity(testCase.itemID, testCase.delta)
			if testCase.wantErr != nil {
				assert.ErrorIs(t, err, testCase.wantErr)
			} else {
				assert.NoError(t, err)
			}
			require.Len(t, c.Lines(), 1)
			assert.Equal(t, testCase.want, c.Lines()[0].Quantity)
		})
	}
}

func TestCart_AddThenRemoveRestoresCart(t *testing.T) {
	c, _ := setupTestCart(t)
	require.NoError(t, c.AddItem(burger, "r1", nil))
	require.NoError(t, c.AddItem(fries, "r1", nil))
	before, total := c.Lines(), c.Total()

	require.NoError(t, c.AddItem(pie, "r1", nil))
	require.NoError(t, c.RemoveItem("pie"))

	assertSameLines(t, before, c.Lines())
	assert.True(t, total.Equal(c.Total()))
	assert.True(t, c.Total().Equal(c.Total()))

	assert.ErrorIs(t, c.RemoveItem("pie"), cart.ErrItemNotInCart)
}

func TestCart_PersistsEveryMutation(t *testing.T) {
	c, path := setupTestCart(t)
	table := 7

	require.NoError(t, c.AddItem(burger, "r1", nil))
	require.NoError(t, c.SetTable("r1", &table))
	require.NoError(t, c.SetCustomerName("  Ana "))
	require.NoError(t, c.UpdateQuantity("burger", 2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "r1", raw["restaurantId"])
	assert.Equal(t, "Ana", raw["name"])

	reloaded, err := cart.Load(cart.NewFileStorage(path))
	require.NoError(t, err)
	assertSameLines(t, c.Lines(), reloaded.Lines())
	assert.Equal(t, "Ana", reloaded.CustomerName())
	require.NotNil(t, reloaded.TableNumber())
	assert.Equal(t, 7, *reloaded.TableNumber())
	assert.True(t, reloaded.Total().Equal(decimal.RequireFromString("25.50")))

	require.NoError(t, reloaded.Clear())
	again, err := cart.Load(cart.NewFileStorage(path))
	require.NoError(t, err)
	assert.True(t, again.IsEmpty())
	assert.Equal(t, "", again.RestaurantID())
	assert.Equal(t, "Ana", again.CustomerName())
}

func TestCart_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), cart.DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o644))

	_, err := cart.Load(cart.NewFileStorage(path))
	assert.ErrorContains(t, err, "corrupt cart file")
}

func TestCart_SaveFailure(t *testing.T) {
	storage := mocks.NewStorage(t)
	storage.On("Load").Return(cart.State{}, nil).Once()
	storage.On("Save", mock.Anything).Return(errors.New("disk full")).Once()

	c, err := cart.Load(storage)
	require.NoError(t, err)

	err = c.AddItem(burger, "r1", nil)
	assert.ErrorContains(t, err, "failed to save cart: disk full")
}

func TestCart_CheckoutRequest(t *testing.T) {
	c, _ := setupTestCart(t)

	_, err := c.CheckoutRequest("")
	assert.ErrorIs(t, err, cart.ErrEmptyCart)

	table := 4
	require.NoError(t, c.AddItem(burger, "r1", nil))
	require.NoError(t, c.AddItem(burger, "r1", nil))
	require.NoError(t, c.AddItem(fries, "r1", nil))
	require.NoError(t, c.SetTable("r1", &table))

	req, err := c.CheckoutRequest("555-0100")
	require.NoError(t, err)
	assert.Equal(t, "r1", req.RestaurantID)
	assert.Equal(t, "", req.CustomerInfo.Name)
	assert.Equal(t, "555-0100", req.CustomerInfo.Phone)
	require.Len(t, req.Items, 2)
	assert.Equal(t, 2, req.Items[0].Quantity)
	require.NotNil(t, req.TotalAmount)
	assert.True(t, req.TotalAmount.Equal(decimal.RequireFromString("20.25")))
	require.NotNil(t, req.TableNumber)
	assert.Equal(t, 4, *req.TableNumber)

	*req.TableNumber = 9
	req.Items[0].Quantity = 50
	assert.Equal(t, 4, *c.TableNumber())
	assert.Equal(t, 2, c.Lines()[0].Quantity)
	assert.False(t, c.IsEmpty(), "checkout leaves clearing to the caller")
}
