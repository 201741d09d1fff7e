package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"qrmenu/qrmenu-cli/internal/cart"
	"qrmenu/qrmenu-cli/internal/printer"
)

var (
	addTable   int
	addYes     bool
	qtyDelta   int
	checkPhone string
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Build an order before checkout",
}

var cartAddCmd = &cobra.Command{
	Use:   "add <restaurant-id> <item-id>",
	Short: "Add one unit of a menu item",
	Long: `Add one unit of a menu item to the cart.

A cart holds items of a single restaurant. Adding from another restaurant asks
before the current cart is discarded; --yes answers for you.

Examples:
  qrmenu cart add r1 soup --table 4
  qrmenu cart add r2 pie --yes`,
	Args: cobra.ExactArgs(2),
	RunE: runCartAdd,
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <item-id>",
	Short: "Remove a line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateCart(func(c *cart.Cart) error { return c.RemoveItem(args[0]) })
	},
}

var cartQtyCmd = &cobra.Command{
	Use:   "qty <item-id> --delta <n>",
	Short: "Change a line's quantity (never below one)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateCart(func(c *cart.Cart) error { return c.UpdateQuantity(args[0], qtyDelta) })
	},
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCart()
		if err != nil {
			return err
		}
		printer.Cart(c)
		return nil
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateCart(func(c *cart.Cart) error { return c.Clear() })
	},
}

var cartNameCmd = &cobra.Command{
	Use:   "name <customer-name>",
	Short: "Set the name the kitchen calls out",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateCart(func(c *cart.Cart) error { return c.SetCustomerName(strings.Join(args, " ")) })
	},
}

var cartCheckoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place the order",
	Args:  cobra.NoArgs,
	RunE:  runCheckout,
}

func init() {
	cartAddCmd.Flags().IntVarP(&addTable, "table", "t", 0, "table number from the scanned code")
	cartAddCmd.Flags().BoolVarP(&addYes, "yes", "y", false, "discard a cart from another restaurant without asking")
	cartQtyCmd.Flags().IntVarP(&qtyDelta, "delta", "d", 1, "amount to add, negative to take away")
	cartCheckoutCmd.Flags().StringVar(&checkPhone, "phone", "", "contact phone for the order")

	cartCmd.AddCommand(cartAddCmd, cartRemoveCmd, cartQtyCmd, cartShowCmd, cartClearCmd, cartNameCmd, cartCheckoutCmd)
	rootCmd.AddCommand(cartCmd)
}

func runCartAdd(cmd *cobra.Command, args []string) error {
	restaurantID, itemID := args[0], args[1]
	var table *int
	if cmd.Flags().Changed("table") {
		table = &addTable
	}

	menu, err := newClient().GetMenu(cmd.Context(), restaurantID, table)
	if err != nil {
		return printer.Error("cannot load menu", err.Error(), nil)
	}
	item, ok := menu.Item(itemID)
	if !ok || !item.Available {
		return printer.Error("item not available", fmt.Sprintf("%s has no available item %q", menu.Restaurant.Name, itemID), nil)
	}

	c, err := loadCart()
	if err != nil {
		return err
	}
	confirm := func(current, next string) bool {
		return addYes || askYesNo(cmd.InOrStdin(), cmd.OutOrStdout(),
			fmt.Sprintf("Your cart holds items from %s. Changing to %s will clear it. Continue?", current, next))
	}
	err = c.AddItem(cart.Item{ID: item.ID, Name: item.Name, Price: item.Price}, restaurantID, confirm)
	if errors.Is(err, cart.ErrRestaurantSwitchDeclined) {
		printer.Info("Cart unchanged")
		return nil
	}
	if err != nil {
		return printer.Error("cannot add item", err.Error(), nil)
	}
	if table != nil {
		if err := c.SetTable(restaurantID, table); err != nil {
			return printer.Error("cannot add item", err.Error(), nil)
		}
	}
	printer.Success("Added %s", item.Name)
	printer.Cart(c)
	return nil
}

func runCheckout(cmd *cobra.Command, args []string) error {
	c, err := loadCart()
	if err != nil {
		return err
	}
	req, err := c.CheckoutRequest(checkPhone)
	if err != nil {
		return printer.Error("nothing to order", err.Error(), []string{"Add items with 'qrmenu cart add <restaurant-id> <item-id>'"})
	}

	created, err := newClient().CreateOrder(cmd.Context(), req)
	if err != nil {
		return printer.Error("order failed", err.Error(), []string{"Your cart was kept; try again"})
	}
	if err := c.Clear(); err != nil {
		printer.Warning("order placed but the cart could not be cleared: %v", err)
	}

	printer.Success("Order %s placed, total %s", created.Order.ID, created.Order.TotalAmount.StringFixed(2))
	printer.Info("Track it at %s", created.TrackingURL)
	printer.Info("or run: qrmenu orders watch %s", created.Order.ID)
	return nil
}

func mutateCart(fn func(*cart.Cart) error) error {
	c, err := loadCart()
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return printer.Error("cart not updated", err.Error(), nil)
	}
	printer.Cart(c)
	return nil
}

func askYesNo(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func parseCount(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, printer.Error("invalid table count", fmt.Sprintf("%q is not a number", arg), nil)
	}
	return n, nil
}
