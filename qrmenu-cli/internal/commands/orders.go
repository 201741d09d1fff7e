package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"qrmenu/qrmenu-cli/internal/client"
	"qrmenu/qrmenu-cli/internal/printer"
)

var (
	watchRestaurant string
	watchStatus     string
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Follow and move orders",
}

var ordersWatchCmd = &cobra.Command{
	Use:   "watch [order-id]",
	Short: "Stream live order updates",
	Long: `Stream live order updates until interrupted.

With an order id, follows that order (no token needed). With --restaurant,
follows the restaurant's orders newest first, optionally only one status.

Examples:
  qrmenu orders watch 6f1c...
  qrmenu orders watch --restaurant r1 --status pending`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrdersWatch,
}

var ordersAdvanceCmd = &cobra.Command{
	Use:   "advance <order-id>",
	Short: "Move an order to its next status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		order, err := newClient().AdvanceOrder(cmd.Context(), args[0])
		return reportOrder(order, err)
	},
}

var ordersStatusCmd = &cobra.Command{
	Use:   "status <order-id> <status>",
	Short: "Set an order's status (must be the next one)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		order, err := newClient().UpdateStatus(cmd.Context(), args[0], args[1])
		return reportOrder(order, err)
	},
}

func init() {
	ordersWatchCmd.Flags().StringVarP(&watchRestaurant, "restaurant", "r", "", "restaurant whose orders to follow")
	ordersWatchCmd.Flags().StringVarP(&watchStatus, "status", "s", "", "only orders in this status")
	ordersCmd.AddCommand(ordersWatchCmd, ordersAdvanceCmd, ordersStatusCmd)
	rootCmd.AddCommand(ordersCmd)
}

func runOrdersWatch(cmd *cobra.Command, args []string) error {
	if (len(args) == 1) == (watchRestaurant != "") {
		return printer.Error("nothing to watch", "Give either an order id or --restaurant", nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	show := func(s client.Snapshot) error {
		printer.Snapshot(s)
		return nil
	}
	var err error
	if len(args) == 1 {
		err = newClient().WatchOrder(ctx, args[0], show)
	} else {
		err = newClient().WatchRestaurant(ctx, watchRestaurant, watchStatus, show)
	}
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return printer.Error("watch ended", err.Error(), nil)
}

func reportOrder(order *client.Order, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		return printer.Error("status not changed", apiErr.Message, []string{"Someone else moved the order; check it with 'qrmenu orders watch <order-id>'"})
	}
	if err != nil {
		return printer.Error("status not changed", err.Error(), nil)
	}
	printer.Success("Order %s is now %s", order.ID, printer.Status(order.Status))
	return nil
}
