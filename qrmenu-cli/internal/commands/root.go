package commands

import (
	"os"

	"github.com/spf13/cobra"

	"qrmenu/qrmenu-cli/internal/cart"
	"qrmenu/qrmenu-cli/internal/client"
	"qrmenu/qrmenu-cli/internal/printer"
)

var (
	serverURL string
	token     string
	cartPath  string
)

var rootCmd = &cobra.Command{
	Use:   "qrmenu",
	Short: "qrmenu - order from a table and follow the kitchen",
	Long: `qrmenu is the command line companion of order-svc.

Customers build a cart from a restaurant menu and check out. Staff follow
orders live, move them through the kitchen, and manage table QR codes.

The server and token default to QRMENU_SERVER and QRMENU_TOKEN.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Errors are already printed by the printer.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", getEnv("QRMENU_SERVER", "http://localhost:8080"), "order-svc base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("QRMENU_TOKEN"), "staff session token")
	rootCmd.PersistentFlags().StringVar(&cartPath, "cart", getEnv("QRMENU_CART", cart.DefaultPath()), "cart file")
}

func newClient() *client.Client {
	c := client.New(serverURL, token, nil)
	c.OnStreamError = func(err error) { printer.Warning("%v", err) }
	return c
}

func loadCart() (*cart.Cart, error) {
	c, err := cart.Load(cart.NewFileStorage(cartPath))
	if err != nil {
		return nil, printer.Error("cannot read cart", err.Error(), []string{"Run 'qrmenu cart clear' to start over"})
	}
	return c, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
