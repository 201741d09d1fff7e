package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"qrmenu/config"
	"qrmenu/qrmenu-cli/internal/printer"
	"qrmenu/session"
)

var (
	tokenUser       string
	tokenRole       string
	tokenRestaurant string
	tokenApproved   bool
	tokenTTL        time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development session token",
	Long: `Mint a session token signed with JWT_SECRET, for local development.

Examples:
  export QRMENU_TOKEN=$(qrmenu token --user owner-1 --role restaurant_owner --approved)
  qrmenu token --user cook-1 --role kitchen_manager --restaurant r1`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (required)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(session.RoleRestaurantOwner), "super_admin, restaurant_owner or kitchen_manager")
	tokenCmd.Flags().StringVar(&tokenRestaurant, "restaurant", "", "restaurant a kitchen manager works for")
	tokenCmd.Flags().BoolVar(&tokenApproved, "approved", false, "mark a restaurant owner as approved")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
	tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return printer.Error("cannot load configuration", err.Error(), nil)
	}
	signed, err := session.NewProvider(cfg.JWTSecret).Issue(session.Session{
		UserID:       tokenUser,
		Role:         session.Role(tokenRole),
		Approved:     tokenApproved,
		RestaurantID: tokenRestaurant,
	}, tokenTTL)
	if err != nil {
		return printer.Error("cannot mint token", err.Error(), nil)
	}
	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}
