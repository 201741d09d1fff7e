package commands

import (
	"context"

	"github.com/spf13/cobra"

	"qrmenu/qrmenu-cli/internal/client"
	"qrmenu/qrmenu-cli/internal/printer"
)

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Manage table QR codes",
}

var qrBatchCmd = &cobra.Command{
	Use:   "batch <restaurant-id> <tables>",
	Short: "Generate codes for tables 1..n",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args, (*client.Client).GenerateTableCodes)
	},
}

var qrRegenerateCmd = &cobra.Command{
	Use:   "regenerate <restaurant-id> <tables>",
	Short: "Replace every table code with codes for tables 1..n",
	Long: `Replace every table code of a restaurant with fresh codes for tables 1..n.

The old codes and their scan counts are dropped only when at least one new
code was produced.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args, (*client.Client).RegenerateTableCodes)
	},
}

var qrScanCmd = &cobra.Command{
	Use:   "scan <menu-url>",
	Short: "Record a scan of a printed code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracked, err := newClient().TrackScan(cmd.Context(), args[0])
		if err != nil {
			return printer.Error("scan not recorded", err.Error(), nil)
		}
		if !tracked {
			printer.Warning("no code matches %s", args[0])
			return nil
		}
		printer.Success("scan recorded")
		return nil
	},
}

func init() {
	qrCmd.AddCommand(qrBatchCmd, qrRegenerateCmd, qrScanCmd)
	rootCmd.AddCommand(qrCmd)
}

type batchFunc func(c *client.Client, ctx context.Context, restaurantID string, count int) (*client.BatchResult, error)

func runBatch(cmd *cobra.Command, args []string, run batchFunc) error {
	count, err := parseCount(args[1])
	if err != nil {
		return err
	}
	result, err := run(newClient(), cmd.Context(), args[0], count)
	if err != nil {
		return printer.Error("codes not generated", err.Error(), nil)
	}
	printer.Batch(*result)
	return nil
}
