package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/pkg/modsync"
)

var checkoutDryRun bool

var checkoutCmd = &cobra.Command{
	Use:   "checkout [variant]",
	Short: "Sync every clean module to the ref its manifest declares",
	Long: `Reads modsync.<variant> (default: tracking), fetches each upstream source
into the shared cache at most once, and syncs every module whose checkout is
absent, points at another source, or is behind its ref.

Modules with local modifications and checkouts the manifest does not declare
are skipped and reported, never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		variant, err := variantArg(args)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		result, err := client.Checkout(cmd.Context(), variant, modsync.CheckoutOptions{DryRun: checkoutDryRun})
		if err != nil {
			return err
		}

		if checkoutDryRun {
			info("Dry run — no modules changed.")
		}

		for _, a := range result.Synced {
			detail("%s  %s (%s)", render(successStyle, "synced"), a.Module, a.State)
		}
		for _, name := range result.Current {
			detail("%s  %s", render(mutedStyle, "current"), name)
		}
		for _, s := range result.Skipped {
			detail("%s  %s: %s", render(warningStyle, "skipped"), s.Module, s.Reason)
		}
		for _, e := range result.Errors {
			errorf("%s: %s", e.Module, e.Err)
		}

		info("")
		info("Checkout complete: %d synced, %d up to date, %d skipped, %d errors.",
			len(result.Synced), len(result.Current), len(result.Skipped), len(result.Errors))

		if len(result.Errors) > 0 {
			return fmt.Errorf("%d module(s) failed", len(result.Errors))
		}
		return nil
	},
}

func init() {
	checkoutCmd.Flags().BoolVar(&checkoutDryRun, "dry-run", false, "show what would be synced without fetching or touching any module")
	rootCmd.AddCommand(checkoutCmd)
}
