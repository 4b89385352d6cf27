package cmd

import (
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record [variant]",
	Short: "Pin the checked-out commit of every module into the stable manifest",
	Long: `Reads modsync.<variant> (default: tracking), takes the commit each declared
module has checked out, and writes modsync.stable with those commits as refs,
in the same format as the source manifest. A stable manifest in another
format is removed so the new one is the only one found.

Fails without writing anything if any declared module is not a git checkout.`,
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

		result, err := client.Record(cmd.Context(), variant)
		if err != nil {
			return err
		}

		info("Recorded %d module(s) to %s", result.Modules, result.Path)
		for _, old := range result.Replaced {
			detail("%s  %s", render(mutedStyle, "removed"), old)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
}
