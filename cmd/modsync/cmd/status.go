package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bianoble/modsync/pkg/modsync"
)

var statusExitCode bool

// errChanges is returned by status --exit-code when any module has local changes.
var errChanges = errors.New("modules have local changes")

var statusCmd = &cobra.Command{
	Use:   "status [variant]",
	Short: "List modules with local changes and checkouts the manifest does not declare",
	Long: `Inspects every module of modsync.<variant> (default: tracking) for unstaged,
uncommitted or untracked changes. Checkouts found under a module directory but
missing from the manifest are listed separately and never count as changes.

Nothing is fetched or modified.`,
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

		report, err := client.Status(cmd.Context(), variant)
		if err != nil {
			return err
		}

		out := io.Writer(os.Stdout)
		if quiet {
			out = io.Discard
		}
		printStatus(out, report)

		if statusExitCode && report.HasChanges() {
			return errChanges
		}
		return nil
	},
}

func printStatus(w io.Writer, report *modsync.StatusReport) {
	if !report.HasChanges() {
		fmt.Fprintln(w, render(successStyle, "No repositories have changes."))
	} else {
		fmt.Fprintln(w, render(titleStyle, "The following repositories have changes:"))
		for _, c := range report.Changes {
			fmt.Fprintf(w, "  + %s => %s %s\n", render(nameStyle, c.Name), c.Path, render(mutedStyle, "("+c.Reason+")"))
		}
	}

	if len(report.Unknown) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, render(warningStyle, "The following modules were unknown:"))
		for _, name := range report.Unknown {
			fmt.Fprintf(w, "  ? %s\n", name)
		}
	}

	if len(report.Missing) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, render(warningStyle, "The following modules are not checked out:"))
		for _, name := range report.Missing {
			fmt.Fprintf(w, "  ! %s\n", name)
		}
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusExitCode, "exit-code", false, "exit non-zero when any module has local changes")
	rootCmd.AddCommand(statusCmd)
}
