// File: cmd/selectors.go
package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSelectorsCmd(a *app) *cobra.Command {
	selectorsCmd := &cobra.Command{
		Use:   "selectors",
		Short: "Manages the selectors kept in the store",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lists stored selectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			saved, err := repo.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tLINKS\tUPDATED")
			for _, s := range saved {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Name, len(s.Selector.Nodes), s.UpdatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Prints a stored selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := a.resolveSelector(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), "", sel)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Deletes a stored selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := repo.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.logger.Info("Selector deleted.", zap.String("name", args[0]))
			return nil
		},
	}

	selectorsCmd.AddCommand(listCmd, showCmd, deleteCmd)
	return selectorsCmd
}
