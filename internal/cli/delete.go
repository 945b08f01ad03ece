package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry("")
			if err != nil {
				return err
			}
			store, err := a.openStore(reg)
			if err != nil {
				return err
			}
			defer store.Detach()

			if err := store.Delete(args[0]); err != nil {
				return classify(fmt.Errorf("delete %s: %w", args[0], err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
