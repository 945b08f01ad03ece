package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored record",
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

			item, err := store.Get(args[0])
			if err != nil {
				return classify(fmt.Errorf("get %s: %w", args[0], err))
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), viewOf(item))
			}
			fmt.Fprintln(cmd.OutOrStdout(), item.Record)
			return nil
		},
	}
}
