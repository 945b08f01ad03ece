package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the recordc release.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/records"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the recordc version",
		Args:  cobra.NoArgs,
		// version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "recordc v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
