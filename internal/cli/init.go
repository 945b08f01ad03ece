package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/records/internal/schemafile"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration, schema and data directories",
		Long:  "Create the config.yaml, the schema directory and the record store.\nRunning init again is harmless.",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	schemaDir, err := a.schemaDir()
	if err != nil {
		return sysError(fmt.Errorf("resolve schema dir: %w", err))
	}
	if err := os.MkdirAll(schemaDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create schema directory: %w", err))
	}

	reg, err := schemafile.Build(nil)
	if err != nil {
		return sysError(err)
	}
	store, err := a.openStore(reg)
	if err != nil {
		return err
	}
	if err := store.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	dataDir, err := a.dataDir()
	if err != nil {
		return sysError(err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Records initialized successfully")
	fmt.Fprintln(out, "  config: ", a.configDir)
	fmt.Fprintln(out, "  schemas:", schemaDir)
	fmt.Fprintln(out, "  data:   ", dataDir)
	return nil
}
