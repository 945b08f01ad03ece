package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/records/internal/gen"
)

func newGenCmd(a *app) *cobra.Command {
	var opts gen.Options
	var out string
	cmd := &cobra.Command{
		Use:   "gen <Schema>",
		Short: "Generate a Go type for a schema",
		Long: `Gen writes Go source for the named schema: a struct, a constructor
with options for defaulted fields, and the Equal, Compare and String
methods its flags call for.

Example:
  recordc gen Position --package geo --out geo/position_gen.go`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry("")
			if err != nil {
				return err
			}
			s, err := reg.Schema(args[0])
			if err != nil {
				return userError(err)
			}
			if opts.Package == "" {
				opts.Package = strings.ToLower(args[0])
			}
			if src := reg.Source(args[0]); src != "" {
				opts.Source = filepath.Base(src)
			}

			code, err := gen.Generate(s, opts)
			if err != nil {
				return userError(err)
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(code)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return sysError(err)
			}
			if err := os.WriteFile(out, code, 0o644); err != nil {
				return sysError(fmt.Errorf("write %s: %w", out, err))
			}
			a.log.Info().Str("schema", args[0]).Str("file", out).Msg("generated")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Package, "package", "", "package name (default: schema name in lower case)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.PostInit, "post-init", false, "call a hand-written postInit method from the constructor")
	return cmd
}
