package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [path]",
		Short: "Validate schema files",
		Long: `Check parses a schema file or every schema file under a directory,
resolves extends and defines each schema. With no path the schema
directory is checked.

Example:
  recordc check
  recordc check schemas/geo.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runCheck,
	}
}

// schemaView is the JSON shape of a checked schema.
type schemaView struct {
	Name   string   `json:"name"`
	Source string   `json:"source,omitempty"`
	Fields []string `json:"fields"`
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	reg, err := a.loadRegistry(path)
	if err != nil {
		return err
	}
	if _, err := reg.Types(); err != nil {
		return userError(err)
	}

	views := []schemaView{}
	for _, name := range reg.Names() {
		s, err := reg.Schema(name)
		if err != nil {
			return userError(err)
		}
		v := schemaView{Name: name, Source: reg.Source(name), Fields: []string{}}
		for _, f := range s.Fields() {
			v.Fields = append(v.Fields, f.Name)
		}
		views = append(views, v)
	}

	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), views)
	}
	out := cmd.OutOrStdout()
	for _, v := range views {
		fmt.Fprintf(out, "%s(%s)\n", v.Name, strings.Join(v.Fields, ", "))
	}
	fmt.Fprintf(out, "%d schema(s) OK\n", len(views))
	return nil
}
