package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNewCmd(a *app) *cobra.Command {
	var (
		save bool
		id   string
	)
	cmd := &cobra.Command{
		Use:   "new <Schema> [key=value...]",
		Short: "Construct a record and optionally store it",
		Long: `New builds a record of the named schema from key=value arguments.
Values are read as JSON when they parse, otherwise as text, and converted
to each field's declared type. Omitted fields take their defaults.

Example:
  recordc new Position name=Oslo lon=10.8 lat=59.9
  recordc new Capital name=Madrid country=Spain --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNew(cmd, args, save, id)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the record and print its ID")
	cmd.Flags().StringVar(&id, "id", "", "store under this ID, replacing any record there (implies --save)")
	return cmd
}

func (a *app) runNew(cmd *cobra.Command, args []string, save bool, id string) error {
	reg, err := a.loadRegistry("")
	if err != nil {
		return err
	}
	typ, err := reg.Type(args[0])
	if err != nil {
		return userError(err)
	}
	values, err := parseAssignments(typ.Schema(), args[1:])
	if err != nil {
		return userError(err)
	}
	r, err := typ.NewNamed(values)
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	if !save && id == "" {
		if a.flags.jsonMode {
			return writeJSON(out, r)
		}
		fmt.Fprintln(out, r)
		return nil
	}

	store, err := a.openStore(reg)
	if err != nil {
		return err
	}
	defer store.Detach()

	id, err = store.Put(id, r)
	if err != nil {
		return classify(err)
	}
	a.log.Debug().Str("id", id).Str("schema", typ.Name()).Msg("record stored")

	if a.flags.jsonMode {
		item, err := store.Get(id)
		if err != nil {
			return classify(err)
		}
		return writeJSON(out, viewOf(item))
	}
	fmt.Fprintln(out, id)
	return nil
}
