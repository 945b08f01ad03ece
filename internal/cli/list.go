package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/records/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list [Schema] [key=value...]",
		Short: "List stored records or the schema catalog",
		Long: `List prints the stored records of a schema, oldest first. Filters are
key=value pairs on scalar fields; multiple filters are ANDed together.
Without a schema name it prints the catalog of schemas in the store.

Example:
  recordc list
  recordc list Position
  recordc list Position name=Oslo --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.runCatalog(cmd)
			}
			return a.runList(cmd, args, limit, offset)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of records to skip")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, args []string, limit, offset int) error {
	reg, err := a.loadRegistry("")
	if err != nil {
		return err
	}
	s, err := reg.Schema(args[0])
	if err != nil {
		return userError(err)
	}
	where, err := parseAssignments(s, args[1:])
	if err != nil {
		return userError(err)
	}

	store, err := a.openStore(reg)
	if err != nil {
		return err
	}
	defer store.Detach()

	filter := types.Filter{"limit": limit, "offset": offset}
	if len(where) > 0 {
		filter["where"] = where
	}
	items, err := store.Fetch(args[0], filter)
	if err != nil {
		return classify(err)
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		views := make([]itemView, 0, len(items))
		for _, item := range items {
			views = append(views, viewOf(item))
		}
		return writeJSON(out, views)
	}
	for _, item := range items {
		fmt.Fprintf(out, "%s  %s\n", item.ID, item.Record)
	}
	return nil
}

// catalogView is the JSON shape of a catalog entry.
type catalogView struct {
	Name       string   `json:"name"`
	Fields     []string `json:"fields"`
	Records    int      `json:"records"`
	Registered bool     `json:"registered"`
}

func (a *app) runCatalog(cmd *cobra.Command) error {
	reg, err := a.loadRegistry("")
	if err != nil {
		return err
	}
	store, err := a.openStore(reg)
	if err != nil {
		return err
	}
	defer store.Detach()

	infos, err := store.Schemas()
	if err != nil {
		return classify(err)
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		views := make([]catalogView, 0, len(infos))
		for _, info := range infos {
			views = append(views, catalogView{
				Name:       info.Name,
				Fields:     info.Fields,
				Records:    info.Records,
				Registered: info.Registered,
			})
		}
		return writeJSON(out, views)
	}
	for _, info := range infos {
		line := fmt.Sprintf("%s(%s)  %d record(s)", info.Name, strings.Join(info.Fields, ", "), info.Records)
		if !info.Registered {
			line += "  [no schema file]"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
