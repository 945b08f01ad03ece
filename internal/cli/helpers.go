package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mesh-intelligence/records/internal/schemafile"
	"github.com/mesh-intelligence/records/pkg/record"
	"github.com/mesh-intelligence/records/pkg/sqlite"
	"github.com/mesh-intelligence/records/pkg/types"
)

// loadRegistry reads schemas from path, a schema file or a directory. An
// empty path means the resolved schema directory, which may be absent.
func (a *app) loadRegistry(path string) (*schemafile.Registry, error) {
	explicit := path != ""
	if !explicit {
		dir, err := a.schemaDir()
		if err != nil {
			return nil, sysError(fmt.Errorf("resolve schema dir: %w", err))
		}
		path = dir
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err) && !explicit:
		a.log.Debug().Str("schema_dir", path).Msg("schema dir missing")
		return schemafile.Build(nil)
	case err != nil:
		return nil, userError(err)
	}

	var docs []schemafile.Document
	if info.IsDir() {
		docs, err = schemafile.ParseDir(path)
	} else {
		docs, err = schemafile.ParseFile(path)
	}
	if err != nil {
		return nil, userError(err)
	}
	reg, err := schemafile.Build(docs)
	if err != nil {
		return nil, userError(err)
	}
	a.log.Debug().Str("path", path).Int("schemas", len(reg.Names())).Msg("schemas loaded")
	return reg, nil
}

// openStore attaches a store to the resolved data directory and registers
// every type of reg. The caller must Detach it.
func (a *app) openStore(reg *schemafile.Registry) (types.Store, error) {
	dataDir, err := a.dataDir()
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg := types.Config{
		Backend: a.cfg.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}
	if err := cfg.Validate(); err != nil {
		return nil, userError(err)
	}

	store := sqlite.NewBackend(a.log)
	if err := store.Attach(cfg); err != nil {
		return nil, sysError(fmt.Errorf("attach store: %w", err))
	}

	typs, err := reg.Types()
	if err != nil {
		store.Detach()
		return nil, userError(err)
	}
	for _, t := range typs {
		if err := store.Register(t); err != nil {
			store.Detach()
			return nil, sysError(fmt.Errorf("register %s: %w", t.Name(), err))
		}
	}
	return store, nil
}

// parseAssignments turns key=value arguments into field values. Values are
// read as JSON when they parse, else as plain strings, then coerced to the
// field's declared type. Unknown keys pass through for the caller to reject.
func parseAssignments(s *record.Schema, args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected key=value)", arg)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		if f, ok := s.Field(key); ok {
			cv, err := record.Coerce(f.Type, v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			v = cv
		}
		out[key] = v
	}
	return out, nil
}

// isUserFacing reports whether err stems from input rather than the system.
func isUserFacing(err error) bool {
	for _, target := range []error{
		types.ErrNotFound,
		types.ErrInvalidID,
		types.ErrInvalidFilter,
		types.ErrSchemaNotRegistered,
		schemafile.ErrUnknownSchema,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	var fe *record.FieldError
	return errors.As(err, &fe)
}

// classify wraps err with the exit code it deserves.
func classify(err error) error {
	if isUserFacing(err) {
		return userError(err)
	}
	return sysError(err)
}

// itemView is the JSON shape of a stored record.
type itemView struct {
	ID        string         `json:"id"`
	Schema    string         `json:"schema"`
	Fields    *record.Record `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func viewOf(item *types.Item) itemView {
	return itemView{
		ID:        item.ID,
		Schema:    item.Schema,
		Fields:    item.Record,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(w, string(data))
	return nil
}
