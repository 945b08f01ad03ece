package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/records/pkg/record"
	"github.com/mesh-intelligence/records/pkg/types"
)

// catalogField is the schemas.jsonl form of one field.
type catalogField struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Init bool   `json:"init"`
}

// catalogFlags is the schemas.jsonl form of record.Flags.
type catalogFlags struct {
	Init       bool `json:"init"`
	Repr       bool `json:"repr"`
	Eq         bool `json:"eq"`
	Order      bool `json:"order"`
	Frozen     bool `json:"frozen"`
	UnsafeHash bool `json:"unsafe_hash"`
}

// Register makes typ known to the store and records its schema in the
// catalog. A later Register under the same schema name replaces the type
// used to rebuild stored records.
func (b *Backend) Register(typ *record.Type) error {
	if typ == nil {
		return types.ErrInvalidData
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	s := typ.Schema()
	fields := make([]catalogField, 0, s.Len())
	for _, f := range s.Fields() {
		fields = append(fields, catalogField{Name: f.Name, Type: string(f.Type), Init: f.Init})
	}
	fl := s.Flags()
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshaling fields of %s: %w", s.Name(), err)
	}
	flagsJSON, err := json.Marshal(catalogFlags(fl))
	if err != nil {
		return fmt.Errorf("marshaling flags of %s: %w", s.Name(), err)
	}

	_, err = b.db.Exec(
		`INSERT INTO schemas (schema_name, fields, flags, registered_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(schema_name) DO UPDATE SET fields = excluded.fields, flags = excluded.flags`,
		s.Name(), string(fieldsJSON), string(flagsJSON), timestamp(b.now()),
	)
	if err != nil {
		return fmt.Errorf("registering schema %s: %w", s.Name(), err)
	}
	b.types[s.Name()] = typ

	if err := b.persistTableJSONL(b.db, "schemas", schemasJSONL, "schema_name"); err != nil {
		return fmt.Errorf("persisting %s: %w", schemasJSONL, err)
	}
	return nil
}

// Schemas lists the catalog: every schema ever registered in this data
// directory, with the number of records stored under it.
func (b *Backend) Schemas() ([]types.SchemaInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.Query(`SELECT s.schema_name, s.fields, s.registered_at,
		(SELECT COUNT(*) FROM records r WHERE r.schema_name = s.schema_name)
		FROM schemas s ORDER BY s.schema_name`)
	if err != nil {
		return nil, fmt.Errorf("querying schemas: %w", err)
	}
	defer rows.Close()

	infos := []types.SchemaInfo{}
	for rows.Next() {
		var (
			name, fieldsJSON, registeredAt string
			count                          int
		)
		if err := rows.Scan(&name, &fieldsJSON, &registeredAt, &count); err != nil {
			return nil, fmt.Errorf("scanning schema: %w", err)
		}
		var fields []catalogField
		if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
			return nil, fmt.Errorf("decoding fields of %s: %w", name, err)
		}
		info := types.SchemaInfo{Name: name, Records: count}
		for _, f := range fields {
			info.Fields = append(info.Fields, f.Name)
		}
		info.RegisteredAt, _ = time.Parse(time.RFC3339Nano, registeredAt)
		_, info.Registered = b.types[name]
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schemas: %w", err)
	}
	return infos, nil
}

// jsonColumns hold JSON text that is embedded as a JSON value in JSONL.
var jsonColumns = map[string]bool{
	"fields": true,
	"flags":  true,
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// persistTableJSONL reads all rows from table through q and writes them to
// fileName in the data directory using the atomic write pattern. Passing
// an open transaction writes its uncommitted rows.
// The caller must hold b.mu.
func (b *Backend) persistTableJSONL(q querier, table, fileName, orderBy string) error {
	var columns []string
	for _, m := range jsonlTableMapping {
		if m.table == table {
			columns = m.columns
		}
	}
	if columns == nil {
		return fmt.Errorf("no JSONL mapping for table %s", table)
	}

	rows, err := q.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(columns, ", "), table, orderBy))
	if err != nil {
		return fmt.Errorf("querying %s for JSONL: %w", table, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scanning %s row: %w", table, err)
		}
		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			switch {
			case !values[i].Valid:
				rec[col] = nil
			case jsonColumns[col]:
				rec[col] = json.RawMessage(values[i].String)
			default:
				rec[col] = values[i].String
			}
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling %s row: %w", table, err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s for JSONL: %w", table, err)
	}

	return writeJSONL(filepath.Join(b.config.DataDir, fileName), records)
}
