package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/records/pkg/record"
	"github.com/mesh-intelligence/records/pkg/types"
)

var selectRecords = squirrel.Select("record_id", "schema_name", "fields", "created_at", "updated_at").From("records")

// Put stores r. If id is empty, a UUID v7 is generated; otherwise id must be
// a UUID and an existing record under it is replaced, keeping its
// created_at. The record's type must be the one registered for its schema
// name. Returns the ID used.
// The JSONL file is rewritten before the transaction commits; if that
// write fails the transaction rolls back and the store is unchanged.
func (b *Backend) Put(id string, r *record.Record) (string, error) {
	if r == nil {
		return "", types.ErrInvalidData
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", types.ErrStoreDetached
	}

	name := r.Type().Name()
	if b.types[name] != r.Type() {
		return "", fmt.Errorf("%w: %q", types.ErrSchemaNotRegistered, name)
	}

	if id == "" {
		var err error
		if id, err = newID(); err != nil {
			return "", err
		}
	} else if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidID, id)
	}

	fields, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}

	var exists bool
	err = b.db.QueryRow("SELECT 1 FROM records WHERE record_id = ?", id).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("checking record existence: %w", err)
	}

	tx, err := b.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := timestamp(b.now())
	if exists {
		_, err = tx.Exec(
			"UPDATE records SET schema_name = ?, fields = ?, updated_at = ? WHERE record_id = ?",
			name, string(fields), now, id,
		)
	} else {
		_, err = tx.Exec(
			"INSERT INTO records (record_id, schema_name, fields, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			id, name, string(fields), now, now,
		)
	}
	if err != nil {
		return "", fmt.Errorf("persisting record: %w", err)
	}
	if err := b.persistTableJSONL(tx, "records", recordsJSONL, "created_at, record_id"); err != nil {
		return "", fmt.Errorf("persisting %s: %w", recordsJSONL, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing record: %w", err)
	}
	return id, nil
}

// Get retrieves a record by ID and rebuilds it through its registered type.
func (b *Backend) Get(id string) (*types.Item, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	query, args, err := selectRecords.Where(squirrel.Eq{"record_id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building record query: %w", err)
	}
	item, err := b.hydrate(b.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting record %s: %w", id, err)
	}
	return item, nil
}

// Delete removes a record by ID. Like Put, it leaves the store unchanged
// when the JSONL file cannot be rewritten.
func (b *Backend) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM records WHERE record_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}

	if err := b.persistTableJSONL(tx, "records", recordsJSONL, "created_at, record_id"); err != nil {
		return fmt.Errorf("persisting %s: %w", recordsJSONL, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// Fetch returns the records of one schema ordered by creation time. The
// schema must be registered.
func (b *Backend) Fetch(schema string, filter types.Filter) ([]*types.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	typ, ok := b.types[schema]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrSchemaNotRegistered, schema)
	}

	q := selectRecords.
		Where(squirrel.Eq{"schema_name": schema}).
		OrderBy("created_at ASC", "record_id ASC")

	if v, ok := filter["where"]; ok {
		where, ok := v.(map[string]any)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		conds, err := whereClause(typ, where)
		if err != nil {
			return nil, err
		}
		for _, c := range conds {
			q = q.Where(c)
		}
	}

	limit, err := filterInt(filter, "limit")
	if err != nil {
		return nil, err
	}
	offset, err := filterInt(filter, "offset")
	if err != nil {
		return nil, err
	}
	switch {
	case limit > 0:
		q = q.Limit(uint64(limit))
		if offset > 0 {
			q = q.Offset(uint64(offset))
		}
	case offset > 0:
		// SQLite accepts OFFSET only after a LIMIT.
		q = q.Suffix("LIMIT -1 OFFSET ?", offset)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building %s query: %w", schema, err)
	}
	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching %s records: %w", schema, err)
	}
	defer rows.Close()

	items := []*types.Item{}
	for rows.Next() {
		item, err := b.hydrate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s records: %w", schema, err)
	}
	return items, nil
}

func filterInt(filter types.Filter, key string) (int, error) {
	v, ok := filter[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.(int)
	if !ok {
		return 0, types.ErrInvalidFilter
	}
	return n, nil
}

// whereClause builds equality conditions on stored field values. Field
// names must belong to the schema; values must be scalars.
func whereClause(typ *record.Type, where map[string]any) ([]squirrel.Sqlizer, error) {
	names := make([]string, 0, len(where))
	for name := range where {
		names = append(names, name)
	}
	sort.Strings(names)

	var conds []squirrel.Sqlizer
	for _, name := range names {
		if _, ok := typ.Schema().Field(name); !ok {
			return nil, fmt.Errorf("%w: unknown field %q", types.ErrInvalidFilter, name)
		}
		path := "$." + name
		switch v := where[name].(type) {
		case nil:
			conds = append(conds, squirrel.Expr("json_extract(fields, ?) IS NULL", path))
		case bool:
			n := 0
			if v {
				n = 1
			}
			conds = append(conds, squirrel.Expr("json_extract(fields, ?) = ?", path, n))
		case time.Time:
			conds = append(conds, squirrel.Expr("json_extract(fields, ?) = ?", path, v.Format(time.RFC3339Nano)))
		case string, int, int64, float64:
			conds = append(conds, squirrel.Expr("json_extract(fields, ?) = ?", path, v))
		default:
			return nil, fmt.Errorf("%w: field %q has %T", types.ErrInvalidFilter, name, v)
		}
	}
	return conds, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrate scans one records row and rebuilds its record. The caller must
// hold b.mu.
func (b *Backend) hydrate(row rowScanner) (*types.Item, error) {
	var id, schema, fields, createdAt, updatedAt string
	if err := row.Scan(&id, &schema, &fields, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	typ, ok := b.types[schema]
	if !ok {
		return nil, fmt.Errorf("record %s: %w: %q", id, types.ErrSchemaNotRegistered, schema)
	}
	values, err := decodeFields(fields)
	if err != nil {
		return nil, fmt.Errorf("record %s: decoding fields: %w", id, err)
	}
	r, err := typ.Load(values)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}

	item := &types.Item{ID: id, Schema: schema, Record: r}
	item.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	item.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return item, nil
}

// decodeFields decodes a stored field object, keeping integers as int64.
func decodeFields(text string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return nil, err
	}
	for k, v := range values {
		values[k] = normalizeNumbers(v)
	}
	return values, nil
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i := range x {
			x[i] = normalizeNumbers(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalizeNumbers(x[k])
		}
		return x
	default:
		return v
	}
}
