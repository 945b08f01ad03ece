package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/records/pkg/types"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestRecordPersistedToJSONL(t *testing.T) {
	dir := t.TempDir()
	b, typ := attached(t, dir)

	oslo, _ := typ.New("Oslo", 10.8, 59.9)
	id, err := b.Put("", oslo)
	require.NoError(t, err)

	lines := readLines(t, filepath.Join(dir, recordsJSONL))
	require.Len(t, lines, 1)

	var line struct {
		RecordID   string         `json:"record_id"`
		SchemaName string         `json:"schema_name"`
		Fields     map[string]any `json:"fields"`
		CreatedAt  string         `json:"created_at"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &line))
	assert.Equal(t, id, line.RecordID)
	assert.Equal(t, "Position", line.SchemaName)
	assert.Equal(t, map[string]any{"name": "Oslo", "lon": 10.8, "lat": 59.9}, line.Fields, "fields embedded as an object")
	assert.NotEmpty(t, line.CreatedAt)

	schemaLines := readLines(t, filepath.Join(dir, schemasJSONL))
	require.Len(t, schemaLines, 1)
	assert.Contains(t, schemaLines[0], `"schema_name":"Position"`)
	assert.Contains(t, schemaLines[0], `"frozen":true`)
}

func TestRecordUpdateAndDeletePersistedToJSONL(t *testing.T) {
	dir := t.TempDir()
	b, typ := attached(t, dir)

	oslo, _ := typ.New("Oslo", 10.8, 59.9)
	id, err := b.Put("", oslo)
	require.NoError(t, err)

	stockholm, _ := typ.New("Stockholm", 18.1, 59.3)
	_, err = b.Put(id, stockholm)
	require.NoError(t, err)

	lines := readLines(t, filepath.Join(dir, recordsJSONL))
	require.Len(t, lines, 1, "update rewrites the line")
	assert.Contains(t, lines[0], "Stockholm")

	require.NoError(t, b.Delete(id))
	assert.Empty(t, readLines(t, filepath.Join(dir, recordsJSONL)))
}

func TestJSONLLoadedOnAttach(t *testing.T) {
	dir := t.TempDir()

	b1, typ := attached(t, dir)
	oslo, _ := typ.New("Oslo", 10.8, 59.9)
	id, err := b1.Put("", oslo)
	require.NoError(t, err)
	require.NoError(t, b1.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b2.Detach()

	infos, err := b2.Schemas()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Records)
	assert.False(t, infos[0].Registered, "catalog survives, types do not")

	_, err = b2.Get(id)
	assert.ErrorIs(t, err, types.ErrSchemaNotRegistered)

	require.NoError(t, b2.Register(typ))
	item, err := b2.Get(id)
	require.NoError(t, err)
	assert.True(t, item.Record.Equal(oslo))
}

func TestWriteJSONLAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	records := []json.RawMessage{
		json.RawMessage(`{"a":1}`),
		json.RawMessage(`{"b":2}`),
	}
	require.NoError(t, writeJSONL(path, records))
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, readLines(t, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.jsonl")
	content := "{\"ok\":1}\n\nnot json\n{\"ok\":2}\n{\"broken\":\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"ok":1}`, string(records[0]))
	assert.JSONEq(t, `{"ok":2}`, string(records[1]))

	_, err = readJSONL(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestFailedJSONLWriteLeavesStoreUnchanged(t *testing.T) {
	dir := t.TempDir()
	b, typ := attached(t, dir)

	oslo, _ := typ.New("Oslo", 10.8, 59.9)
	id, err := b.Put("", oslo)
	require.NoError(t, err)

	// A directory in place of the file makes the atomic rename fail.
	path := filepath.Join(dir, recordsJSONL)
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	bergen, _ := typ.New("Bergen", 5.3, 60.4)
	_, err = b.Put("", bergen)
	assert.Error(t, err)
	_, err = b.Put(id, bergen)
	assert.Error(t, err)
	assert.Error(t, b.Delete(id))

	items, err := b.Fetch("Position", nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	name, _ := items[0].Record.Get("name")
	assert.Equal(t, "Oslo", name)
}
