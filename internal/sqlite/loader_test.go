package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/records/pkg/types"
)

func TestLoadJSONLUnknownFields(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		jsonl    string
		countSQL string
		wantRows int
		checkSQL string
		checkVal string
	}{
		{
			name:     "records with unknown keys load successfully",
			file:     recordsJSONL,
			jsonl:    `{"record_id":"0190a3d2-0000-7000-8000-000000000001","schema_name":"Position","fields":{"name":"Oslo","lon":10.8,"lat":59.9},"created_at":"2025-01-15T10:30:00Z","updated_at":"2025-01-15T10:30:00Z","future_key":"x"}` + "\n",
			countSQL: "SELECT COUNT(*) FROM records",
			wantRows: 1,
			checkSQL: "SELECT json_extract(fields, '$.name') FROM records",
			checkVal: "Oslo",
		},
		{
			name:     "schemas with unknown keys load successfully",
			file:     schemasJSONL,
			jsonl:    `{"schema_name":"Position","fields":[{"name":"name","type":"text","init":true}],"flags":{"eq":true},"registered_at":"2025-01-15T10:30:00Z","owner":"ops"}` + "\n",
			countSQL: "SELECT COUNT(*) FROM schemas",
			wantRows: 1,
			checkSQL: "SELECT json_extract(flags, '$.eq') FROM schemas",
			checkVal: "1",
		},
		{
			name: "lines missing required columns are skipped",
			file: recordsJSONL,
			jsonl: `{"record_id":"a","schema_name":"Position"}
{"record_id":"b","schema_name":"Position","fields":{},"created_at":"t","updated_at":"t"}
`,
			countSQL: "SELECT COUNT(*) FROM records",
			wantRows: 1,
			checkSQL: "SELECT record_id FROM records",
			checkVal: "b",
		},
		{
			name: "duplicate ids keep the first line",
			file: recordsJSONL,
			jsonl: `{"record_id":"a","schema_name":"First","fields":{},"created_at":"t","updated_at":"t"}
{"record_id":"a","schema_name":"Second","fields":{},"created_at":"t","updated_at":"t"}
`,
			countSQL: "SELECT COUNT(*) FROM records",
			wantRows: 1,
			checkSQL: "SELECT schema_name FROM records",
			checkVal: "First",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.jsonl), 0o644))

			b := NewBackend()
			require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
			defer b.Detach()

			var count int
			require.NoError(t, b.db.QueryRow(tt.countSQL).Scan(&count))
			assert.Equal(t, tt.wantRows, count)

			var val string
			require.NoError(t, b.db.QueryRow(tt.checkSQL).Scan(&val))
			assert.Equal(t, tt.checkVal, val)
		})
	}
}

func TestLoadKeepsLargeIntegers(t *testing.T) {
	dir := t.TempDir()
	line := `{"record_id":"a","schema_name":"Counter","fields":{"n":9007199254740993},"created_at":"t","updated_at":"t"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, recordsJSONL), []byte(line), 0o644))

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b.Detach()

	var fields string
	require.NoError(t, b.db.QueryRow("SELECT fields FROM records").Scan(&fields))
	assert.JSONEq(t, `{"n":9007199254740993}`, fields)

	values, err := decodeFields(fields)
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), values["n"])
}
