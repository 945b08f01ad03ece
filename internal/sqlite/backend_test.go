package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/records/pkg/record"
	"github.com/mesh-intelligence/records/pkg/types"
)

func positionType(t *testing.T) *record.Type {
	t.Helper()
	s, err := record.DefineSchema("Position", []record.FieldSpec{
		record.Field("name", record.TypeText),
		record.Field("lon", record.TypeFloat, record.Default(0.0)),
		record.Field("lat", record.TypeFloat, record.Default(0.0)),
	}, record.Flags{Init: true, Repr: true, Eq: true, Frozen: true})
	require.NoError(t, err)
	return record.MustDerive(s)
}

// attached returns a backend attached to a fresh data directory with the
// Position type registered.
func attached(t *testing.T, dir string) (*Backend, *record.Type) {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { b.Detach() })

	typ := positionType(t)
	require.NoError(t, b.Register(typ))
	return b, typ
}

func TestBackend_Attach(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	require.NoError(t, b.Attach(config))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(dir, dbFileName))
	assert.NoError(t, err, "records.db created")
	for _, name := range []string{recordsJSONL, schemasJSONL} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Zero(t, info.Size(), "%s starts empty", name)
	}

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
}

func TestBackend_AttachCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b.Detach()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestBackend_AttachValidatesConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{DataDir: t.TempDir()}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: "postgres"}), types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	b, typ := attached(t, t.TempDir())

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "idempotent")

	r, err := typ.New("Oslo", 10.8, 59.9)
	require.NoError(t, err)

	_, err = b.Put("", r)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.Get("x")
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.Delete("x"), types.ErrStoreDetached)
	_, err = b.Fetch("Position", nil)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.Register(typ), types.ErrStoreDetached)
	_, err = b.Schemas()
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestBackend_PutGet(t *testing.T) {
	b, typ := attached(t, t.TempDir())

	oslo, err := typ.New("Oslo", 10.8, 59.9)
	require.NoError(t, err)

	id, err := b.Put("", oslo)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	item, err := b.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, item.ID)
	assert.Equal(t, "Position", item.Schema)
	assert.True(t, item.Record.Equal(oslo), "rebuilt record equals the stored one")
	assert.Same(t, typ, item.Record.Type())
	assert.False(t, item.CreatedAt.IsZero())
}

func TestBackend_PutReplaces(t *testing.T) {
	clock := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	b := NewBackend(WithClock(func() time.Time { return clock }))
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer b.Detach()
	typ := positionType(t)
	require.NoError(t, b.Register(typ))

	oslo, _ := typ.New("Oslo", 10.8, 59.9)
	id, err := b.Put("", oslo)
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	moved, err := record.Replace(oslo, map[string]any{"lat": 60.0})
	require.NoError(t, err)
	got, err := b.Put(id, moved)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	item, err := b.Get(id)
	require.NoError(t, err)
	lat, _ := item.Record.Get("lat")
	assert.Equal(t, 60.0, lat)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), item.CreatedAt)
	assert.Equal(t, time.Date(2025, 1, 15, 11, 30, 0, 0, time.UTC), item.UpdatedAt)
}

func TestBackend_PutErrors(t *testing.T) {
	b, typ := attached(t, t.TempDir())
	oslo, _ := typ.New("Oslo")

	_, err := b.Put("not-a-uuid", oslo)
	assert.ErrorIs(t, err, types.ErrInvalidID)

	_, err = b.Put("", nil)
	assert.ErrorIs(t, err, types.ErrInvalidData)

	other := record.MustDerive(typ.Schema())
	r, _ := other.New("Oslo")
	_, err = b.Put("", r)
	assert.ErrorIs(t, err, types.ErrSchemaNotRegistered, "same name, unregistered type")
}

func TestBackend_GetErrors(t *testing.T) {
	b, _ := attached(t, t.TempDir())

	_, err := b.Get("")
	assert.ErrorIs(t, err, types.ErrInvalidID)
	_, err = b.Get("0190a3d2-0000-7000-8000-000000000000")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBackend_Delete(t *testing.T) {
	b, typ := attached(t, t.TempDir())
	oslo, _ := typ.New("Oslo")
	id, err := b.Put("", oslo)
	require.NoError(t, err)

	require.NoError(t, b.Delete(id))
	_, err = b.Get(id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, b.Delete(id), types.ErrNotFound)
	assert.ErrorIs(t, b.Delete(""), types.ErrInvalidID)
}

func TestBackend_Fetch(t *testing.T) {
	b, typ := attached(t, t.TempDir())
	cities := []struct {
		name     string
		lon, lat float64
	}{
		{"Oslo", 10.8, 59.9},
		{"Bergen", 5.3, 60.4},
		{"Null Island", 0, 0},
		{"Tromsø", 18.9, 69.6},
	}
	for _, c := range cities {
		r, err := typ.New(c.name, c.lon, c.lat)
		require.NoError(t, err)
		_, err = b.Put("", r)
		require.NoError(t, err)
	}

	names := func(items []*types.Item) []string {
		var out []string
		for _, it := range items {
			v, _ := it.Record.Get("name")
			out = append(out, v.(string))
		}
		return out
	}

	tests := []struct {
		name    string
		filter  types.Filter
		want    []string
		wantErr error
	}{
		{name: "all in creation order", filter: nil, want: []string{"Oslo", "Bergen", "Null Island", "Tromsø"}},
		{name: "limit", filter: types.Filter{"limit": 2}, want: []string{"Oslo", "Bergen"}},
		{name: "offset", filter: types.Filter{"offset": 3}, want: []string{"Tromsø"}},
		{name: "limit and offset", filter: types.Filter{"limit": 1, "offset": 1}, want: []string{"Bergen"}},
		{name: "where text", filter: types.Filter{"where": map[string]any{"name": "Bergen"}}, want: []string{"Bergen"}},
		{name: "where number", filter: types.Filter{"where": map[string]any{"lat": 0}}, want: []string{"Null Island"}},
		{name: "where no match", filter: types.Filter{"where": map[string]any{"name": "Paris"}}, want: nil},
		{name: "where unknown field", filter: types.Filter{"where": map[string]any{"alt": 1}}, wantErr: types.ErrInvalidFilter},
		{name: "where non-scalar", filter: types.Filter{"where": map[string]any{"name": []string{"x"}}}, wantErr: types.ErrInvalidFilter},
		{name: "bad where type", filter: types.Filter{"where": "name=Oslo"}, wantErr: types.ErrInvalidFilter},
		{name: "bad limit type", filter: types.Filter{"limit": "2"}, wantErr: types.ErrInvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := b.Fetch("Position", tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(items))
		})
	}

	_, err := b.Fetch("Capital", nil)
	assert.ErrorIs(t, err, types.ErrSchemaNotRegistered)
}

func TestBackend_FetchEmpty(t *testing.T) {
	b, _ := attached(t, t.TempDir())
	items, err := b.Fetch("Position", nil)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestBackend_HookRecomputesOnLoad(t *testing.T) {
	s, err := record.DefineSchema("Tagged", []record.FieldSpec{
		record.Field("name", record.TypeText),
		record.Field("slug", record.TypeText, record.NoInit()),
		record.Field("count", record.TypeInteger, record.Default(int64(0))),
	}, record.DefaultFlags())
	require.NoError(t, err)
	calls := 0
	typ := record.MustDerive(s, record.WithPostInit(func(r *record.Record) error {
		calls++
		name, _ := r.Get("name")
		return r.Set("slug", "tag-"+name.(string))
	}))

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer b.Detach()
	require.NoError(t, b.Register(typ))

	r, err := typ.New("go", int64(3))
	require.NoError(t, err)
	id, err := b.Put("", r)
	require.NoError(t, err)

	item, err := b.Get(id)
	require.NoError(t, err)
	slug, _ := item.Record.Get("slug")
	count, _ := item.Record.Get("count")
	assert.Equal(t, "tag-go", slug)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, 2, calls, "hook runs on construction and on rebuild")
}

func TestBackend_Schemas(t *testing.T) {
	b, typ := attached(t, t.TempDir())
	r, _ := typ.New("Oslo")
	_, err := b.Put("", r)
	require.NoError(t, err)

	infos, err := b.Schemas()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "Position", infos[0].Name)
	assert.Equal(t, []string{"name", "lon", "lat"}, infos[0].Fields)
	assert.Equal(t, 1, infos[0].Records)
	assert.True(t, infos[0].Registered)

	require.NoError(t, b.Register(typ), "registering again is allowed")
	infos, err = b.Schemas()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestBackend_RegisterNil(t *testing.T) {
	b, _ := attached(t, t.TempDir())
	assert.ErrorIs(t, b.Register(nil), types.ErrInvalidData)
}

func TestBackend_FetchWhereTimestamp(t *testing.T) {
	s, err := record.DefineSchema("Event", []record.FieldSpec{
		record.Field("name", record.TypeText),
		record.Field("at", record.TypeTimestamp),
	}, record.DefaultFlags())
	require.NoError(t, err)
	typ := record.MustDerive(s)

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer b.Detach()
	require.NoError(t, b.Register(typ))

	launch := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"launch", "retro"} {
		r, err := typ.New(name, launch.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		_, err = b.Put("", r)
		require.NoError(t, err)
	}

	items, err := b.Fetch("Event", types.Filter{"where": map[string]any{"at": launch}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	name, _ := items[0].Record.Get("name")
	assert.Equal(t, "launch", name)
}
