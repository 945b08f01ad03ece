package gen

import (
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/records/internal/schemafile"
	"github.com/mesh-intelligence/records/pkg/record"
)

func position(t *testing.T, flags record.Flags) *record.Schema {
	t.Helper()
	s, err := record.DefineSchema("Position", []record.FieldSpec{
		record.Field("name", record.TypeText),
		record.Field("lon", record.TypeFloat, record.Default(0.0)),
		record.Field("lat", record.TypeFloat, record.Default(0.0)),
	}, flags)
	require.NoError(t, err)
	return s
}

// generate renders s and checks the result parses as Go.
func generate(t *testing.T, s *record.Schema, opts Options) (string, []string) {
	t.Helper()
	src, err := Generate(s, opts)
	require.NoError(t, err)

	f, err := parser.ParseFile(token.NewFileSet(), "record.go", src, parser.AllErrors)
	require.NoError(t, err, string(src))
	var imports []string
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		require.NoError(t, err)
		imports = append(imports, path)
	}
	return string(src), imports
}

func TestGenerateFrozen(t *testing.T) {
	flags := record.DefaultFlags()
	flags.Frozen = true
	src, imports := generate(t, position(t, flags), Options{Package: "geo", Source: "geo.yaml"})

	assert.True(t, strings.HasPrefix(src, "// Code generated by recordc from geo.yaml; DO NOT EDIT.\n"))
	assert.Contains(t, src, "package geo\n")
	assert.Equal(t, []string{"fmt"}, imports)

	assert.Regexp(t, `type Position struct \{\n\tname\s+string\n\tlon\s+float64\n\tlat\s+float64\n\}`, src)
	assert.Contains(t, src, "func (r *Position) Name() string { return r.name }")
	assert.Contains(t, src, "func (r *Position) Lat() float64 { return r.lat }")

	assert.Contains(t, src, "func NewPosition(name string, opts ...PositionOption) *Position {")
	assert.Regexp(t, `name:\s+name,`, src)
	assert.Regexp(t, `lon:\s+0,`, src)
	assert.Contains(t, src, "func WithPositionLon(v float64) PositionOption {")
	assert.Contains(t, src, "func WithPositionLat(v float64) PositionOption {")
	assert.NotContains(t, src, "WithPositionName")

	assert.Contains(t, src, "func (r *Position) Equal(other *Position) bool {")
	assert.Contains(t, src, "r.name == other.name")
	assert.NotContains(t, src, "Compare(")
	assert.Contains(t, src, `return fmt.Sprintf("Position(name=%q, lon=%v, lat=%v)", r.name, r.lon, r.lat)`)
	assert.NotContains(t, src, "postInit")
}

func TestGenerateMutable(t *testing.T) {
	src, _ := generate(t, position(t, record.DefaultFlags()), Options{Package: "geo"})

	assert.True(t, strings.HasPrefix(src, "// Code generated by recordc; DO NOT EDIT.\n"))
	assert.Regexp(t, `\tName\s+string\n`, src)
	assert.NotContains(t, src, "func (r *Position) Name()")
	assert.Contains(t, src, "r.Lon == other.Lon")
}

func TestGenerateOrder(t *testing.T) {
	s, err := record.DefineSchema("Card", []record.FieldSpec{
		record.Field("sort_index", record.TypeInteger, record.NoInit(), record.NoRepr()),
		record.Field("rank", record.TypeText),
		record.Field("face_up", record.TypeBoolean, record.Default(false)),
		record.Field("dealt", record.TypeTimestamp, record.NoInit()),
		record.Field("note", record.TypeText, record.NoCompare(), record.Default("")),
	}, record.Flags{Init: true, Repr: true, Eq: true, Order: true})
	require.NoError(t, err)

	src, imports := generate(t, s, Options{Package: "cards", PostInit: true})
	assert.Equal(t, []string{"cmp", "fmt", "time"}, imports)

	assert.Contains(t, src, "func NewCard(rank string, opts ...CardOption) *Card {")
	assert.Contains(t, src, "r.postInit()")
	assert.Contains(t, src, "if c := cmp.Compare(r.SortIndex, other.SortIndex); c != 0 {")
	assert.Contains(t, src, "if c := r.Dealt.Compare(other.Dealt); c != 0 {")
	assert.Contains(t, src, "if other.FaceUp {")
	assert.NotContains(t, src, "r.Note == other.Note")
	assert.Contains(t, src, "r.Dealt.Equal(other.Dealt)")
	assert.Contains(t, src, `"Card(rank=%q, face_up=%v, dealt=%v, note=%q)"`)

	idx := strings.Index(src, "SortIndex, other.SortIndex")
	rank := strings.Index(src, "Rank, other.Rank")
	assert.Less(t, idx, rank, "declaration order decides")
}

func TestGenerateDefaults(t *testing.T) {
	s, err := record.DefineSchema("Entry", []record.FieldSpec{
		record.Field("type", record.TypeText),
		record.Field("id", record.TypeText,
			record.DefaultFactory(func() any { return "" }), record.Meta(schemafile.FactoryKey, "uuid")),
		record.Field("tags", record.TypeList, record.DefaultFactory(func() any { return []string{} })),
		record.Field("extra", record.TypeAny, record.Default(nil)),
		record.Field("weight", record.TypeAny, record.Default(1.5)),
		record.Field("count", record.TypeInteger, record.NoInit(), record.Default(0)),
		record.Field("data", record.TypeMap, record.Default(nil)),
	}, record.Flags{Init: true, Eq: true, Frozen: true})
	require.NoError(t, err)

	src, imports := generate(t, s, Options{Package: "ledger"})
	assert.Equal(t, []string{"github.com/google/uuid", "reflect"}, imports)

	assert.Contains(t, src, "func NewEntry(type_ string, opts ...EntryOption) *Entry {")
	assert.Contains(t, src, "func (r *Entry) Type() string { return r.type_ }")
	assert.Regexp(t, `id:\s+uuid\.Must\(uuid\.NewV7\(\)\)\.String\(\),`, src)
	assert.Regexp(t, `tags:\s+\[\]any\{\},`, src)
	assert.Regexp(t, `extra:\s+nil,`, src)
	assert.Regexp(t, `weight:\s+float64\(1\.5\),`, src)
	assert.Regexp(t, `count:\s+0,`, src)
	assert.NotContains(t, src, "WithEntryCount", "non-init fields take no option")
	assert.Contains(t, src, "reflect.DeepEqual(r.tags, other.tags)")
	assert.NotContains(t, src, "String() string", "repr disabled")
}

func TestGenerateWithoutInit(t *testing.T) {
	s, err := record.DefineSchema("Settings", []record.FieldSpec{
		record.Field("debug", record.TypeBoolean, record.Default(false)),
	}, record.Flags{Repr: true})
	require.NoError(t, err)

	src, _ := generate(t, s, Options{Package: "config"})
	assert.NotContains(t, src, "NewSettings")
	assert.NotContains(t, src, "SettingsOption")
	assert.NotContains(t, src, "Equal(")
}

func TestGenerateNoFields(t *testing.T) {
	s, err := record.DefineSchema("Empty", nil, record.DefaultFlags())
	require.NoError(t, err)

	src, imports := generate(t, s, Options{Package: "empty"})
	assert.Empty(t, imports)
	assert.Contains(t, src, "func NewEmpty(opts ...EmptyOption) *Empty {")
	assert.Contains(t, src, `return "Empty()"`)
	assert.Contains(t, src, "return true")
}

func TestGenerateErrors(t *testing.T) {
	ordered := record.Flags{Init: true, Repr: true, Eq: true, Order: true}

	tests := []struct {
		name    string
		fields  []record.FieldSpec
		flags   record.Flags
		wantErr error
	}{
		{
			name:    "list field under order",
			fields:  []record.FieldSpec{record.Field("items", record.TypeList)},
			flags:   ordered,
			wantErr: ErrUnorderableField,
		},
		{
			name:    "unordered list field is fine without order",
			fields:  []record.FieldSpec{record.Field("items", record.TypeList)},
			flags:   record.DefaultFlags(),
			wantErr: nil,
		},
		{
			name:    "list field excluded from comparison",
			fields:  []record.FieldSpec{record.Field("items", record.TypeList, record.NoCompare())},
			flags:   ordered,
			wantErr: nil,
		},
		{
			name: "timestamp literal default",
			fields: []record.FieldSpec{
				record.Field("at", record.TypeTimestamp, record.Default(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
			},
			flags:   record.DefaultFlags(),
			wantErr: ErrUnsupportedDefault,
		},
		{
			name: "unnamed factory for text",
			fields: []record.FieldSpec{
				record.Field("id", record.TypeText, record.DefaultFactory(func() any { return "x" })),
			},
			flags:   record.DefaultFlags(),
			wantErr: ErrUnsupportedDefault,
		},
		{
			name:    "nil default for text",
			fields:  []record.FieldSpec{record.Field("label", record.TypeText, record.Default(nil))},
			flags:   record.DefaultFlags(),
			wantErr: ErrUnsupportedDefault,
		},
		{
			name:    "field named like a generated method",
			fields:  []record.FieldSpec{record.Field("string", record.TypeText)},
			flags:   record.DefaultFlags(),
			wantErr: ErrNameCollision,
		},
		{
			name: "fields with the same Go name",
			fields: []record.FieldSpec{
				record.Field("a_b", record.TypeText),
				record.Field("aB", record.TypeText),
			},
			flags:   record.DefaultFlags(),
			wantErr: ErrNameCollision,
		},
		{
			name: "renamed parameter matches another field",
			fields: []record.FieldSpec{
				record.Field("r", record.TypeText),
				record.Field("r_value", record.TypeText),
			},
			flags:   record.DefaultFlags(),
			wantErr: ErrNameCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := record.DefineSchema("Thing", tt.fields, tt.flags)
			require.NoError(t, err)
			_, err = Generate(s, Options{Package: "things"})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			var fe *record.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "Thing", fe.Schema)
		})
	}

	_, err := Generate(nil, Options{Package: "x"})
	assert.ErrorIs(t, err, ErrNilSchema)
	_, err = Generate(position(t, record.DefaultFlags()), Options{})
	assert.ErrorIs(t, err, ErrNoPackage)
}

func TestNames(t *testing.T) {
	tests := []struct {
		in, exported, unexported, param string
	}{
		{"name", "Name", "name", "name"},
		{"sort_index", "SortIndex", "sortIndex", "sortIndex"},
		{"_hidden", "Hidden", "hidden", "hidden"},
		{"type", "Type", "type_", "type_"},
		{"r", "R", "r", "rValue"},
		{"time", "Time", "time", "timeValue"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.exported, exportedName(tt.in))
			assert.Equal(t, tt.unexported, unexportedName(tt.in))
			assert.Equal(t, tt.param, paramName(tt.in))
		})
	}
}
