package record

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepresentation(t *testing.T) {
	typ := MustDerive(positionSchema(t, DefaultFlags()))

	tests := []struct {
		name string
		args []any
		want string
	}{
		{"all fields", []any{"Oslo", 10.8, 59.9}, `Position(name="Oslo", lon=10.8, lat=59.9)`},
		{"defaults", []any{"Null Island"}, `Position(name="Null Island", lon=0, lat=0)`},
		{"quotes are escaped", []any{`say "hi"`}, `Position(name="say \"hi\"", lon=0, lat=0)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := typ.New(tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.String())
			assert.Equal(t, tt.want, r.GoString())
		})
	}
}

func TestRepresentationOmitsExcludedFields(t *testing.T) {
	s, err := DefineSchema("User", []FieldSpec{
		Field("name", TypeText),
		Field("password", TypeText, NoRepr()),
	}, DefaultFlags())
	require.NoError(t, err)

	u, _ := MustDerive(s).New("ada", "secret")
	assert.Equal(t, `User(name="ada")`, u.String())
	assert.NotContains(t, u.String(), "secret")
}

func TestRepresentationValues(t *testing.T) {
	pos := MustDerive(positionSchema(t, DefaultFlags()))
	oslo, _ := pos.New("Oslo", 10.8, 59.9)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "nil"},
		{"nested record", oslo, `Position(name="Oslo", lon=10.8, lat=59.9)`},
		{"list", []any{"a", 1, true}, `["a", 1, true]`},
		{"map sorted by key", map[string]int{"b": 2, "a": 1}, `{"a": 1, "b": 2}`},
		{"time", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), "2024-05-01T10:00:00Z"},
		{"stringer", 90 * time.Second, "1m30s"},
		{"nil slice", []int(nil), "nil"},
	}
	s, err := DefineSchema("Box", []FieldSpec{Field("v", TypeAny)}, DefaultFlags())
	require.NoError(t, err)
	box := MustDerive(s)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := box.New(tt.value)
			require.NoError(t, err)
			assert.Equal(t, "Box(v="+tt.want+")", r.String())
		})
	}
}

func TestRepresentationDisabled(t *testing.T) {
	typ := MustDerive(positionSchema(t, Flags{Init: true, Eq: true}))
	r, _ := typ.New("Oslo")
	assert.True(t, strings.HasPrefix(r.String(), "<Position record at 0x"), r.String())
}

func TestCompactRenderer(t *testing.T) {
	typ := MustDerive(positionSchema(t, DefaultFlags()), WithRenderer(Compact))
	r, err := typ.New("Oslo", 10.8, 59.9)
	require.NoError(t, err)

	assert.Equal(t, "Position(Oslo, 10.8, 59.9)", r.String())
	assert.Equal(t, `Position(name="Oslo", lon=10.8, lat=59.9)`, r.GoString(), "generated form stays available")
}

func TestNilRecordString(t *testing.T) {
	var r *Record
	assert.Equal(t, "<nil>", r.String())
}

func TestRepresentationSelfReference(t *testing.T) {
	s, err := DefineSchema("Node", []FieldSpec{
		Field("value", TypeInteger),
		Field("next", TypeRecord, Default(nil)),
	}, DefaultFlags())
	require.NoError(t, err)
	node := MustDerive(s)

	n, err := node.New(1)
	require.NoError(t, err)
	require.NoError(t, n.Set("next", n))
	assert.Equal(t, "Node(value=1, next=...)", n.String())
	assert.Equal(t, "Node(value=1, next=...)", n.GoString())

	a, _ := node.New(1)
	b, _ := node.New(2, a)
	require.NoError(t, a.Set("next", b))
	assert.Equal(t, "Node(value=1, next=Node(value=2, next=...))", a.String())

	compact := MustDerive(s, WithRenderer(Compact))
	c, _ := compact.New(1)
	d, _ := compact.New(2, c)
	require.NoError(t, c.Set("next", d))
	assert.Equal(t, "Node(1, Node(2, ...))", c.String())
	assert.Equal(t, "Node(1, Node(2, ...))", Compact(c))
}

func TestRepresentationRepeatedRecord(t *testing.T) {
	pos := MustDerive(positionSchema(t, DefaultFlags()))
	oslo, _ := pos.New("Oslo", 10.8, 59.9)
	s, err := DefineSchema("Trip", []FieldSpec{Field("from", TypeRecord), Field("to", TypeRecord)}, DefaultFlags())
	require.NoError(t, err)

	trip, _ := MustDerive(s).New(oslo, oslo)
	want := `Position(name="Oslo", lon=10.8, lat=59.9)`
	assert.Equal(t, "Trip(from="+want+", to="+want+")", trip.String())
}
