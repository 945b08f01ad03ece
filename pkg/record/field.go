package record

import (
	"fmt"
	"maps"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

// ValueType is the declared type tag of a field. It is informational for
// construction and assignment; Coerce uses it when values arrive from text
// or decoded data.
type ValueType string

// Declared value types.
const (
	TypeAny       ValueType = "any"
	TypeText      ValueType = "text"
	TypeInteger   ValueType = "integer"
	TypeFloat     ValueType = "float"
	TypeBoolean   ValueType = "boolean"
	TypeTimestamp ValueType = "timestamp"
	TypeList      ValueType = "list"
	TypeMap       ValueType = "map"
	TypeRecord    ValueType = "record"
)

// validValueTypes is the set of recognized value types.
var validValueTypes = map[ValueType]bool{
	TypeAny:       true,
	TypeText:      true,
	TypeInteger:   true,
	TypeFloat:     true,
	TypeBoolean:   true,
	TypeTimestamp: true,
	TypeList:      true,
	TypeMap:       true,
	TypeRecord:    true,
}

// IsValidValueType reports whether vt is a recognized value type.
func IsValidValueType(vt ValueType) bool {
	return validValueTypes[vt]
}

// Factory produces the initial value of a field. It is invoked once per
// instance, so every record gets its own storage.
type Factory func() any

// FieldSpec describes one field of a record schema. Build it with Field so
// the inclusion flags start out true.
type FieldSpec struct {
	Name       string
	Type       ValueType
	Default    any
	HasDefault bool // Default is set; nil is a legal default.
	Factory    Factory
	Init       bool // Accepted by the constructor.
	Repr       bool // Shown in the representation.
	Compare    bool // Participates in equality and ordering.
	Hash       *bool
	Metadata   map[string]any
}

// FieldOption configures a FieldSpec.
type FieldOption func(*FieldSpec)

// Field returns a FieldSpec with Init, Repr and Compare set, then applies opts.
// An empty vt means TypeAny.
func Field(name string, vt ValueType, opts ...FieldOption) FieldSpec {
	if vt == "" {
		vt = TypeAny
	}
	f := FieldSpec{
		Name:    name,
		Type:    vt,
		Init:    true,
		Repr:    true,
		Compare: true,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Default sets a literal default value.
func Default(v any) FieldOption {
	return func(f *FieldSpec) {
		f.Default = v
		f.HasDefault = true
	}
}

// DefaultFactory sets a per-instance default factory.
func DefaultFactory(fn Factory) FieldOption {
	return func(f *FieldSpec) { f.Factory = fn }
}

// NoInit excludes the field from the constructor.
func NoInit() FieldOption {
	return func(f *FieldSpec) { f.Init = false }
}

// NoRepr excludes the field from the representation.
func NoRepr() FieldOption {
	return func(f *FieldSpec) { f.Repr = false }
}

// NoCompare excludes the field from equality and ordering.
func NoCompare() FieldOption {
	return func(f *FieldSpec) { f.Compare = false }
}

// Hashed overrides whether the field participates in hashing.
func Hashed(include bool) FieldOption {
	return func(f *FieldSpec) { f.Hash = &include }
}

// Meta attaches an opaque annotation to the field.
func Meta(key string, value any) FieldOption {
	return func(f *FieldSpec) {
		if f.Metadata == nil {
			f.Metadata = make(map[string]any)
		}
		f.Metadata[key] = value
	}
}

// HasAnyDefault reports whether the field has a default value or factory.
func (f FieldSpec) HasAnyDefault() bool {
	return f.HasDefault || f.Factory != nil
}

// InHash reports whether the field participates in hashing. Unless
// overridden it follows Compare.
func (f FieldSpec) InHash() bool {
	if f.Hash != nil {
		return *f.Hash
	}
	return f.Compare
}

// clone returns a copy that shares nothing mutable with f.
func (f FieldSpec) clone() FieldSpec {
	if f.Hash != nil {
		h := *f.Hash
		f.Hash = &h
	}
	f.Metadata = maps.Clone(f.Metadata)
	return f
}

// initialValue returns the value bound when no argument is supplied.
func (f FieldSpec) initialValue() (any, bool) {
	switch {
	case f.Factory != nil:
		return f.Factory(), true
	case f.HasDefault:
		return f.Default, true
	default:
		return nil, false
	}
}

// isMutableDefault reports whether v is a shared-mutable container that
// must not be used as a literal default.
func isMutableDefault(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Chan:
		return true
	default:
		return false
	}
}

// Coerce converts v to the Go representation of vt: string for text,
// int64 for integer, float64 for float, bool for boolean, time.Time for
// timestamp, []any for list and map[string]any for map. Values of type
// any and record pass through unchanged, as does nil.
func Coerce(vt ValueType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	var (
		out any
		err error
	)
	switch vt {
	case TypeAny, TypeRecord, "":
		return v, nil
	case TypeText:
		out, err = cast.ToStringE(v)
	case TypeInteger:
		out, err = cast.ToInt64E(v)
	case TypeFloat:
		out, err = cast.ToFloat64E(v)
	case TypeBoolean:
		out, err = cast.ToBoolE(v)
	case TypeTimestamp:
		var t time.Time
		t, err = cast.ToTimeE(v)
		out = t
	case TypeList:
		out, err = cast.ToSliceE(v)
	case TypeMap:
		out, err = cast.ToStringMapE(v)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidValueType, vt)
	}
	if err != nil {
		return nil, fmt.Errorf("%w to %s: %v", ErrCoerce, vt, err)
	}
	return out, nil
}
