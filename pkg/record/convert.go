package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mohae/deepcopy"
)

// AsMap returns the set fields as a map keyed by field name. Values are deep
// copies; nested records, including those inside slices and maps, are
// converted to maps themselves.
func (r *Record) AsMap() map[string]any {
	s := r.typ.schema
	out := make(map[string]any, len(s.fields))
	for i, f := range s.fields {
		if r.set[i] {
			out[f.Name] = convertValue(r.values[i])
		}
	}
	return out
}

// AsSlice returns the field values in declaration order, deep copied like
// AsMap. Unset slots are nil.
func (r *Record) AsSlice() []any {
	out := make([]any, len(r.values))
	for i, v := range r.values {
		if r.set[i] {
			out[i] = convertValue(v)
		}
	}
	return out
}

func convertValue(v any) any {
	if rec, ok := v.(*Record); ok && rec != nil {
		return rec.AsMap()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() || !containsRecords(rv) {
			break
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = convertValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String || !containsRecords(rv) {
			break
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = convertValue(iter.Value().Interface())
		}
		return out
	}
	return deepcopy.Copy(v)
}

// containsRecords reports whether a slice or map holds a *Record element.
func containsRecords(rv reflect.Value) bool {
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if IsRecord(rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	iter := rv.MapRange()
	for iter.Next() {
		if IsRecord(iter.Value().Interface()) {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the set fields as a JSON object in declaration order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for i, f := range r.typ.schema.fields {
		if !r.set[i] {
			continue
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("marshal %s.%s: %w", r.typ.schema.name, f.Name, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Replace returns a new record of r's type built through the constructor
// from r's constructor fields with changes applied. The post-construction
// hook runs again. Changing a field the constructor does not accept fails
// with ErrUnexpectedArgument.
func Replace(r *Record, changes map[string]any) (*Record, error) {
	s := r.typ.schema
	named := make(map[string]any)
	for _, i := range r.typ.params() {
		if r.set[i] {
			named[s.fields[i].Name] = r.values[i]
		}
	}
	for name, v := range changes {
		i, ok := s.index[name]
		if !ok || !s.flags.Init || !s.fields[i].Init {
			return nil, fieldErr(ErrUnexpectedArgument, s.name, name)
		}
		named[name] = v
	}
	return r.typ.NewNamed(named)
}
