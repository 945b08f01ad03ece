package record

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

const uninitialized = "<uninitialized>"

// String returns the record's representation: the renderer installed with
// WithRenderer if any, otherwise the generated one. A record reached again
// while it is being rendered shows as "...".
func (r *Record) String() string {
	if r == nil {
		return "<nil>"
	}
	return r.format(rendering{})
}

// GoString returns the generated representation regardless of any custom
// renderer: TypeName(f1=v1, f2=v2) over the fields shown in the
// representation, or <TypeName record at 0x...> when the type was derived
// without one.
func (r *Record) GoString() string {
	if r == nil {
		return "<nil>"
	}
	return r.goString(rendering{r: true})
}

// Compact renders TypeName(v1, v2) using each value's user-facing %v
// rendering instead of the debug one. Install it with WithRenderer.
func Compact(r *Record) string {
	if r == nil {
		return "<nil>"
	}
	return r.compact(rendering{r: true})
}

// rendering holds the records on the current rendering path.
type rendering map[*Record]bool

func (r *Record) format(seen rendering) string {
	if seen[r] {
		return "..."
	}
	seen[r] = true
	defer delete(seen, r)

	switch {
	case r.typ.compact:
		return r.compact(seen)
	case r.typ.render != nil:
		return r.typ.render(r)
	default:
		return r.goString(seen)
	}
}

func (r *Record) goString(seen rendering) string {
	s := r.typ.schema
	if !s.flags.Repr {
		return fmt.Sprintf("<%s record at %p>", s.name, r)
	}
	var b strings.Builder
	b.WriteString(s.name)
	b.WriteByte('(')
	first := true
	for i, f := range s.fields {
		if !f.Repr {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(f.Name)
		b.WriteByte('=')
		if r.set[i] {
			b.WriteString(formatValue(r.values[i], seen))
		} else {
			b.WriteString(uninitialized)
		}
	}
	b.WriteByte(')')
	return b.String()
}

func (r *Record) compact(seen rendering) string {
	s := r.typ.schema
	parts := make([]string, 0, len(s.fields))
	for i, f := range s.fields {
		if !f.Repr {
			continue
		}
		if !r.set[i] {
			parts = append(parts, uninitialized)
			continue
		}
		if x, ok := r.values[i].(*Record); ok && x != nil {
			parts = append(parts, x.format(seen))
			continue
		}
		parts = append(parts, fmt.Sprint(r.values[i]))
	}
	return s.name + "(" + strings.Join(parts, ", ") + ")"
}

// formatValue is the debug rendering of a field value: strings quoted,
// records by their own representation, sequences and maps element-wise.
func formatValue(v any, seen rendering) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case *Record:
		if x == nil {
			return "<nil>"
		}
		return x.format(seen)
	case string:
		return strconv.Quote(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "nil"
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatValue(rv.Index(i).Interface(), seen)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Map:
		if rv.IsNil() {
			return "nil"
		}
		parts := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			parts = append(parts, formatValue(iter.Key().Interface(), seen)+": "+formatValue(iter.Value().Interface(), seen))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	case reflect.String:
		return strconv.Quote(rv.String())
	default:
		return fmt.Sprintf("%v", v)
	}
}
