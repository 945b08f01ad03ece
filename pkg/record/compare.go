package record

import (
	"cmp"
	"errors"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"
)

// Outcome is the result of matching two values for equality.
type Outcome int

const (
	// OutcomeEqual means both records are of the same type and every
	// compared field is equal.
	OutcomeEqual Outcome = iota
	// OutcomeNotEqual means both records are of the same type and some
	// compared field differs.
	OutcomeNotEqual
	// OutcomeIncomparable means the other value is not a record of the same
	// type. Callers treat it as not equal.
	OutcomeIncomparable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEqual:
		return "equal"
	case OutcomeNotEqual:
		return "not equal"
	default:
		return "incomparable"
	}
}

// Match compares r with other field by field. Types derived with Eq unset
// match only themselves. A nil record matches nothing.
func (r *Record) Match(other any) Outcome {
	o, ok := other.(*Record)
	if !ok || o == nil || r == nil {
		return OutcomeIncomparable
	}
	if r == o {
		return OutcomeEqual
	}
	if !r.typ.schema.flags.Eq || o.typ != r.typ {
		return OutcomeIncomparable
	}
	for i, f := range r.typ.schema.fields {
		if !f.Compare {
			continue
		}
		if r.set[i] != o.set[i] {
			return OutcomeNotEqual
		}
		if r.set[i] && !valuesEqual(r.values[i], o.values[i]) {
			return OutcomeNotEqual
		}
	}
	return OutcomeEqual
}

// Equal reports whether other is a record of the same type with equal
// compared fields. It never fails; anything incomparable is not equal.
func (r *Record) Equal(other any) bool {
	return r.Match(other) == OutcomeEqual
}

// Compare orders r against other by the compared fields in declaration
// order: the first field is the primary key and later fields break ties.
// It returns -1, 0 or +1.
// Returns ErrIncomparableTypes when the records are of different types or a
// pair of field values has no order, ErrOrderNotGenerated when the type was
// derived without ordering, and ErrUninitializedField for unset slots.
func (r *Record) Compare(other *Record) (int, error) {
	if r == nil {
		return 0, fieldErrf(ErrIncomparableTypes, "", "", "cannot order nil against %s", typeName(other))
	}
	s := r.typ.schema
	if other == nil || other.typ != r.typ {
		return 0, fieldErrf(ErrIncomparableTypes, s.name, "", "cannot order %s against %s", s.name, typeName(other))
	}
	if !s.flags.Order {
		return 0, fieldErr(ErrOrderNotGenerated, s.name, "")
	}
	for i, f := range s.fields {
		if !f.Compare {
			continue
		}
		a, err := r.slot(i)
		if err != nil {
			return 0, err
		}
		b, err := other.slot(i)
		if err != nil {
			return 0, err
		}
		c, err := compareValues(a, b)
		if err != nil {
			var fe *FieldError
			if errors.As(err, &fe) && fe.Schema == "" {
				fe.Schema, fe.Field = s.name, f.Name
			}
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

// Less reports whether r orders before other.
func (r *Record) Less(other *Record) (bool, error) {
	c, err := r.Compare(other)
	return c < 0, err
}

// Sort sorts recs in place by Compare, keeping equal records in their
// original order. On error the order of recs is unspecified.
func Sort(recs []*Record) error {
	var sortErr error
	slices.SortStableFunc(recs, func(a, b *Record) int {
		if sortErr != nil {
			return 0
		}
		c, err := a.Compare(b)
		if err != nil {
			sortErr = err
			return 0
		}
		return c
	})
	return sortErr
}

func typeName(r *Record) string {
	if r == nil {
		return "nil"
	}
	return r.typ.schema.name
}

// number is a numeric value widened for comparison. Unsigned values that
// fit in int64 are stored as signed so mixed integer kinds compare exactly.
type number struct {
	kind byte // 'i', 'u' or 'f'
	i    int64
	u    uint64
	f    float64
}

func asNumber(v any) (number, bool) {
	return numberOf(reflect.ValueOf(v))
}

func numberOf(rv reflect.Value) (number, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{kind: 'i', i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return number{kind: 'i', i: int64(u)}, true
		}
		return number{kind: 'u', u: u}, true
	case reflect.Float32, reflect.Float64:
		return number{kind: 'f', f: rv.Float()}, true
	default:
		return number{}, false
	}
}

// compareNumbers orders two numbers exactly, without rounding integers
// through float64. NaN orders below every number and equals only NaN.
func compareNumbers(a, b number) int {
	switch {
	case a.kind == 'f' && b.kind == 'f':
		return cmp.Compare(a.f, b.f)
	case b.kind == 'f':
		return compareIntFloat(a, b.f)
	case a.kind == 'f':
		return -compareIntFloat(b, a.f)
	case a.kind == 'i' && b.kind == 'i':
		return cmp.Compare(a.i, b.i)
	case a.kind == 'u' && b.kind == 'u':
		return cmp.Compare(a.u, b.u)
	case a.kind == 'i':
		return -1
	default:
		return 1
	}
}

// Bounds of the integer kinds as exact float64 values.
const (
	twoTo63 = float64(1 << 63)
	twoTo64 = twoTo63 * 2
)

// compareIntFloat compares an integer number (kind 'i' or 'u') with f.
func compareIntFloat(n number, f float64) int {
	if math.IsNaN(f) {
		return 1
	}
	t := math.Trunc(f)
	var c int
	if n.kind == 'i' {
		switch {
		case t >= twoTo63:
			return -1
		case t < -twoTo63:
			return 1
		}
		c = cmp.Compare(n.i, int64(t))
	} else {
		switch {
		case t >= twoTo64:
			return -1
		case t < twoTo63:
			return 1
		}
		c = cmp.Compare(n.u, uint64(t))
	}
	if c != 0 {
		return c
	}
	// Equal integer parts: the fraction decides.
	return cmp.Compare(t, f)
}

// valuesEqual is the field equality used by Match. Nested records use their
// own equality, numbers compare by value across kinds, times by instant,
// and sequences element by element.
func valuesEqual(a, b any) bool {
	if ra, ok := a.(*Record); ok {
		if ra == nil {
			rb, ok := b.(*Record)
			return ok && rb == nil
		}
		return ra.Equal(b)
	}
	if na, ok := asNumber(a); ok {
		nb, ok := asNumber(b)
		return ok && compareNumbers(na, nb) == 0
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if isSequence(va) && isSequence(vb) {
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !valuesEqual(va.Index(i).Interface(), vb.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func isSequence(v reflect.Value) bool {
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}

// compareValues orders two field values. Equal values compare as 0 before
// any ordering is attempted, so unorderable but equal values do not fail.
func compareValues(a, b any) (int, error) {
	if valuesEqual(a, b) {
		return 0, nil
	}
	if ra, ok := a.(*Record); ok && ra != nil {
		rb, ok := b.(*Record)
		if !ok {
			return 0, incomparable(a, b)
		}
		return ra.Compare(rb)
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if !ok {
			return 0, incomparable(a, b)
		}
		return ta.Compare(tb), nil
	}
	if na, ok := asNumber(a); ok {
		nb, ok := asNumber(b)
		if !ok {
			return 0, incomparable(a, b)
		}
		return compareNumbers(na, nb), nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return strings.Compare(va.String(), vb.String()), nil
	case va.Kind() == reflect.Bool && vb.Kind() == reflect.Bool:
		return cmp.Compare(boolRank(va.Bool()), boolRank(vb.Bool())), nil
	case isSequence(va) && isSequence(vb):
		n := min(va.Len(), vb.Len())
		for i := 0; i < n; i++ {
			c, err := compareValues(va.Index(i).Interface(), vb.Index(i).Interface())
			if err != nil || c != 0 {
				return c, err
			}
		}
		return cmp.Compare(va.Len(), vb.Len()), nil
	default:
		return 0, incomparable(a, b)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func incomparable(a, b any) error {
	return &FieldError{Kind: ErrIncomparableTypes, Msg: typeOf(a) + " and " + typeOf(b)}
}

func typeOf(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
