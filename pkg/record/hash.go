package record

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Hashable reports whether records of this type can be hashed: always with
// UnsafeHash, otherwise only when equality is generated and the type is
// frozen. Mutable records with value equality are unhashable because a
// mutation would change the hash of a record stored in a hash container.
func (t *Type) Hashable() bool {
	f := t.schema.flags
	if f.UnsafeHash {
		return true
	}
	return f.Eq && f.Frozen
}

// Hash returns a 64-bit hash of the type name and the hashed fields in
// declaration order. Equal records hash equal.
// Returns ErrUnhashable when the type is not hashable or a hashed field holds
// a value without a stable hash (slices, maps, pointers other than records),
// and ErrUninitializedField for unset slots.
func (r *Record) Hash() (uint64, error) {
	if r == nil {
		return 0, fieldErrf(ErrUnhashable, "", "", "nil record")
	}
	s := r.typ.schema
	if !r.typ.Hashable() {
		return 0, fieldErrf(ErrUnhashable, s.name, "", "type is not frozen or has no equality")
	}
	d := xxhash.New()
	writeString(d, s.name)
	for i, f := range s.fields {
		if !f.InHash() {
			continue
		}
		v, err := r.slot(i)
		if err != nil {
			return 0, err
		}
		if err := hashValue(d, v); err != nil {
			return 0, &FieldError{Kind: ErrUnhashable, Schema: s.name, Field: f.Name, Msg: err.Error()}
		}
	}
	return d.Sum64(), nil
}

// Value tags keep encodings of different kinds apart.
const (
	tagNil byte = iota
	tagInt
	tagUint
	tagFloat
	tagString
	tagBool
	tagTime
	tagRecord
	tagArray
	tagStruct
)

func hashValue(d *xxhash.Digest, v any) error {
	if v == nil {
		d.Write([]byte{tagNil})
		return nil
	}
	return hashReflect(d, reflect.ValueOf(v))
}

// hashReflect hashes rv so that values equal under valuesEqual, or under
// reflect.DeepEqual inside structs, hash equal. Struct fields are walked
// one by one; non-nil pointers other than records have no stable hash.
func hashReflect(d *xxhash.Digest, rv reflect.Value) error {
	if rv.CanInterface() {
		switch x := rv.Interface().(type) {
		case *Record:
			if x == nil {
				d.Write([]byte{tagNil})
				return nil
			}
			h, err := x.Hash()
			if err != nil {
				return err
			}
			writeUint(d, tagRecord, h)
			return nil
		case time.Time:
			writeUint(d, tagTime, uint64(x.UnixNano()))
			return nil
		}
	}
	if n, ok := numberOf(rv); ok {
		hashNumber(d, n)
		return nil
	}

	switch rv.Kind() {
	case reflect.String:
		writeString(d, rv.String())
	case reflect.Bool:
		writeUint(d, tagBool, uint64(boolRank(rv.Bool())))
	case reflect.Array:
		writeUint(d, tagArray, uint64(rv.Len()))
		for i := 0; i < rv.Len(); i++ {
			if err := hashReflect(d, rv.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Struct:
		d.Write([]byte{tagStruct})
		writeString(d, rv.Type().String())
		for i := 0; i < rv.NumField(); i++ {
			if err := hashReflect(d, rv.Field(i)); err != nil {
				return err
			}
		}
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			d.Write([]byte{tagNil})
			return nil
		}
		if rv.Kind() == reflect.Pointer {
			return fmt.Errorf("no stable hash for %s", rv.Type())
		}
		return hashReflect(d, rv.Elem())
	default:
		return fmt.Errorf("no stable hash for %s", rv.Type())
	}
	return nil
}

// hashNumber hashes integral floats as integers so that values equal under
// valuesEqual hash equal. Every NaN hashes alike.
func hashNumber(d *xxhash.Digest, n number) {
	switch n.kind {
	case 'i':
		writeUint(d, tagInt, uint64(n.i))
	case 'u':
		writeUint(d, tagUint, n.u)
	default:
		f := n.f
		switch {
		case math.IsNaN(f):
			writeUint(d, tagFloat, math.Float64bits(math.NaN()))
		case f == math.Trunc(f) && f >= -twoTo63 && f < twoTo63:
			writeUint(d, tagInt, uint64(int64(f)))
		case f == math.Trunc(f) && f >= twoTo63 && f < twoTo64:
			writeUint(d, tagUint, uint64(f))
		default:
			writeUint(d, tagFloat, math.Float64bits(f))
		}
	}
}

func writeUint(d *xxhash.Digest, tag byte, u uint64) {
	var buf [9]byte
	buf[0] = tag
	binary.LittleEndian.PutUint64(buf[1:], u)
	d.Write(buf[:])
}

func writeString(d *xxhash.Digest, s string) {
	writeUint(d, tagString, uint64(len(s)))
	d.WriteString(s)
}
