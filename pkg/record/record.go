package record

// Record is an instance of a derived Type. Each record owns its field slots;
// values are stored as supplied, without copying.
//
// Records have no internal locking. Reading a record from several goroutines
// is safe; mutating an unfrozen record concurrently with any other access is
// a data race the caller must prevent.
type Record struct {
	typ          *Type
	values       []any
	set          []bool
	initializing bool
}

func (r *Record) bind(i int, v any) {
	r.values[i] = v
	r.set[i] = true
}

// Type returns the record's type.
func (r *Record) Type() *Type { return r.typ }

// Get returns the value of the named field.
// Returns ErrUnknownField for names not in the schema and
// ErrUninitializedField for a slot nothing has assigned.
func (r *Record) Get(name string) (any, error) {
	s := r.typ.schema
	i, ok := s.index[name]
	if !ok {
		return nil, fieldErr(ErrUnknownField, s.name, name)
	}
	if !r.set[i] {
		return nil, fieldErr(ErrUninitializedField, s.name, name)
	}
	return r.values[i], nil
}

// IsSet reports whether the named field holds a value.
func (r *Record) IsSet(name string) bool {
	i, ok := r.typ.schema.index[name]
	return ok && r.set[i]
}

// Set assigns a field. On frozen types it fails with ErrFrozenRecord once
// construction (including the post-construction hook) has finished, and the
// field keeps its value. Freezing is shallow: a mutable value reachable
// through a field can still change.
func (r *Record) Set(name string, value any) error {
	s := r.typ.schema
	i, ok := s.index[name]
	if !ok {
		return fieldErr(ErrUnknownField, s.name, name)
	}
	if s.flags.Frozen && !r.initializing {
		return fieldErr(ErrFrozenRecord, s.name, name)
	}
	r.bind(i, value)
	return nil
}

// slot returns the value at index i or ErrUninitializedField.
func (r *Record) slot(i int) (any, error) {
	if !r.set[i] {
		s := r.typ.schema
		return nil, fieldErr(ErrUninitializedField, s.name, s.fields[i].Name)
	}
	return r.values[i], nil
}

// IsRecord reports whether v is a non-nil *Record.
func IsRecord(v any) bool {
	r, ok := v.(*Record)
	return ok && r != nil
}
