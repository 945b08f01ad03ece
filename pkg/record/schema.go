package record

// Flags select which behaviors a derived type generates.
type Flags struct {
	Init       bool // Generate the constructor; when false every field takes its default.
	Repr       bool // Generate the field-listing representation.
	Eq         bool // Generate value equality; when false equality is identity.
	Order      bool // Generate ordering. Requires Eq.
	Frozen     bool // Reject field assignment after construction.
	UnsafeHash bool // Generate a hash even when the record is mutable.
}

// DefaultFlags returns the flags used when nothing else is asked for:
// constructor, representation and equality, mutable, unordered.
func DefaultFlags() Flags {
	return Flags{Init: true, Repr: true, Eq: true}
}

// Schema is a validated, ordered field list plus generation flags.
// It is immutable once returned by DefineSchema or Extend.
type Schema struct {
	name   string
	fields []FieldSpec
	index  map[string]int
	flags  Flags
}

// DefineSchema validates fields and flags and returns a Schema.
// It fails with ErrDuplicateField, ErrFieldOrder, ErrConflictingDefault,
// ErrMutableDefault, ErrInvalidName, ErrInvalidValueType or ErrInvalidFlags,
// each wrapped in a *FieldError.
func DefineSchema(name string, fields []FieldSpec, flags Flags) (*Schema, error) {
	if !isIdentifier(name) {
		return nil, fieldErrf(ErrInvalidName, name, "", "schema name %q is not an identifier", name)
	}
	if flags.Order && !flags.Eq {
		return nil, fieldErrf(ErrInvalidFlags, name, "", "order requires eq")
	}

	s := &Schema{
		name:   name,
		fields: make([]FieldSpec, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
		flags:  flags,
	}
	for _, f := range fields {
		if !isIdentifier(f.Name) {
			return nil, fieldErrf(ErrInvalidName, name, f.Name, "field name %q is not an identifier", f.Name)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fieldErr(ErrDuplicateField, name, f.Name)
		}
		if f.Type == "" {
			f.Type = TypeAny
		}
		if !IsValidValueType(f.Type) {
			return nil, fieldErrf(ErrInvalidValueType, name, f.Name, "%q", f.Type)
		}
		if f.HasDefault && f.Factory != nil {
			return nil, fieldErr(ErrConflictingDefault, name, f.Name)
		}
		if f.HasDefault && isMutableDefault(f.Default) {
			return nil, fieldErrf(ErrMutableDefault, name, f.Name, "default of type %T", f.Default)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f.clone())
	}
	if flags.Init {
		if err := s.checkOrder(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// checkOrder enforces that no constructor field without a default follows
// a constructor field with one.
func (s *Schema) checkOrder() error {
	var defaulted string
	for _, f := range s.fields {
		if !f.Init {
			continue
		}
		if f.HasAnyDefault() {
			if defaulted == "" {
				defaulted = f.Name
			}
			continue
		}
		if defaulted != "" {
			return fieldErrf(ErrFieldOrder, s.name, f.Name, "follows defaulted field %q", defaulted)
		}
	}
	return nil
}

// Extend builds a derived schema named name. The result holds every base
// field in its original position, with overrides replacing the spec of the
// named base field in place, followed by additional in declaration order.
// Flags are inherited from base. The combined schema is validated again.
func Extend(base *Schema, name string, additional []FieldSpec, overrides map[string]FieldSpec) (*Schema, error) {
	if base == nil {
		return nil, ErrNilSchema
	}
	for fieldName := range overrides {
		if _, ok := base.index[fieldName]; !ok {
			return nil, fieldErrf(ErrUnknownField, name, fieldName, "override of field not in %s", base.name)
		}
	}

	combined := make([]FieldSpec, 0, len(base.fields)+len(additional))
	for _, f := range base.fields {
		if o, ok := overrides[f.Name]; ok {
			o.Name = f.Name
			if o.Type == "" {
				o.Type = f.Type
			}
			f = o
		}
		combined = append(combined, f)
	}
	combined = append(combined, additional...)
	return DefineSchema(name, combined, base.flags)
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Flags returns the generation flags.
func (s *Schema) Flags() Flags { return s.flags }

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.clone()
	}
	return out
}

// Field returns the named field.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i].clone(), true
}

// isIdentifier reports whether s is a letter or underscore followed by
// letters, digits or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		digit := c >= '0' && c <= '9'
		if !letter && (i == 0 || !digit) {
			return false
		}
	}
	return true
}
