package record

import "reflect"

// Type is a record type derived from a Schema. It carries the generated
// constructor, the optional post-construction hook and the representation.
// A Type is read-only and safe for concurrent use; each Derive call yields a
// distinct type even for the same schema.
type Type struct {
	schema   *Schema
	postInit func(*Record) error
	render   func(*Record) string
	compact  bool // render is Compact
}

// TypeOption configures a derived Type.
type TypeOption func(*Type)

// WithPostInit installs a hook that runs once after the constructor has
// bound every field. It may assign fields even on frozen types. A non-nil
// error aborts construction.
func WithPostInit(fn func(*Record) error) TypeOption {
	return func(t *Type) { t.postInit = fn }
}

// WithRenderer replaces the generated representation wholesale.
func WithRenderer(fn func(*Record) string) TypeOption {
	compact := fn != nil && reflect.ValueOf(fn).Pointer() == reflect.ValueOf(Compact).Pointer()
	return func(t *Type) {
		t.render = fn
		t.compact = compact
	}
}

// Derive synthesizes a record type from schema.
func Derive(schema *Schema, opts ...TypeOption) (*Type, error) {
	if schema == nil {
		return nil, ErrNilSchema
	}
	t := &Type{schema: schema}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// MustDerive is like Derive but panics on error. It is intended for
// package-level type declarations.
func MustDerive(schema *Schema, opts ...TypeOption) *Type {
	t, err := Derive(schema, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the type name, which is the schema name.
func (t *Type) Name() string { return t.schema.name }

// Schema returns the schema the type was derived from.
func (t *Type) Schema() *Schema { return t.schema }

// Fields returns the fields in declaration order.
func (t *Type) Fields() []FieldSpec { return t.schema.Fields() }

// New constructs a record from positional arguments.
func (t *Type) New(args ...any) (*Record, error) {
	return t.Construct(args, nil)
}

// NewNamed constructs a record from named arguments.
func (t *Type) NewNamed(named map[string]any) (*Record, error) {
	return t.Construct(nil, named)
}

// Construct binds positional arguments to constructor fields in declaration
// order and named arguments by field name. Omitted fields take their default
// or a fresh value from their factory. The post-construction hook runs last.
// On any error no record is returned.
func (t *Type) Construct(positional []any, named map[string]any) (*Record, error) {
	return t.construct(positional, named, nil)
}

// construct is Construct with preset values for non-constructor fields,
// bound after defaults and before the hook.
func (t *Type) construct(positional []any, named map[string]any, preset map[int]any) (*Record, error) {
	s := t.schema
	r := &Record{
		typ:          t,
		values:       make([]any, len(s.fields)),
		set:          make([]bool, len(s.fields)),
		initializing: true,
	}

	params := t.params()
	if len(positional) > len(params) {
		return nil, fieldErrf(ErrTooManyArguments, s.name, "", "takes %d, got %d", len(params), len(positional))
	}
	for i, v := range positional {
		r.bind(params[i], v)
	}
	for name, v := range named {
		i, ok := s.index[name]
		if !ok || !s.flags.Init || !s.fields[i].Init {
			return nil, fieldErr(ErrUnexpectedArgument, s.name, name)
		}
		if r.set[i] {
			return nil, fieldErr(ErrDuplicateArgument, s.name, name)
		}
		r.bind(i, v)
	}

	for i, f := range s.fields {
		if r.set[i] {
			continue
		}
		v, ok := f.initialValue()
		if !ok {
			if s.flags.Init && f.Init {
				return nil, fieldErr(ErrMissingArgument, s.name, f.Name)
			}
			continue
		}
		r.bind(i, v)
	}
	for i, v := range preset {
		r.bind(i, v)
	}

	if t.postInit != nil {
		if err := t.postInit(r); err != nil {
			return nil, err
		}
	}
	r.initializing = false
	return r, nil
}

// params returns the indexes of constructor fields in declaration order.
func (t *Type) params() []int {
	s := t.schema
	if !s.flags.Init {
		return nil
	}
	out := make([]int, 0, len(s.fields))
	for i, f := range s.fields {
		if f.Init {
			out = append(out, i)
		}
	}
	return out
}

// Load rehydrates a record from decoded data such as JSON. Each value is
// coerced to its field's declared type. Constructor fields are bound as
// named arguments; stored values of other fields replace their defaults
// before the hook runs, so a hook that recomputes a field has the last word.
func (t *Type) Load(values map[string]any) (*Record, error) {
	s := t.schema
	named := make(map[string]any)
	rest := make(map[int]any)
	for name, raw := range values {
		i, ok := s.index[name]
		if !ok {
			return nil, fieldErr(ErrUnknownField, s.name, name)
		}
		f := s.fields[i]
		v, err := Coerce(f.Type, raw)
		if err != nil {
			return nil, &FieldError{Kind: ErrCoerce, Schema: s.name, Field: name, Msg: err.Error()}
		}
		if s.flags.Init && f.Init {
			named[name] = v
		} else {
			rest[i] = v
		}
	}

	return t.construct(nil, named, rest)
}
