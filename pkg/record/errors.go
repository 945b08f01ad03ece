package record

import (
	"errors"
	"fmt"
)

// Schema definition errors. These are returned by DefineSchema and Extend
// and are never deferred to construction time.
var (
	ErrDuplicateField     = errors.New("duplicate field")
	ErrFieldOrder         = errors.New("non-default field follows default field")
	ErrConflictingDefault = errors.New("default and default factory are both set")
	ErrMutableDefault     = errors.New("mutable default value; use a default factory")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidValueType   = errors.New("invalid value type")
	ErrInvalidFlags       = errors.New("invalid schema flags")
	ErrNilSchema          = errors.New("schema is nil")
)

// Instance operation errors. They are recoverable per call and never
// affect other instances or the schema.
var (
	ErrUninitializedField = errors.New("field is not initialized")
	ErrFrozenRecord       = errors.New("cannot assign to field of frozen record")
	ErrIncomparableTypes  = errors.New("incomparable types")
	ErrOrderNotGenerated  = errors.New("ordering is not generated for this type")
	ErrUnhashable         = errors.New("unhashable record")
	ErrUnknownField       = errors.New("unknown field")
	ErrTooManyArguments   = errors.New("too many positional arguments")
	ErrDuplicateArgument  = errors.New("multiple values for argument")
	ErrUnexpectedArgument = errors.New("unexpected argument")
	ErrMissingArgument    = errors.New("missing required argument")
	ErrCoerce             = errors.New("cannot coerce value")
)

// FieldError ties a sentinel error kind to the schema and field it concerns.
// errors.Is matches against Kind.
type FieldError struct {
	Kind   error
	Schema string
	Field  string
	Msg    string
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	prefix := e.Kind.Error()
	switch {
	case e.Schema != "" && e.Field != "":
		prefix = fmt.Sprintf("%s: %s.%s", prefix, e.Schema, e.Field)
	case e.Field != "":
		prefix = fmt.Sprintf("%s: %s", prefix, e.Field)
	case e.Schema != "":
		prefix = fmt.Sprintf("%s: %s", prefix, e.Schema)
	}
	if e.Msg == "" {
		return prefix
	}
	return prefix + ": " + e.Msg
}

func (e *FieldError) Unwrap() error { return e.Kind }

func fieldErr(kind error, schema, field string) error {
	return &FieldError{Kind: kind, Schema: schema, Field: field}
}

func fieldErrf(kind error, schema, field, format string, args ...any) error {
	return &FieldError{Kind: kind, Schema: schema, Field: field, Msg: fmt.Sprintf(format, args...)}
}
