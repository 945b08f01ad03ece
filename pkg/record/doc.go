// Package record synthesizes record types from declarative field lists.
//
// A Schema is an ordered list of FieldSpecs plus Flags. Derive turns it into
// a Type whose records get a constructor with defaults and per-instance
// default factories, an optional post-construction hook, value equality,
// optional ordering, a TypeName(field=value, ...) representation, optional
// immutability and hashing.
//
//	pos, err := record.DefineSchema("Position", []record.FieldSpec{
//		record.Field("name", record.TypeText),
//		record.Field("lon", record.TypeFloat, record.Default(0.0)),
//		record.Field("lat", record.TypeFloat, record.Default(0.0)),
//	}, record.Flags{Init: true, Repr: true, Eq: true, Frozen: true})
//	typ := record.MustDerive(pos)
//	oslo, err := typ.New("Oslo", 10.8, 59.9)
//	fmt.Println(oslo) // Position(name="Oslo", lon=10.8, lat=59.9)
//
// Extend composes schemas: inherited fields keep their positions, overrides
// replace a field's spec in place and new fields are appended.
//
// Schema definition errors (ErrDuplicateField, ErrFieldOrder,
// ErrConflictingDefault, ...) are returned before any record exists.
// Instance errors (ErrFrozenRecord, ErrIncomparableTypes, ErrUnhashable,
// ErrUninitializedField, ...) concern a single call. All of them are
// matched with errors.Is.
package record
