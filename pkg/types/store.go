package types

import (
	"errors"
	"time"

	"github.com/mesh-intelligence/records/pkg/record"
)

// Store persists records of registered types. Callers attach to a backend,
// register the types they intend to read back, and detach when done.
type Store interface {
	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, every other operation returns ErrStoreDetached.
	Detach() error

	// Register makes a record type known to the store so stored records of
	// that schema name can be rebuilt, and adds its schema to the catalog.
	// Registering a second type under the same schema name replaces the first.
	Register(typ *record.Type) error

	// Schemas lists the catalog of schemas registered in this data
	// directory, including those from earlier sessions.
	Schemas() ([]SchemaInfo, error)

	// Put creates or replaces a record. When id is empty a new UUID v7 is
	// generated. Returns the ID used.
	Put(id string, r *record.Record) (string, error)

	// Get rebuilds the record stored under id through its registered type.
	// Returns ErrNotFound if no record exists with that ID.
	Get(id string) (*Item, error)

	// Delete removes the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Delete(id string) error

	// Fetch returns the stored records of one schema, oldest first.
	Fetch(schema string, filter Filter) ([]*Item, error)
}

// Item is a stored record with its bookkeeping.
type Item struct {
	ID        string
	Schema    string
	Record    *record.Record
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SchemaInfo describes a catalog entry.
type SchemaInfo struct {
	Name         string
	Fields       []string
	Records      int
	RegisteredAt time.Time

	// Registered is true when a type for this schema is registered in the
	// current session, so its records can be rebuilt.
	Registered bool
}

// Filter narrows Fetch results. Recognized keys:
//
//	"where"  map[string]any  field name to the value it must equal
//	"limit"  int
//	"offset" int
//
// A nil or empty filter matches every record of the schema.
type Filter map[string]any

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Store operation errors.
var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidID           = errors.New("invalid record ID")
	ErrInvalidData         = errors.New("invalid record data")
	ErrSchemaNotRegistered = errors.New("schema not registered")
	ErrInvalidFilter       = errors.New("invalid filter value type")
)
