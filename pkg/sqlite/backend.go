// Package sqlite provides the public API for the SQLite record store.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/records/internal/sqlite"
	"github.com/mesh-intelligence/records/pkg/types"
)

// NewBackend creates a new SQLite store. Log events go to logger; pass
// zerolog.Nop() to discard them.
// The store is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend(zerolog.Nop())
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".records-db",
//	})
//	defer store.Detach()
//	err = store.Register(positionType)
//	id, err := store.Put("", oslo)
func NewBackend(logger zerolog.Logger) types.Store {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
