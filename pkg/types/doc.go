// Package types defines the Store interface, its configuration and the
// standard errors for persisting synthesized records.
package types
