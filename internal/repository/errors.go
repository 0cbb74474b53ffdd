// Package repository defines the persistence interfaces and error values
// shared by the MySQL and in-memory store implementations.  Sentinel errors
// let handlers distinguish failure scenarios without inspecting driver
// details: ErrNotFound maps to HTTP 404 (scoped to the caller), while
// ErrEmailExists maps to HTTP 409 on registration.
package repository

import "errors"

// ErrNotFound is returned when a record does not exist or is not visible to
// the caller (e.g. a document owned by someone else).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert collides with the unique,
// case-insensitive email constraint on accounts.
var ErrEmailExists = errors.New("email already exists")
