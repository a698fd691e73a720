package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when an insert violates the unique index on
// the users email field.
var ErrDuplicateEmail = errors.New("duplicate email")
