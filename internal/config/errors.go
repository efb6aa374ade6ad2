package config

import "errors"

// ErrNotFound is returned when a requested resource does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would violate a uniqueness constraint
// (duplicate email or slug).
var ErrConflict = errors.New("already exists")
