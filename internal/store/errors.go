// Package store defines persistence errors shared by store implementations.
package store

import "errors"

// Sentinel errors returned by store implementations.
// Services translate these into domain errors with user-facing messages.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates the caller passed arguments the store cannot act on.
	ErrInvalidInput = errors.New("invalid input")
)
