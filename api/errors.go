// File: api/errors.go
// Package api - common error values shared across the runtime.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "errors"

// Common errors used across the library.
var (
	// ErrInvalidArgument indicates a nil callback, bad descriptor or
	// out-of-range size passed to a constructor or operation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResourceExhausted indicates a bounded structure (queue, registration
	// table, registry) is at capacity. The condition is recoverable: callers
	// may retry after draining.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrAlreadyExists indicates a duplicate registration.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrNotFound indicates the referenced registration does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrClosed indicates an operation on a subsystem that is stopped or
	// was never initialized.
	ErrClosed = errors.New("subsystem is closed")
)
