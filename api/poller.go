// File: api/poller.go
// Package api - poll-mode reactor contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Poller is a single-threaded poll-mode reactor over a bounded set of
// registered descriptors.
type Poller interface {
	// Add registers a descriptor with an interest mask, callback and opaque
	// user context. The poller never owns the context's lifetime.
	Add(fd int, events FDEventType, cb FDCallback, ctx any) error

	// Modify replaces the interest mask of an already registered descriptor.
	Modify(fd int, events FDEventType) error

	// Remove unregisters a descriptor and frees its slot for reuse.
	Remove(fd int) error

	// ProcessEvents blocks in the readiness wait for at most timeoutMs
	// milliseconds (negative blocks indefinitely), then dispatches ready
	// descriptors synchronously. Returns the number of callbacks invoked.
	// A signal-interrupted wait yields zero events, not an error.
	ProcessEvents(timeoutMs int) (int, error)

	// Run loops ProcessEvents until Stop is called.
	Run(timeoutMs int)

	// Stop requests loop termination without blocking.
	Stop()

	// IsRunning reports whether the Run loop is active.
	IsRunning() bool
}
