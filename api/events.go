// File: api/events.go
// Package api - descriptor readiness events and callbacks.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// FDEventType is a bitmask of descriptor readiness conditions.
type FDEventType uint32

const (
	// EventRead indicates the descriptor is readable.
	EventRead FDEventType = 1 << iota
	// EventWrite indicates the descriptor is writable.
	EventWrite
	// EventError indicates an error or hangup condition on the descriptor.
	EventError
)

// FDCallback is invoked by the reactor when a registered descriptor becomes
// ready. Callbacks run synchronously on the reactor thread: a callback that
// must not stall the event loop should hand work to the thread pool instead
// of performing long operations inline. Callbacks never run concurrently
// with each other, but must not assume exclusivity within one poll round.
type FDCallback func(fd int, events FDEventType, ctx any)
