// File: internal/concurrency/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for the concurrency module.

package concurrency

import "errors"

var (
	// ErrQueueFull indicates the bounded job queue is at capacity.
	// Submission fails rather than blocking or dropping silently.
	ErrQueueFull = errors.New("job queue is full")

	// ErrNilJob indicates a job with a nil function was submitted.
	ErrNilJob = errors.New("job function is nil")

	// ErrPoolClosed indicates the pool is stopping or stopped and admits
	// no further jobs.
	ErrPoolClosed = errors.New("thread pool is closed")

	// ErrPoolRunning indicates an operation that requires a stopped pool,
	// such as Destroy, was invoked while workers are active.
	ErrPoolRunning = errors.New("thread pool is still running")

	// ErrInvalidWorkerCount indicates a non-positive worker count.
	ErrInvalidWorkerCount = errors.New("invalid worker count")

	// ErrInvalidCapacity indicates a non-positive queue capacity.
	ErrInvalidCapacity = errors.New("invalid queue capacity")
)
