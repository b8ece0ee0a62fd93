// File: api/job.go
// Package api defines the public contracts of the sockserve runtime.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// JobFunc is the payload of a Job. It receives the argument the submitter
// attached at submission time. The function must not retain the argument
// beyond its own execution unless it transfers ownership elsewhere first.
type JobFunc func(arg any)

// Job is a unit of deferred work: a function plus its argument.
// A Job is immutable once submitted and is consumed exactly once by a worker.
type Job struct {
	Fn  JobFunc
	Arg any
}
