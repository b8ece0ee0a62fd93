// File: internal/concurrency/queue.go
// Package concurrency implements the bounded job queue and worker pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// JobQueue is a bounded FIFO over eapache/queue's ring-backed storage.
// It carries no lock of its own: the owning ThreadPool serializes access
// under its pool lock, and blocking semantics (condition waits) live in
// that layer, not here.

package concurrency

import (
	"github.com/eapache/queue"

	"github.com/momentics/sockserve/api"
)

// JobQueue is a bounded FIFO of jobs. Not safe for unsynchronized
// concurrent use.
type JobQueue struct {
	ring     *queue.Queue
	capacity int
}

// NewJobQueue creates a queue holding at most capacity jobs.
func NewJobQueue(capacity int) (*JobQueue, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &JobQueue{
		ring:     queue.New(),
		capacity: capacity,
	}, nil
}

// Enqueue appends a job. Fails with ErrQueueFull at capacity and ErrNilJob
// for a job without a function; the queue is unchanged on failure.
func (q *JobQueue) Enqueue(job api.Job) error {
	if job.Fn == nil {
		return ErrNilJob
	}
	if q.ring.Length() >= q.capacity {
		return ErrQueueFull
	}
	q.ring.Add(job)
	return nil
}

// Dequeue removes and returns the oldest job. The second result is false
// when the queue is empty.
func (q *JobQueue) Dequeue() (api.Job, bool) {
	if q.ring.Length() == 0 {
		return api.Job{}, false
	}
	job := q.ring.Remove().(api.Job)
	return job, true
}

// Len returns the number of queued jobs.
func (q *JobQueue) Len() int { return q.ring.Length() }

// Cap returns the configured capacity bound.
func (q *JobQueue) Cap() int { return q.capacity }

// Empty reports whether no jobs are queued.
func (q *JobQueue) Empty() bool { return q.ring.Length() == 0 }

// Full reports whether the queue is at capacity.
func (q *JobQueue) Full() bool { return q.ring.Length() >= q.capacity }
