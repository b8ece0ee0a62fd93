// File: internal/concurrency/queue_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/sockserve/api"
)

func noopJob() api.Job {
	return api.Job{Fn: func(any) {}}
}

func TestJobQueue_InvalidCapacity(t *testing.T) {
	_, err := NewJobQueue(0)
	require.ErrorIs(t, err, ErrInvalidCapacity)
	_, err = NewJobQueue(-3)
	require.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestJobQueue_CapacityBound(t *testing.T) {
	const capacity = 10
	q, err := NewJobQueue(capacity)
	require.NoError(t, err)

	for i := 0; i < capacity; i++ {
		require.NoError(t, q.Enqueue(noopJob()))
	}
	require.True(t, q.Full())
	require.Equal(t, capacity, q.Len())

	// The (capacity+1)-th enqueue fails and size is unchanged.
	err = q.Enqueue(noopJob())
	require.ErrorIs(t, err, ErrQueueFull)
	require.Equal(t, capacity, q.Len())
}

func TestJobQueue_NilJobRejected(t *testing.T) {
	q, err := NewJobQueue(2)
	require.NoError(t, err)
	require.ErrorIs(t, q.Enqueue(api.Job{}), ErrNilJob)
	require.True(t, q.Empty())
}

func TestJobQueue_FIFOOrder(t *testing.T) {
	const n = 25
	q, err := NewJobQueue(n)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		require.NoError(t, q.Enqueue(api.Job{Fn: func(any) {}, Arg: i}))
	}
	for i := 0; i < n; i++ {
		job, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, i, job.Arg)
	}
	_, ok := q.Dequeue()
	require.False(t, ok)
	require.True(t, q.Empty())
}

func TestJobQueue_SlotReuse(t *testing.T) {
	q, err := NewJobQueue(2)
	require.NoError(t, err)

	// Cycle through the ring more times than its capacity.
	for i := 0; i < 7; i++ {
		require.NoError(t, q.Enqueue(api.Job{Fn: func(any) {}, Arg: i}))
		job, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, i, job.Arg)
	}
}
