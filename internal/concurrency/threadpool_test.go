// File: internal/concurrency/threadpool_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/momentics/sockserve/api"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func TestThreadPool_InvalidArguments(t *testing.T) {
	_, err := NewThreadPool(0, 10, testLogger())
	require.ErrorIs(t, err, ErrInvalidWorkerCount)
	_, err = NewThreadPool(-1, 10, testLogger())
	require.ErrorIs(t, err, ErrInvalidWorkerCount)
	_, err = NewThreadPool(2, 0, testLogger())
	require.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestThreadPool_CounterEndToEnd(t *testing.T) {
	pool, err := NewThreadPool(2, 10, testLogger())
	require.NoError(t, err)

	var mu sync.Mutex
	counter := 0
	for i := 0; i < 5; i++ {
		err := pool.Submit(api.Job{Fn: func(any) {
			mu.Lock()
			counter++
			mu.Unlock()
		}})
		require.NoError(t, err)
	}

	require.NoError(t, pool.Shutdown())
	require.Equal(t, 5, counter)
	require.False(t, pool.IsRunning())
}

func TestThreadPool_DrainsBeforeExit(t *testing.T) {
	pool, err := NewThreadPool(3, 64, testLogger())
	require.NoError(t, err)

	const jobs = 64
	var done int64
	for i := 0; i < jobs; i++ {
		require.NoError(t, pool.Submit(api.Job{Fn: func(any) {
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&done, 1)
		}}))
	}

	require.NoError(t, pool.Shutdown())
	require.Equal(t, int64(jobs), atomic.LoadInt64(&done))
	require.Equal(t, 0, pool.QueueLen())
}

func TestThreadPool_NoSubmissionAfterStop(t *testing.T) {
	pool, err := NewThreadPool(2, 10, testLogger())
	require.NoError(t, err)
	require.NoError(t, pool.Shutdown())

	for i := 0; i < 3; i++ {
		err := pool.Submit(api.Job{Fn: func(any) {}})
		require.ErrorIs(t, err, ErrPoolClosed)
	}
	require.Equal(t, 0, pool.QueueLen())

	// Second shutdown reports the pool already closed.
	require.ErrorIs(t, pool.Shutdown(), ErrPoolClosed)
}

func TestThreadPool_SubmitValidation(t *testing.T) {
	pool, err := NewThreadPool(1, 4, testLogger())
	require.NoError(t, err)
	defer pool.Shutdown()

	require.ErrorIs(t, pool.Submit(api.Job{}), ErrNilJob)
}

func TestThreadPool_BackpressureOnFullQueue(t *testing.T) {
	pool, err := NewThreadPool(1, 2, testLogger())
	require.NoError(t, err)

	gate := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(api.Job{Fn: func(any) {
		close(started)
		<-gate
	}}))
	<-started

	// Fill the queue while the only worker is blocked.
	require.NoError(t, pool.Submit(api.Job{Fn: func(any) {}}))
	require.NoError(t, pool.Submit(api.Job{Fn: func(any) {}}))

	err = pool.Submit(api.Job{Fn: func(any) {}})
	require.ErrorIs(t, err, ErrQueueFull)
	require.Equal(t, 2, pool.QueueLen())

	close(gate)
	require.NoError(t, pool.Shutdown())
}

func TestThreadPool_DestroyRequiresShutdown(t *testing.T) {
	pool, err := NewThreadPool(2, 4, testLogger())
	require.NoError(t, err)

	require.ErrorIs(t, pool.Destroy(), ErrPoolRunning)
	require.NoError(t, pool.Shutdown())
	require.NoError(t, pool.Destroy())
	require.Equal(t, 0, pool.QueueLen())
}

func TestThreadPool_JobPanicDoesNotKillWorker(t *testing.T) {
	pool, err := NewThreadPool(1, 4, testLogger())
	require.NoError(t, err)

	var ran int64
	require.NoError(t, pool.Submit(api.Job{Fn: func(any) { panic("boom") }}))
	require.NoError(t, pool.Submit(api.Job{Fn: func(any) { atomic.AddInt64(&ran, 1) }}))

	require.NoError(t, pool.Shutdown())
	require.Equal(t, int64(1), atomic.LoadInt64(&ran))
}

func TestThreadPool_ConcurrentSubmitters(t *testing.T) {
	pool, err := NewThreadPool(4, 256, testLogger())
	require.NoError(t, err)

	var executed int64
	var wg sync.WaitGroup
	var submitted int64
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 32; i++ {
				err := pool.Submit(api.Job{Fn: func(any) {
					atomic.AddInt64(&executed, 1)
				}})
				if err == nil {
					atomic.AddInt64(&submitted, 1)
				} else {
					// Only backpressure may reject while running.
					require.ErrorIs(t, err, ErrQueueFull)
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout: submitters stuck")
	}

	require.NoError(t, pool.Shutdown())
	require.Equal(t, atomic.LoadInt64(&submitted), atomic.LoadInt64(&executed))

	stats := pool.Stats()
	require.Equal(t, atomic.LoadInt64(&submitted), stats["submitted"])
	require.Equal(t, int64(0), stats["pending"])
}
