// File: internal/concurrency/threadpool.go
// Package concurrency - fixed-size worker pool over the bounded JobQueue.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The pool owns its queue exclusively. One mutex guards queue and state;
// workers suspend on a condition variable while the queue is empty and the
// pool is running. Shutdown is cooperative: workers drain the queue before
// exiting (the empty check precedes the run-state check in the loop), and
// Shutdown joins every worker before returning.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/momentics/sockserve/api"
)

type poolState int32

const (
	poolRunning poolState = iota
	poolStopping
)

// ThreadPool executes submitted jobs on a fixed set of worker goroutines.
type ThreadPool struct {
	mu    sync.Mutex
	wake  *sync.Cond
	state poolState
	queue *JobQueue

	workers int
	wg      sync.WaitGroup
	joined  bool

	log zerolog.Logger

	submitted int64 // atomic
	completed int64 // atomic
}

// NewThreadPool creates a pool with the given worker count and queue
// capacity and starts every worker. No partially started pool is ever
// returned: argument validation happens before any resource is allocated.
func NewThreadPool(workers, queueCap int, log zerolog.Logger) (*ThreadPool, error) {
	if workers <= 0 {
		return nil, ErrInvalidWorkerCount
	}
	q, err := NewJobQueue(queueCap)
	if err != nil {
		return nil, err
	}
	p := &ThreadPool{
		state:   poolRunning,
		queue:   q,
		workers: workers,
		log:     log.With().Str("component", "threadpool").Logger(),
	}
	p.wake = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Debug().Int("workers", workers).Int("queue_cap", queueCap).Msg("pool started")
	return p, nil
}

// Submit copies the job into pool-owned storage and wakes one waiting
// worker. Fails when the pool is not running, the job function is nil, or
// the queue is at capacity. A failed submission never mutates the queue.
func (p *ThreadPool) Submit(job api.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != poolRunning {
		return ErrPoolClosed
	}
	if err := p.queue.Enqueue(job); err != nil {
		return err
	}
	atomic.AddInt64(&p.submitted, 1)
	// Signal while still holding the lock so the wakeup cannot be lost.
	p.wake.Signal()
	return nil
}

// Shutdown flips the pool to stopping, wakes all workers and joins them.
// Every job enqueued before Shutdown was called has executed by the time
// it returns. A second Shutdown fails with ErrPoolClosed.
func (p *ThreadPool) Shutdown() error {
	p.mu.Lock()
	if p.state != poolRunning {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.state = poolStopping
	p.wake.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	p.mu.Lock()
	p.joined = true
	p.mu.Unlock()
	p.log.Debug().Msg("pool stopped")
	return nil
}

// Destroy drops any jobs still queued without executing them and releases
// the queue. Dropping is documented behavior: payload cleanup stays the
// submitter's responsibility. Legal only after Shutdown has returned.
func (p *ThreadPool) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == poolRunning || !p.joined {
		return ErrPoolRunning
	}
	if n := p.queue.Len(); n > 0 {
		p.log.Warn().Int("dropped", n).Msg("destroying pool with queued jobs")
		for {
			if _, ok := p.queue.Dequeue(); !ok {
				break
			}
		}
	}
	p.queue = nil
	return nil
}

// QueueLen returns a lock-protected snapshot of the queued job count.
func (p *ThreadPool) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queue == nil {
		return 0
	}
	return p.queue.Len()
}

// IsRunning reports whether the pool still admits jobs.
func (p *ThreadPool) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == poolRunning
}

// Workers returns the configured worker count.
func (p *ThreadPool) Workers() int { return p.workers }

// Stats returns basic pool counters.
func (p *ThreadPool) Stats() map[string]int64 {
	submitted := atomic.LoadInt64(&p.submitted)
	completed := atomic.LoadInt64(&p.completed)
	return map[string]int64{
		"submitted": submitted,
		"completed": completed,
		"pending":   submitted - completed,
		"workers":   int64(p.workers),
	}
}

// worker is the main loop of one worker goroutine.
func (p *ThreadPool) worker(id int) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for p.queue.Empty() && p.state == poolRunning {
			p.wake.Wait()
		}
		// Drain-before-exit: only leave once stopping AND empty.
		if p.queue.Empty() {
			p.mu.Unlock()
			return
		}
		job, _ := p.queue.Dequeue()
		p.mu.Unlock()

		p.execute(id, job)
	}
}

// execute runs one job outside the pool lock, recovering from panics so a
// misbehaving job cannot take a worker down. Job outcomes are the job's
// responsibility; the pool does not inspect them.
func (p *ThreadPool) execute(id int, job api.Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", id).Any("panic", r).Msg("job panicked")
		}
		atomic.AddInt64(&p.completed, 1)
	}()
	job.Fn(job.Arg)
}
