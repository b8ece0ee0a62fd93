// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Poll-mode event reactor. Registration mutates a fixed-capacity table under
// the reactor lock; ProcessEvents snapshots the table under the lock and then
// dispatches callbacks lock-free, so user code never runs while the lock is
// held. One poll round may therefore act on a registration set that is one
// mutation stale.

package reactor

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/momentics/sockserve/api"
)

// DefaultMaxEntries bounds the registration table when no explicit
// capacity is configured.
const DefaultMaxEntries = 64

// entry is one slot of the registration table.
type entry struct {
	fd     int
	events api.FDEventType
	cb     api.FDCallback
	ctx    any
	inUse  bool
}

// Reactor is a single-threaded poll-based event multiplexer.
type Reactor struct {
	mu      sync.Mutex
	table   []entry
	count   int
	closed  bool
	running atomic.Bool
	stop    atomic.Bool
	log     zerolog.Logger
}

// Compile-time interface compliance.
var (
	_ api.Poller           = (*Reactor)(nil)
	_ api.GracefulShutdown = (*Reactor)(nil)
)

// New creates a reactor whose registration table holds at most maxEntries
// descriptors. maxEntries <= 0 selects DefaultMaxEntries.
func New(maxEntries int, log zerolog.Logger) *Reactor {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Reactor{
		table: make([]entry, maxEntries),
		log:   log.With().Str("component", "reactor").Logger(),
	}
}

// Add registers a descriptor with an interest mask, callback and opaque user
// context. Fails on an invalid descriptor, nil callback, duplicate
// registration, or a full table. The reactor does not own ctx.
func (r *Reactor) Add(fd int, events api.FDEventType, cb api.FDCallback, ctx any) error {
	if fd < 0 || cb == nil {
		return api.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return api.ErrClosed
	}
	free := -1
	for i := range r.table {
		if r.table[i].inUse {
			if r.table[i].fd == fd {
				return api.ErrAlreadyExists
			}
		} else if free < 0 {
			free = i
		}
	}
	if free < 0 {
		return api.ErrResourceExhausted
	}
	r.table[free] = entry{fd: fd, events: events, cb: cb, ctx: ctx, inUse: true}
	r.count++
	return nil
}

// Modify replaces the interest mask of a registered descriptor.
func (r *Reactor) Modify(fd int, events api.FDEventType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return api.ErrClosed
	}
	for i := range r.table {
		if r.table[i].inUse && r.table[i].fd == fd {
			r.table[i].events = events
			return nil
		}
	}
	return api.ErrNotFound
}

// Remove unregisters a descriptor, freeing its slot for reuse.
func (r *Reactor) Remove(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return api.ErrClosed
	}
	for i := range r.table {
		if r.table[i].inUse && r.table[i].fd == fd {
			r.table[i] = entry{}
			r.count--
			return nil
		}
	}
	return api.ErrNotFound
}

// Registered returns the number of in-use registrations.
func (r *Reactor) Registered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// ProcessEvents waits for readiness on the registered descriptors for at
// most timeoutMs milliseconds (negative blocks indefinitely) and invokes the
// callback of every ready descriptor synchronously on the calling thread.
// Returns the number of callbacks invoked. A signal-interrupted wait is not
// an error and yields zero events.
func (r *Reactor) ProcessEvents(timeoutMs int) (int, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, api.ErrClosed
	}
	snapshot := make([]entry, 0, r.count)
	for i := range r.table {
		if r.table[i].inUse {
			snapshot = append(snapshot, r.table[i])
		}
	}
	r.mu.Unlock()

	ready, err := wait(snapshot, timeoutMs)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for i, ev := range ready {
		if ev == 0 {
			continue
		}
		e := snapshot[i]
		r.dispatch(e, ev)
		dispatched++
	}
	return dispatched, nil
}

// dispatch runs one callback with panic isolation so a misbehaving callback
// cannot take the reactor thread down.
func (r *Reactor) dispatch(e entry, ev api.FDEventType) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Int("fd", e.fd).Any("panic", rec).Msg("callback panicked")
		}
	}()
	e.cb(e.fd, ev, e.ctx)
}

// Run loops ProcessEvents with the given per-round timeout until Stop is
// called. The stop flag is re-checked every iteration: cancellation is
// cooperative, bounded by one timeout interval.
func (r *Reactor) Run(timeoutMs int) {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	defer r.running.Store(false)
	// The stop flag is never reset here: a Stop issued before the loop came
	// up must still terminate it.
	for !r.stop.Load() {
		if _, err := r.ProcessEvents(timeoutMs); err != nil {
			if err == api.ErrClosed {
				return
			}
			r.log.Error().Err(err).Msg("poll failed")
		}
	}
}

// Stop requests Run termination without blocking.
func (r *Reactor) Stop() {
	r.stop.Store(true)
}

// IsRunning reports whether the Run loop is active.
func (r *Reactor) IsRunning() bool {
	return r.running.Load()
}

// Shutdown stops the loop and clears every registration. Idempotent.
func (r *Reactor) Shutdown() error {
	r.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	for i := range r.table {
		r.table[i] = entry{}
	}
	r.count = 0
	r.closed = true
	return nil
}
