// File: cleanup/cleanup.go
// Package cleanup implements the priority-ordered finalizer registry used
// by the server lifecycle for deterministic teardown.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Entries are appended at registration time and sorted only when Execute
// runs: a stable sort by descending priority, ties resolved by registration
// order. Execution is best-effort and total: a failing finalizer is logged
// and the remaining entries still run.

package cleanup

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultMaxEntries bounds the registry when no explicit capacity is
// configured.
const DefaultMaxEntries = 32

var (
	// ErrNilFunc indicates a finalizer without a function.
	ErrNilFunc = errors.New("cleanup: finalizer function is nil")

	// ErrFull indicates the registry reached its fixed capacity.
	ErrFull = errors.New("cleanup: registry is full")

	// ErrExecuted indicates registration after Execute has already run.
	ErrExecuted = errors.New("cleanup: registry already executed")
)

// kind discriminates the three finalizer signatures.
type kind int

const (
	kindVoid kind = iota // func(arg any)
	kindBool             // func() bool
	kindInt              // func(arg any) int
)

// entry is one registered finalizer. Exactly one of the three function
// fields is set, selected by k.
type entry struct {
	k        kind
	priority int
	seq      int
	name     string
	voidFn   func(arg any)
	boolFn   func() bool
	intFn    func(arg any) int
	arg      any
}

// Registry is a fixed-capacity ordered list of finalizers.
type Registry struct {
	mu       sync.Mutex
	entries  []entry
	capacity int
	seq      int
	executed bool
	log      zerolog.Logger
}

// NewRegistry creates a registry holding at most capacity finalizers.
// capacity <= 0 selects DefaultMaxEntries.
func NewRegistry(capacity int, log zerolog.Logger) *Registry {
	if capacity <= 0 {
		capacity = DefaultMaxEntries
	}
	return &Registry{
		entries:  make([]entry, 0, capacity),
		capacity: capacity,
		log:      log.With().Str("component", "cleanup").Logger(),
	}
}

// AddVoid registers an argument-taking finalizer with no result.
// Higher priority executes first.
func (r *Registry) AddVoid(name string, fn func(arg any), arg any, priority int) error {
	if fn == nil {
		return ErrNilFunc
	}
	return r.add(entry{k: kindVoid, priority: priority, name: name, voidFn: fn, arg: arg})
}

// AddBool registers a no-argument finalizer returning a success flag.
// The result is advisory: it is logged, never used for control flow.
func (r *Registry) AddBool(name string, fn func() bool, priority int) error {
	if fn == nil {
		return ErrNilFunc
	}
	return r.add(entry{k: kindBool, priority: priority, name: name, boolFn: fn})
}

// AddInt registers an argument-taking finalizer returning a status code.
// A non-zero status is logged, never used for control flow.
func (r *Registry) AddInt(name string, fn func(arg any) int, arg any, priority int) error {
	if fn == nil {
		return ErrNilFunc
	}
	return r.add(entry{k: kindInt, priority: priority, name: name, intFn: fn, arg: arg})
}

func (r *Registry) add(e entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.executed {
		return ErrExecuted
	}
	if len(r.entries) >= r.capacity {
		return ErrFull
	}
	e.seq = r.seq
	r.seq++
	r.entries = append(r.entries, e)
	return nil
}

// Len returns the number of registered finalizers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Execute runs every finalizer in descending priority order, ties broken by
// registration order. Individual failures never halt the remaining entries:
// teardown releases as many resources as possible. Subsequent Execute calls
// are no-ops.
func (r *Registry) Execute() {
	r.mu.Lock()
	if r.executed {
		r.mu.Unlock()
		return
	}
	r.executed = true
	entries := make([]entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority > entries[j].priority
	})

	for _, e := range entries {
		r.run(e)
	}
}

// run invokes one finalizer, isolating panics so teardown always proceeds.
func (r *Registry) run(e entry) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Str("finalizer", e.name).Any("panic", rec).Msg("finalizer panicked")
		}
	}()
	switch e.k {
	case kindVoid:
		e.voidFn(e.arg)
	case kindBool:
		if ok := e.boolFn(); !ok {
			r.log.Warn().Str("finalizer", e.name).Msg("finalizer reported failure")
			return
		}
	case kindInt:
		if status := e.intFn(e.arg); status != 0 {
			r.log.Warn().Str("finalizer", e.name).Int("status", status).Msg("finalizer reported failure")
			return
		}
	}
	r.log.Debug().Str("finalizer", e.name).Int("priority", e.priority).Msg("finalizer done")
}
