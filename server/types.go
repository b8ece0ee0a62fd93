// File: server/types.go
// Package server orchestrates the sockserve lifecycle: ordered subsystem
// initialization with paired finalizer registration, the accept loop
// composing reactor and thread pool, and signal-driven shutdown.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/momentics/sockserve/api"
	"github.com/momentics/sockserve/cleanup"
	"github.com/momentics/sockserve/control"
	"github.com/momentics/sockserve/internal/concurrency"
	"github.com/momentics/sockserve/internal/store"
	"github.com/momentics/sockserve/reactor"
)

// State is the lifecycle phase of the server.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateRunning
	StateShuttingDown
	StateTerminated
)

// String returns the phase name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateInitializing:
		return "INITIALIZING"
	case StateRunning:
		return "RUNNING"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Cleanup priorities: reverse initialization order. Higher tears down first,
// logging last so every other finalizer can still log.
const (
	prioReactor     = 90
	prioListener    = 70
	prioConnections = 60
	prioPool        = 50
	prioStore       = 30
	prioWatcher     = 20
	prioLogging     = 10
)

// Server is the lifecycle facade tying all subsystems together.
type Server struct {
	cfg     *control.Config
	handler api.Handler

	log       zerolog.Logger
	logCloser io.Closer
	registry  *cleanup.Registry
	store     *store.Store
	pool      *concurrency.ThreadPool
	reactor   *reactor.Reactor
	watcher   *control.Watcher

	listenFd   int
	socketPath string

	connMu sync.Mutex
	conns  map[string]net.Conn

	// stopMu guards the reactor handoff from initialize to Shutdown so a
	// shutdown request is never lost in the startup window.
	stopMu      sync.Mutex
	shutdownReq atomic.Bool

	state       atomic.Int32
	running     atomic.Bool
	noSignals   bool
	watchPath   string
	registryCap int
}

// State returns the current lifecycle phase.
func (s *Server) State() State {
	return State(s.state.Load())
}

// IsRunning reports whether the accept loop is active.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// Store exposes the user store to connection handlers.
func (s *Server) Store() *store.Store {
	return s.store
}
