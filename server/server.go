// File: server/server.go
// Package server - construction and ordered initialization.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Every initialization step registers its paired finalizer immediately
// after succeeding, so a failure at any later step unwinds exactly what was
// already built and nothing else. A step whose finalizer cannot be
// registered is torn down inline before the unwind: no resource is ever
// left without a teardown path.

package server

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/momentics/sockserve/api"
	"github.com/momentics/sockserve/cleanup"
	"github.com/momentics/sockserve/control"
	"github.com/momentics/sockserve/internal/concurrency"
	"github.com/momentics/sockserve/internal/logging"
	"github.com/momentics/sockserve/internal/store"
	"github.com/momentics/sockserve/reactor"
)

// New builds an unstarted server. The configuration is validated here;
// subsystem initialization happens in Run.
func New(cfg *control.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = control.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:         cfg,
		listenFd:    -1,
		conns:       make(map[string]net.Conn),
		registryCap: cleanup.DefaultMaxEntries,
	}
	for _, o := range opts {
		o(s)
	}
	if s.handler == nil {
		s.handler = api.HandlerFunc(echoHandler)
	}
	return s, nil
}

// initialize runs the init sequence: logging, cleanup registry, user store,
// thread pool, listening socket, event multiplexer. On failure the registry
// unwinds whatever was registered so far and the error is returned.
func (s *Server) initialize() error {
	s.state.Store(int32(StateInitializing))

	// Logging first so every later step can log. Its closer is registered at
	// the lowest priority: torn down last, available to all other finalizers.
	log, logCloser, err := logging.Open(s.cfg.LogFile, s.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	s.log = log
	s.logCloser = logCloser

	s.registry = cleanup.NewRegistry(s.registryCap, s.log)
	if err := s.registry.AddInt("logging", func(any) int {
		if s.logCloser.Close() != nil {
			return 1
		}
		return 0
	}, nil, prioLogging); err != nil {
		logCloser.Close()
		return fmt.Errorf("register logging finalizer: %w", err)
	}

	if s.watchPath != "" {
		w, err := control.NewWatcher(s.watchPath, s.log)
		if err != nil {
			s.fail()
			return fmt.Errorf("init config watcher: %w", err)
		}
		s.watcher = w
		// Only the log level is applied live; structural parameters stay
		// fixed for the process lifetime.
		w.OnReload(func(cfg *control.Config) {
			s.applyLogLevel(cfg.LogLevel)
		})
		if err := s.registry.AddInt("config-watcher", func(any) int {
			if s.watcher.Close() != nil {
				return 1
			}
			return 0
		}, nil, prioWatcher); err != nil {
			w.Close()
			s.fail()
			return fmt.Errorf("register config-watcher finalizer: %w", err)
		}
	}

	st, err := store.Open(s.cfg.DBPath)
	if err != nil {
		s.fail()
		return fmt.Errorf("init store: %w", err)
	}
	s.store = st
	if err := s.registry.AddInt("store", func(any) int {
		if s.store.Close() != nil {
			return 1
		}
		return 0
	}, nil, prioStore); err != nil {
		st.Close()
		s.fail()
		return fmt.Errorf("register store finalizer: %w", err)
	}

	pool, err := concurrency.NewThreadPool(s.cfg.Workers, s.cfg.QueueCapacity, s.log)
	if err != nil {
		s.fail()
		return fmt.Errorf("init thread pool: %w", err)
	}
	s.pool = pool
	if err := s.registry.AddBool("threadpool", func() bool {
		if s.pool.Shutdown() != nil {
			return false
		}
		return s.pool.Destroy() == nil
	}, prioPool); err != nil {
		pool.Shutdown()
		pool.Destroy()
		s.fail()
		return fmt.Errorf("register threadpool finalizer: %w", err)
	}

	// Active connections are closed before the pool is joined so blocked
	// per-connection jobs observe EOF and drain.
	if err := s.registry.AddVoid("connections", func(any) {
		s.closeConns()
	}, nil, prioConnections); err != nil {
		s.fail()
		return fmt.Errorf("register connections finalizer: %w", err)
	}

	if err := s.openListener(); err != nil {
		s.fail()
		return fmt.Errorf("init listener: %w", err)
	}
	if err := s.registry.AddVoid("listener", func(any) {
		s.closeListener()
	}, nil, prioListener); err != nil {
		s.closeListener()
		s.fail()
		return fmt.Errorf("register listener finalizer: %w", err)
	}

	r := reactor.New(s.cfg.MaxEvents, s.log)
	if err := r.Add(s.listenFd, api.EventRead, s.onAcceptReady, nil); err != nil {
		r.Shutdown()
		s.fail()
		return fmt.Errorf("register listener with reactor: %w", err)
	}
	// Publish under the stop lock so a concurrent Shutdown either sees nil
	// (and Run skips the loop) or a reactor it can stop.
	s.stopMu.Lock()
	s.reactor = r
	s.stopMu.Unlock()
	if err := s.registry.AddBool("reactor", func() bool {
		return s.reactor.Shutdown() == nil
	}, prioReactor); err != nil {
		r.Shutdown()
		s.fail()
		return fmt.Errorf("register reactor finalizer: %w", err)
	}

	s.log.Info().
		Int("workers", s.cfg.Workers).
		Int("backlog", s.cfg.Backlog).
		Str("state", s.State().String()).
		Msg("initialization complete")
	return nil
}

// applyLogLevel applies a reloaded log level process-wide. An unparsable
// level is logged and the previous one stays active.
func (s *Server) applyLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		s.log.Warn().Str("level", level).Msg("ignoring invalid log level")
		return
	}
	zerolog.SetGlobalLevel(lvl)
	s.log.Info().Str("level", lvl.String()).Msg("log level applied")
}

// fail unwinds a partial initialization.
func (s *Server) fail() {
	s.registry.Execute()
	s.state.Store(int32(StateTerminated))
}

// openListener binds either the configured Unix socket path or the TCP port.
func (s *Server) openListener() error {
	if s.cfg.SocketPath != "" {
		fd, err := listenUnix(s.cfg.SocketPath, s.cfg.Backlog)
		if err != nil {
			return err
		}
		s.listenFd = fd
		s.socketPath = s.cfg.SocketPath
		s.log.Info().Str("socket", s.socketPath).Msg("listening")
		return nil
	}
	fd, err := listenTCP(s.cfg.Port, s.cfg.Backlog)
	if err != nil {
		return err
	}
	s.listenFd = fd
	if port, err := boundPort(fd); err == nil && port != 0 {
		s.cfg.Port = port
	}
	s.log.Info().Int("port", s.cfg.Port).Msg("listening")
	return nil
}

// closeListener closes the listening descriptor and removes a Unix socket
// file if one was created.
func (s *Server) closeListener() {
	if s.listenFd >= 0 {
		unix.Close(s.listenFd)
		s.listenFd = -1
	}
	if s.socketPath != "" {
		removeSocketFile(s.socketPath)
	}
}

// Port returns the bound TCP port. Meaningful after initialization when no
// Unix socket path is configured.
func (s *Server) Port() int {
	return s.cfg.Port
}
