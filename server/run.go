// File: server/run.go
// Package server - accept loop, reactor/pool composition, shutdown.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The reactor thread only accepts: each accepted connection becomes one job
// on the thread pool, so connection handling never blocks the poll loop.

package server

import (
	"bufio"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/momentics/sockserve/api"
	"github.com/momentics/sockserve/internal/concurrency"
)

// Run initializes every subsystem, drives the reactor loop on the calling
// goroutine until Shutdown, then executes the ordered cleanup. A failed
// initialization unwinds partial state and returns before any connection is
// accepted.
func (s *Server) Run() error {
	if err := s.initialize(); err != nil {
		return err
	}

	if !s.noSignals {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer func() {
			signal.Stop(sigCh)
			close(sigCh)
		}()
		go func() {
			for sig := range sigCh {
				s.log.Info().Str("signal", sig.String()).Msg("shutdown requested")
				s.Shutdown()
			}
		}()
	}

	s.state.Store(int32(StateRunning))
	s.running.Store(true)
	s.log.Info().Str("state", s.State().String()).Msg("serving")

	// Cooperative loop: the stop flag is observed once per poll timeout.
	// A shutdown requested before this point skips the loop entirely; one
	// requested between the check and the loop finds the reactor published
	// and stops it through its sticky flag.
	if !s.shutdownReq.Load() {
		s.reactor.Run(s.cfg.PollTimeoutMs)
	}
	s.running.Store(false)

	s.state.Store(int32(StateShuttingDown))
	s.log.Info().Str("state", s.State().String()).Msg("tearing down")
	s.registry.Execute()
	s.state.Store(int32(StateTerminated))
	return nil
}

// Shutdown requests cooperative termination: the running flag flips, the
// reactor loop exits after its current iteration, and Run performs the
// ordered cleanup. Safe to call from any goroutine, idempotent, and never
// lost: a request arriving before Run has published the reactor is recorded
// and honored when Run reaches the loop.
func (s *Server) Shutdown() {
	if !s.shutdownReq.CompareAndSwap(false, true) {
		return
	}
	s.running.Store(false)
	s.stopMu.Lock()
	r := s.reactor
	s.stopMu.Unlock()
	if r != nil {
		r.Stop()
	}
}

// onAcceptReady drains the kernel backlog each time the listener polls
// readable. Every accepted connection is wrapped into a net.Conn and
// submitted to the pool; a full queue refuses the connection instead of
// blocking the reactor.
func (s *Server) onAcceptReady(fd int, events api.FDEventType, _ any) {
	if events&api.EventError != 0 {
		s.log.Error().Int("fd", fd).Msg("listener error event")
		s.Shutdown()
		return
	}
	for {
		nfd, more, err := acceptOne(s.listenFd)
		if err != nil {
			s.log.Error().Err(err).Msg("accept failed")
			return
		}
		if nfd >= 0 {
			s.admit(nfd)
		}
		if !more {
			return
		}
	}
}

// admit turns a raw descriptor into a tracked net.Conn and hands it to the
// thread pool.
func (s *Server) admit(nfd int) {
	f := os.NewFile(uintptr(nfd), "conn")
	conn, err := net.FileConn(f)
	f.Close()
	if err != nil {
		s.log.Error().Err(err).Msg("wrap connection")
		return
	}

	id := uuid.NewString()
	s.trackConn(id, conn)

	job := api.Job{
		Fn: func(arg any) {
			c := arg.(net.Conn)
			defer func() {
				s.untrackConn(id)
				c.Close()
			}()
			if err := s.handler.Handle(c); err != nil {
				s.log.Debug().Err(err).Str("conn", id).Msg("handler finished with error")
			}
		},
		Arg: conn,
	}
	if err := s.pool.Submit(job); err != nil {
		// Backpressure: refuse rather than queue unboundedly.
		if err == concurrency.ErrQueueFull {
			s.log.Warn().Str("conn", id).Msg("job queue full, refusing connection")
		} else {
			s.log.Warn().Err(err).Str("conn", id).Msg("cannot admit connection")
		}
		s.untrackConn(id)
		conn.Close()
		return
	}
	s.log.Debug().Str("conn", id).Str("remote", remoteAddr(conn)).Msg("connection admitted")
}

func remoteAddr(c net.Conn) string {
	if a := c.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

func (s *Server) trackConn(id string, c net.Conn) {
	s.connMu.Lock()
	s.conns[id] = c
	s.connMu.Unlock()
}

func (s *Server) untrackConn(id string) {
	s.connMu.Lock()
	delete(s.conns, id)
	s.connMu.Unlock()
}

// closeConns force-closes every live connection so per-connection jobs
// blocked in reads observe EOF and the pool can drain.
func (s *Server) closeConns() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for id, c := range s.conns {
		c.Close()
		delete(s.conns, id)
	}
}

// removeSocketFile removes the Unix socket file left by the listener.
// Teardown has nothing useful to do with a removal error.
func removeSocketFile(path string) {
	_ = os.Remove(path)
}

// echoHandler is the default line-oriented handler: every received line is
// written back. It demonstrates the reactor-to-pool composition; real wire
// protocols replace it through WithHandler.
func echoHandler(conn net.Conn) error {
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			if _, werr := conn.Write(line); werr != nil {
				return werr
			}
		}
		if err != nil {
			return nil
		}
	}
}
