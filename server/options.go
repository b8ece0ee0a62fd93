// File: server/options.go
// Package server - functional options for the Server facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import "github.com/momentics/sockserve/api"

// Option customizes server initialization.
type Option func(*Server)

// WithHandler sets the connection handler executed on the thread pool for
// each accepted connection.
func WithHandler(h api.Handler) Option {
	return func(s *Server) {
		s.handler = h
	}
}

// WithConfigWatch enables hot reload of the given config file. Only the log
// level is applied live; structural parameters stay fixed for the process
// lifetime.
func WithConfigWatch(path string) Option {
	return func(s *Server) {
		s.watchPath = path
	}
}

// WithoutSignals disables SIGINT/SIGTERM handling. Used by tests and by
// embedders that own signal delivery themselves.
func WithoutSignals() Option {
	return func(s *Server) {
		s.noSignals = true
	}
}
