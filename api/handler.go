// File: api/handler.go
// Package api defines the connection Handler interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net"

// Handler processes one accepted connection. Handle is invoked on a worker
// goroutine of the thread pool and owns the connection for its duration;
// the runtime closes the connection after Handle returns.
type Handler interface {
	Handle(conn net.Conn) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(conn net.Conn) error

// Handle implements Handler.
func (f HandlerFunc) Handle(conn net.Conn) error { return f(conn) }
