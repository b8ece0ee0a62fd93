//go:build linux || darwin || freebsd || netbsd || openbsd

// File: server/listener_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw listening-socket setup. The descriptor is non-blocking so the accept
// callback can drain the kernel backlog without stalling the reactor.

package server

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// newListenSocket creates a non-blocking stream socket of the given family.
func newListenSocket(family int) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("set nonblock: %w", err)
	}
	return fd, nil
}

// listenTCP creates a non-blocking TCP listener bound to the given port.
func listenTCP(port, backlog int) (int, error) {
	fd, err := newListenSocket(unix.AF_INET)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setsockopt: %w", err)
	}
	sa := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind port %d: %w", port, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	return fd, nil
}

// listenUnix creates a non-blocking Unix domain socket listener at path.
// A stale socket file from a previous run is removed first.
func listenUnix(path string, backlog int) (int, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return -1, fmt.Errorf("unlink %s: %w", path, err)
	}
	fd, err := newListenSocket(unix.AF_UNIX)
	if err != nil {
		return -1, err
	}
	sa := &unix.SockaddrUnix{Name: path}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind %s: %w", path, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	return fd, nil
}

// boundPort reports the port the descriptor is actually bound to. Needed
// when the configured port is 0 and the kernel picked one.
func boundPort(fd int) (int, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, err
	}
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return a.Port, nil
	case *unix.SockaddrInet6:
		return a.Port, nil
	default:
		return 0, nil
	}
}

// acceptOne pulls one pending connection off the listener. The second
// result is false once the kernel backlog is drained; a transient
// ECONNABORTED or EINTR leaves it true so the caller keeps draining.
func acceptOne(listenFd int) (int, bool, error) {
	nfd, _, err := unix.Accept(listenFd)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return -1, false, nil
		}
		if err == unix.ECONNABORTED || err == unix.EINTR {
			return -1, true, nil
		}
		return -1, false, err
	}
	unix.CloseOnExec(nfd)
	return nfd, true, nil
}
