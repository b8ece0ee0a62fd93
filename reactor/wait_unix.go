//go:build linux || darwin || freebsd || netbsd || openbsd

// File: reactor/wait_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// poll(2)-based readiness wait for Unix-like systems.

package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/sockserve/api"
)

// wait blocks in poll(2) over the snapshot for at most timeoutMs
// milliseconds and returns the observed events per snapshot slot.
// EINTR yields an all-zero result, not an error.
func wait(snapshot []entry, timeoutMs int) ([]api.FDEventType, error) {
	ready := make([]api.FDEventType, len(snapshot))
	fds := make([]unix.PollFd, len(snapshot))
	for i, e := range snapshot {
		var events int16
		if e.events&api.EventRead != 0 {
			events |= unix.POLLIN
		}
		if e.events&api.EventWrite != 0 {
			events |= unix.POLLOUT
		}
		fds[i] = unix.PollFd{Fd: int32(e.fd), Events: events}
	}

	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return ready, nil
		}
		return nil, err
	}
	if n == 0 {
		return ready, nil
	}

	for i := range fds {
		re := fds[i].Revents
		if re == 0 {
			continue
		}
		var ev api.FDEventType
		if re&unix.POLLIN != 0 {
			ev |= api.EventRead
		}
		if re&unix.POLLOUT != 0 {
			ev |= api.EventWrite
		}
		if re&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			ev |= api.EventError
		}
		ready[i] = ev
	}
	return ready, nil
}
