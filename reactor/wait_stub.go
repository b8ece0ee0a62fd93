//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

// File: reactor/wait_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub readiness wait for unsupported platforms.

package reactor

import (
	"errors"

	"github.com/momentics/sockserve/api"
)

func wait(snapshot []entry, timeoutMs int) ([]api.FDEventType, error) {
	return nil, errors.New("reactor: this platform is not supported")
}
