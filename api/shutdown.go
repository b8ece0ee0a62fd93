// File: api/shutdown.go
// Package api defines the unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components that release their
// resources in an orderly fashion.
type GracefulShutdown interface {
	// Shutdown stops the component and releases its resources.
	Shutdown() error
}
