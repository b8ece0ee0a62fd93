// File: internal/logging/logging.go
// Package logging builds the runtime's zerolog logger from configuration.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Open creates a logger writing to the configured file, or stderr when the
// path is empty. The returned closer flushes and closes the log destination
// and is intended to be registered as the lowest-priority cleanup finalizer
// so logging outlives every other teardown step.
//
// The level is installed as zerolog's global level rather than baked into
// the returned logger, so a config hot reload can move it in either
// direction for every derived component logger.
func Open(path, level string) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("logging: parse level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)

	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("logging: open %s: %w", path, err)
		}
		w = f
		closer = f
	}

	log := zerolog.New(w).With().Timestamp().Logger()
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
