// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the single-threaded poll-mode event multiplexer:
// a bounded registration table mapping descriptors to callbacks, dispatched
// synchronously on the calling thread each poll round.
package reactor
