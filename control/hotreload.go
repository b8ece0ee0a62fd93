// File: control/hotreload.go
// Package control - config file watching and reload hook dispatch.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher observes a config file and dispatches reload hooks with the
// freshly parsed Config whenever the file is rewritten. A file that fails
// to parse is logged and skipped; the previous configuration stays active.
type Watcher struct {
	mu      sync.Mutex
	hooks   []func(*Config)
	watcher *fsnotify.Watcher
	done    chan struct{}
	log     zerolog.Logger
}

// NewWatcher starts watching path. The caller must Close the watcher.
func NewWatcher(path string, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{
		watcher: fw,
		done:    make(chan struct{}),
		log:     log.With().Str("component", "hotreload").Logger(),
	}
	go w.loop(path)
	return w, nil
}

// OnReload registers a hook called with each successfully reloaded Config.
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hooks = append(w.hooks, fn)
}

// Close stops the watch loop and releases the underlying watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop(path string) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadFile(path)
			if err != nil {
				w.log.Warn().Err(err).Msg("config reload failed, keeping previous")
				continue
			}
			w.dispatch(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("config watch error")
		}
	}
}

// dispatch invokes hooks synchronously so a reload is fully applied before
// the next event is handled.
func (w *Watcher) dispatch(cfg *Config) {
	w.mu.Lock()
	hooks := make([]func(*Config), len(w.hooks))
	copy(hooks, w.hooks)
	w.mu.Unlock()
	for _, fn := range hooks {
		fn(cfg)
	}
	w.log.Info().Msg("config reloaded")
}
