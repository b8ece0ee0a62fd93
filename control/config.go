// File: control/config.go
// Package control holds runtime configuration for the sockserve server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config holds all server-side configuration parameters. Unset fields take
// the documented defaults from DefaultConfig.
type Config struct {
	Port          int    `json:"port"`            // TCP listen port
	Backlog       int    `json:"backlog"`         // accept queue depth
	Workers       int    `json:"worker_count"`    // thread pool size
	QueueCapacity int    `json:"queue_capacity"`  // bounded job queue size
	MaxEvents     int    `json:"max_events"`      // reactor registration table size
	PollTimeoutMs int    `json:"poll_timeout_ms"` // reactor wait bound per iteration
	LogFile       string `json:"log_file"`        // log destination, empty = stderr
	LogLevel      string `json:"log_level"`       // debug|info|warn|error
	DBPath        string `json:"db_path"`         // user store location
	SocketPath    string `json:"socket_path"`     // Unix socket path, overrides Port when set
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:          8080,
		Backlog:       10,
		Workers:       4,
		QueueCapacity: 10,
		MaxEvents:     64,
		PollTimeoutMs: 1000,
		LogLevel:      "info",
		DBPath:        "sockserve.db",
	}
}

// LoadFile reads a JSON config file and overlays it on the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects parameter errors synchronously rather than substituting
// silently.
func (c *Config) Validate() error {
	// Port 0 asks the kernel for an ephemeral port.
	if c.SocketPath == "" && (c.Port < 0 || c.Port > 65535) {
		return errors.New("config: port out of range")
	}
	if c.Backlog <= 0 {
		return errors.New("config: backlog must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("config: worker_count must be positive")
	}
	if c.QueueCapacity <= 0 {
		return errors.New("config: queue_capacity must be positive")
	}
	if c.MaxEvents <= 0 {
		return errors.New("config: max_events must be positive")
	}
	return nil
}

// Addr returns the TCP listen address derived from Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
