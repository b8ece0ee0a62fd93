// File: cmd/sockserve/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// sockserve binary: flags and optional JSON config file feed the server
// lifecycle. Exit status 0 after ordered cleanup, 1 on initialization
// failure.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/momentics/sockserve/control"
	"github.com/momentics/sockserve/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to JSON config file")
		port       = flag.Int("port", 0, "TCP listen port (overrides config)")
		socketPath = flag.String("socket", "", "Unix socket path (overrides port)")
		workers    = flag.Int("workers", 0, "thread pool size (overrides config)")
		logFile    = flag.String("log", "", "log file path (default stderr)")
		dbPath     = flag.String("db", "", "user database path (overrides config)")
		watch      = flag.Bool("watch", false, "hot-reload the config file on change")
	)
	flag.Parse()

	cfg := control.DefaultConfig()
	if *configPath != "" {
		loaded, err := control.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sockserve: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}
	if *workers != 0 {
		cfg.Workers = *workers
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	var opts []server.Option
	if *watch && *configPath != "" {
		opts = append(opts, server.WithConfigWatch(*configPath))
	}

	srv, err := server.New(cfg, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sockserve: %v\n", err)
		os.Exit(1)
	}
	if err := srv.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "sockserve: %v\n", err)
		os.Exit(1)
	}
}
