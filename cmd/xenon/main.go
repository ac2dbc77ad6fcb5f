// Copyright (C) 2026 the xenon authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// General Public License for more details.
//
// License: GPLv3 or later

// xenon runs one Xbox 360 core instance: it loads a configuration file,
// wires every subsystem through the orchestrator, and runs until the guest
// requests power-off or the process receives an interrupt signal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xenon-emu/xenon/internal/config"
	"github.com/xenon-emu/xenon/internal/orchestrator"
)

func main() {
	configPath := flag.String("config", "", "path to a core configuration file (key=value)")
	nandPath := flag.String("nand", "", "override nand_image")
	hddPath := flag.String("hdd", "", "override hdd_image")
	oddPath := flag.String("odd", "", "override odd_image")
	logLevel := flag.String("log-level", "", "override log.level (debug|info|warn|error)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "xenon: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *nandPath != "" {
		cfg.NANDPath = *nandPath
	}
	if *hddPath != "" {
		cfg.HDDImagePath = *hddPath
	}
	if *oddPath != "" {
		cfg.ODDImagePath = *oddPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	o, err := orchestrator.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "xenon: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Both an OS signal and a guest-requested power-off cancel the run loop
	// the same way, so context.Canceled here means "stopped on request", not
	// a failure.
	if err := o.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "xenon: %v\n", err)
		os.Exit(1)
	}
}
