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

package orchestrator

import (
	"fmt"
	"io"
	"net"
	"os"

	"github.com/xenon-emu/xenon/internal/config"
)

// newUARTTransport opens the SMC console transport named by cfg, per §3's
// config schema detail ("UART mode").
func newUARTTransport(cfg config.Config) (io.ReadWriter, error) {
	switch cfg.UARTMode {
	case config.UARTSocket:
		if cfg.UARTSocketAddr == "" {
			return nil, fmt.Errorf("orchestrator: uart.mode=socket requires uart.socket_addr")
		}
		conn, err := net.Dial("tcp", cfg.UARTSocketAddr)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: uart socket dial %s: %w", cfg.UARTSocketAddr, err)
		}
		return conn, nil
	case config.UARTVCOM:
		if cfg.UARTVCOMDevice == "" {
			return nil, fmt.Errorf("orchestrator: uart.mode=vcom requires uart.vcom_device")
		}
		f, err := os.OpenFile(cfg.UARTVCOMDevice, os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: uart vcom open %s: %w", cfg.UARTVCOMDevice, err)
		}
		return f, nil
	default:
		return stdoutUART{}, nil
	}
}

// stdoutUART prints guest console output to the process's own stdout and
// never produces input, used when no interactive transport is configured.
type stdoutUART struct{}

func (stdoutUART) Read(p []byte) (int, error)  { return 0, io.EOF }
func (stdoutUART) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
