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

// Package smc implements the System Management Controller: a 16-byte
// command/response FIFO slot reachable from guest physical memory, a UART
// console channel, and the periodic clock interrupt that drives the guest's
// system timer. Grounded on original_source's SMC.cpp command dispatch and
// the teacher's device-register-map texture (machine_bus.go device structs).
package smc

import (
	"io"
	"sync"

	"github.com/xenon-emu/xenon/internal/iic"
	"github.com/xenon-emu/xenon/internal/logging"
)

// Command identifies the one-byte opcode at slot[0] (free60-documented
// subset, spec.md §4.4).
type Command byte

const (
	CmdPowerOnQuery Command = 0x01 // PWRON_TYPE: query power-on reason
	CmdQueryVersion Command = 0x02
	CmdSetStandby   Command = 0x03 // slot[1]: 0 = shutdown, 1 = reboot
	CmdQueryRTC     Command = 0x04
	CmdQueryAVPack  Command = 0x05
	CmdI2CReadWrite Command = 0x06
)

// Signal is a power-state transition the SMC requests of the orchestrator.
type Signal int

const (
	SignalNone Signal = iota
	SignalPowerOff
	SignalReboot
)

// register offsets within the device's mapped window. The 16-byte slot is
// shared between command and reply: "replies overwrite the slot in-place"
// (spec.md §3/§6).
const (
	offSlot          = 0x00 // 0x00-0x0F, 16 bytes
	offFIFOInStatus  = 0x10
	offFIFOOutStatus = 0x14
	offUARTData      = 0x18
	offUARTStatus    = 0x1C
)

// FIFO_IN_STATUS / FIFO_OUT_STATUS values (spec.md §3/§4.4).
const (
	statusBusy  = 0x0
	statusReady = 0x4
)

// Controller is the memory-mapped SMC device. It satisfies bus.Handler.
type Controller struct {
	mu sync.Mutex

	slot [16]byte

	inStatus  uint64
	outStatus uint64

	powerOnReason int
	avPackType    int

	uart io.ReadWriter
	iic  *iic.Controller
	line iic.Line

	onSignal func(Signal)

	ticksUntilInterrupt int
	ticksPerInterrupt   int
}

// New creates a controller. uart may be nil (console output dropped).
// onSignal is invoked synchronously from Write when the guest issues a
// power-off or reboot command; the orchestrator supplies the real
// implementation.
func New(ic *iic.Controller, uart io.ReadWriter, onSignal func(Signal)) *Controller {
	return &Controller{
		inStatus:          statusReady,
		uart:              uart,
		iic:               ic,
		line:              iic.LineSMC,
		onSignal:          onSignal,
		ticksPerInterrupt: 1000,
	}
}

// SetPowerOnReason and SetAVPackType record the values the SMC reports to
// PWRON_TYPE and QUERY_AVPACK queries, sourced from config at startup.
func (c *Controller) SetPowerOnReason(v int) { c.mu.Lock(); c.powerOnReason = v; c.mu.Unlock() }
func (c *Controller) SetAVPackType(v int)    { c.mu.Lock(); c.avPackType = v; c.mu.Unlock() }

func (c *Controller) Name() string { return "smc" }

func (c *Controller) Read(offset uint64, width int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case offset < 16:
		return uint64(c.slot[offset])
	case offset == offFIFOInStatus:
		return c.inStatus
	case offset == offFIFOOutStatus:
		return c.outStatus
	case offset == offUARTData:
		if c.uart == nil {
			return 0
		}
		var b [1]byte
		if n, _ := c.uart.Read(b[:]); n == 1 {
			return uint64(b[0])
		}
		return 0
	case offset == offUARTStatus:
		return 1 // always reports ready; no flow control modeled
	default:
		return 0
	}
}

func (c *Controller) Write(offset uint64, width int, value uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case offset < 16:
		c.slot[offset] = byte(value)
	case offset == offFIFOInStatus:
		c.inStatus = value
		if value == statusBusy {
			c.dispatch()
			c.inStatus = statusReady
			c.outStatus = statusReady
			if c.iic != nil {
				c.iic.SetPending(c.line)
			}
		}
	case offset == offFIFOOutStatus:
		// the guest clears out-status after consuming the reply.
		c.outStatus = value
	case offset == offUARTData:
		if c.uart != nil {
			c.uart.Write([]byte{byte(value)})
		}
	default:
	}
}

// dispatch interprets the command currently in slot[0] and overwrites slot
// in-place with the 16-byte reply. Unrecognized opcodes are logged and
// otherwise ignored; this mirrors the hardware's tolerance of guest
// firmware probing for SMC features it doesn't have.
func (c *Controller) dispatch() {
	op := Command(c.slot[0])
	reply := [16]byte{}
	switch op {
	case CmdPowerOnQuery:
		reply[0] = byte(CmdPowerOnQuery)
		reply[1] = byte(c.powerOnReason)
	case CmdQueryVersion:
		reply[0] = byte(CmdQueryVersion)
		copy(reply[1:], []byte{0x02, 0x00, 0x10, 0x00})
	case CmdSetStandby:
		reply[0] = byte(CmdSetStandby)
		if c.slot[1] == 1 {
			logging.Infof("smc: reboot requested")
			if c.onSignal != nil {
				c.onSignal(SignalReboot)
			}
		} else {
			logging.Infof("smc: power-off requested")
			if c.onSignal != nil {
				c.onSignal(SignalPowerOff)
			}
		}
	case CmdQueryRTC:
		reply[0] = byte(CmdQueryRTC)
		// no real-time clock modeled; zero time is a stable, documented stub.
	case CmdQueryAVPack:
		reply[0] = byte(CmdQueryAVPack)
		reply[1] = byte(c.avPackType)
	case CmdI2CReadWrite:
		reply[0] = byte(CmdI2CReadWrite)
	default:
		logging.Debugf("smc: unrecognized command %#02x", byte(op))
		reply[0] = c.slot[0]
	}
	c.slot = reply
}

// Tick advances the SMC's internal clock divider by one bus tick, firing the
// SMC interrupt line on the configured period — the guest's primary source
// of periodic timekeeping interrupts (§4.4).
func (c *Controller) Tick() {
	c.mu.Lock()
	c.ticksUntilInterrupt--
	fire := c.ticksUntilInterrupt <= 0
	if fire {
		c.ticksUntilInterrupt = c.ticksPerInterrupt
	}
	c.mu.Unlock()
	if fire && c.iic != nil {
		c.iic.SetPending(c.line)
	}
}
