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

// Package iic implements the per-hardware-thread interrupt priority block
// (§2.3, §4 data flow). The PCI bridge calls SetPending to raise an external
// interrupt line; the interpreter's dispatch loop polls Pending between
// instructions when MSR.EE is set.
//
// Per spec.md §9 design notes, the cycle between the PCI bridge and the IIC
// is broken here: IIC exposes only SetPending to its callers and never calls
// back into the bridge or any device.
package iic

import "sync"

// NumThreads is the number of PPU hardware threads (3 cores x 2 threads).
const NumThreads = 6

// Line identifies an external interrupt source routed through the PCI
// bridge.
type Line int

const (
	LineSMC Line = iota
	LineSFCX
	LineATA
	LineATAPI
	LineOHCI
	LineEHCI
	LineEthernet
	LineAudio
	LineGPU
	lineCount
)

// NumLines is the number of external interrupt lines the controller routes.
const NumLines = int(lineCount)

// Controller holds one pending-interrupt bitmask per hardware thread plus a
// routing table mapping each external Line to the threads it targets.
type Controller struct {
	mu      sync.Mutex
	pending [NumThreads]uint32
	routes  [lineCount][]int // thread indices that line routes to
}

// New creates a controller with every line initially unrouted.
func New() *Controller {
	return &Controller{}
}

// Route assigns an external Line to one or more hardware threads. Typically
// called once at wiring time by the orchestrator; safe to call repeatedly
// (replaces any prior routing for that line).
func (c *Controller) Route(line Line, threads ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]int, len(threads))
	copy(cp, threads)
	c.routes[line] = cp
}

// SetPending raises line, setting the pending bit on every thread it is
// routed to. Devices call this (through the PCI bridge) rather than
// targeting a thread directly.
func (c *Controller) SetPending(line Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.routes[line] {
		if t >= 0 && t < NumThreads {
			c.pending[t] |= 1 << uint(line)
		}
	}
}

// Pending returns the full pending bitmask for thread, sampled by the
// interpreter's dispatch loop between instructions.
func (c *Controller) Pending(thread int) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if thread < 0 || thread >= NumThreads {
		return 0
	}
	return c.pending[thread]
}

// Ack clears the given line's pending bit on thread, called by the
// interpreter once it has dispatched the corresponding exception.
func (c *Controller) Ack(thread int, line Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if thread < 0 || thread >= NumThreads {
		return
	}
	c.pending[thread] &^= 1 << uint(line)
}

// Reset clears all pending state but preserves routing, matching the
// orchestrator's reset transition (routes are re-established separately by
// re-registration, per spec.md §3).
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.pending {
		c.pending[i] = 0
	}
}
