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

package ppc

import (
	"fmt"

	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/iic"
	"github.com/xenon-emu/xenon/internal/logging"
	"github.com/xenon-emu/xenon/internal/mmu"
	"github.com/xenon-emu/xenon/internal/reservation"
)

// UnknownOpcodePolicy controls what happens when decode produces no handler
// (§4.3: "unknown opcodes either stop the thread for inspection or continue
// with logged warnings, per configuration").
type UnknownOpcodePolicy int

const (
	UnknownHalt UnknownOpcodePolicy = iota
	UnknownWarnAndSkip
)

// SkipConfig configures the hardware-init-skip feature (§4.3, §4.8, §9):
// when enabled and CIA matches AddrA/AddrB, the next bclr's condition is
// forced false/true respectively so the bootloader bypasses uninitialized
// hardware probes.
type SkipConfig struct {
	Enabled bool
	AddrA   uint64
	AddrB   uint64
}

// CPU wires together every PPU thread with the shared bus, MMU, reservation
// table and interrupt controller (§4.7, §9: devices hold back-pointers to an
// arena, not to each other — here the CPU is that arena for thread state).
type CPU struct {
	Bus   *bus.Bus
	MMU   *mmu.MMU
	IIC   *iic.Controller
	Resv  *reservation.Table
	Threads [NumThreads]*Thread

	Skip SkipConfig

	UnknownPolicy UnknownOpcodePolicy

	running [NumThreads]bool
}

// New constructs a CPU. Thread state is zeroed; call ResetAll or Reset per
// thread before execution.
func New(b *bus.Bus, m *mmu.MMU, ic *iic.Controller) *CPU {
	rt := reservation.New(NumThreads)
	c := &CPU{Bus: b, MMU: m, IIC: ic, Resv: rt}
	for i := 0; i < NumThreads; i++ {
		c.Threads[i] = NewThread(i, rt)
	}
	return c
}

// ResetAll resets every thread. Thread 0 starts at bootPC (the boot vector);
// secondary threads start parked at the same vector per the real hardware's
// reset behavior (the guest's kernel relocates them).
func (c *CPU) ResetAll(bootPC uint64) {
	c.Resv.Reset()
	c.MMU.Reset()
	c.IIC.Reset()
	for _, t := range c.Threads {
		t.Reset(bootPC)
	}
}

// Halt marks thread as not running; the orchestrator's per-thread goroutine
// observes this between instructions.
func (c *CPU) Halt(thread int) { c.running[thread] = false }

// Continue marks thread as running.
func (c *CPU) Continue(thread int) { c.running[thread] = true }

// Running reports whether thread is currently allowed to execute.
func (c *CPU) Running(thread int) bool { return c.running[thread] }

// Step fetches, decodes and executes exactly one instruction on thread,
// then delivers any exception (synchronous from this instruction, or
// asynchronous if MSR.EE is set and one is pending) per spec.md §4.3.
//
// Step is not safe for concurrent use on the same thread, but the
// orchestrator only ever calls it from that thread's own goroutine — cross-
// thread memory access is serialized by the bus and the reservation table,
// not by Step itself (§5).
func (c *CPU) Step(t *Thread) {
	t.PIA = t.CIA
	t.CIA = t.NIA

	fr := c.MMU.TranslateFetch(t.Index, t.CIA, 0, t.MSR&MSR_IR != 0)
	if fr.Fault != mmu.FaultNone {
		t.raiseISI(fr)
		return
	}

	insn32 := uint32(c.Bus.Read(fr.PA, 4))

	var d decoded
	if t.cacheValid && t.cacheAddr == t.CIA && t.cacheInsn == insn32 {
		d = t.cacheDec
	} else {
		d = decode(insn32)
		t.cacheAddr, t.cacheInsn, t.cacheDec, t.cacheValid = t.CIA, insn32, d, true
	}

	t.NIA = t.CIA + 4
	t.pendingSync = ExcNone

	c.execute(t, d)

	if t.pendingSync != ExcNone {
		c.deliver(t, t.pendingSync)
		return
	}
	if t.MSR&MSR_EE != 0 {
		if t.Decrementer > 0 {
			t.Decrementer--
			if t.Decrementer == 0 {
				c.deliver(t, ExcDecrementer)
				return
			}
		}
		if c.IIC.Pending(t.Index) != 0 {
			c.deliver(t, ExcExternal)
			return
		}
	}
}

func (t *Thread) raiseISI(fr mmu.Result) {
	t.SRR0 = t.CIA
	t.SRR1 = t.MSR & 0xFFFF
	t.DSISR = fr.DSISR
	t.pendingSync = ExcISI
}

// raise marks exc as pending for delivery at the end of the current Step.
// SRR0 is set from the faulting instruction address per §4.3 ("store
// {CIA, SRR0}").
func (t *Thread) raise(exc ExceptionKind) {
	t.SRR0 = t.CIA
	t.SRR1 = t.MSR & 0xFFFF
	t.pendingSync = exc
}

func (c *CPU) deliver(t *Thread, exc ExceptionKind) {
	off, ok := vectorOffset[exc]
	if !ok {
		logging.Errorf("ppc: thread %d: no vector for exception %d", t.Index, exc)
		return
	}
	t.SRR1 = t.MSR & 0xFFFF
	t.MSR &^= MSR_EE | MSR_PR | MSR_IR | MSR_DR
	t.NIA = off
	if exc == ExcExternal {
		// Mirror a real PIC's ack-highest-priority behavior: clear the
		// lowest-numbered pending line so the handler's own IIC reads see
		// it consumed once dispatch completes.
		for i := 0; i < iic.NumLines; i++ {
			line := iic.Line(i)
			if c.IIC.Pending(t.Index)&(1<<uint(line)) != 0 {
				c.ackExternal(t.Index, line)
				break
			}
		}
	}
}

func (c *CPU) execute(t *Thread, d decoded) {
	h := primaryTable[d.op]
	if h == nil {
		c.unknown(t, d)
		return
	}
	h(c, t, d.insn)
}

func (c *CPU) unknown(t *Thread, d decoded) {
	switch c.UnknownPolicy {
	case UnknownHalt:
		logging.Warnf("ppc: thread %d: unknown opcode %#x at %#x, halting", t.Index, d.insn, t.CIA)
		t.Halted = true
		c.Halt(t.Index)
	default:
		logging.Debugf("ppc: thread %d: unknown opcode %#x at %#x, skipping", t.Index, d.insn, t.CIA)
	}
}

// String renders a thread's architected state for diagnostics and the
// debug/test-runner surfaces.
func (t *Thread) String() string {
	return fmt.Sprintf("thread%d pc=%#x msr=%#x cr=%#x lr=%#x ctr=%#x",
		t.Index, t.CIA, t.MSR, t.CR, t.LR, t.CTR)
}
