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

// Package ppc implements the cycle-approximate 64-bit PowerPC interpreter:
// one Thread per hardware thread (3 cores x 2 threads), sharing a Bus, MMU,
// reservation table and interrupt controller through a CPU.
//
// Grounded on the teacher's multi-ISA interpreter family (cpu_m68k.go,
// cpu_six5go2.go, cpu_x86.go): a plain register-struct per core, a
// table-driven primary decode indexed by opcode bits, and secondary tables
// for extended-opcode forms — generalized here to 64-bit PowerPC with a
// supervisor mode, vector unit and hardware MMU the home-computer CPUs never
// needed.
package ppc

import "github.com/xenon-emu/xenon/internal/reservation"

// NumThreads hardware threads per SPEC_FULL (3 cores x 2 threads).
const NumThreads = 6

// MSR bit positions (subset actually consulted by the interpreter).
const (
	MSR_LE = 1 << 0  // little-endian mode
	MSR_RI = 1 << 1  // recoverable interrupt
	MSR_DR = 1 << 4  // data address translation enabled
	MSR_IR = 1 << 5  // instruction address translation enabled
	MSR_FP = 1 << 13 // floating point available
	MSR_ME = 1 << 12 // machine check enable
	MSR_VXU = 1 << 25 // vector unit available
	MSR_POW = 1 << 18
	MSR_PR  = 1 << 14 // problem state (non-supervisor)
	MSR_EE  = 1 << 15 // external interrupt enable
	MSR_SF  = 1 << 63 // 64-bit mode
)

// Vector128 is one AltiVec-style 128-bit vector register, stored as 16
// big-endian bytes (§4.3: "lane layout is 16 bytes, big-endian").
type Vector128 [16]byte

// ExceptionKind enumerates the synchronous and asynchronous exceptions the
// interpreter can raise (§4.3).
type ExceptionKind int

const (
	ExcNone ExceptionKind = iota
	ExcSystemCall
	ExcProgram       // illegal instruction / trap
	ExcAlignment
	ExcDSI
	ExcISI
	ExcFPUnavailable
	ExcVXUUnavailable
	ExcExternal
	ExcDecrementer
)

// vector base addresses (offsets from the exception vector table base).
var vectorOffset = map[ExceptionKind]uint64{
	ExcSystemCall:    0x0C00,
	ExcProgram:       0x0700,
	ExcAlignment:     0x0600,
	ExcDSI:           0x0300,
	ExcISI:           0x0400,
	ExcFPUnavailable: 0x0800,
	ExcVXUUnavailable: 0x0F20,
	ExcExternal:      0x0500,
	ExcDecrementer:   0x0900,
}

// Thread holds the full architected state of one PowerPC hardware thread.
type Thread struct {
	Index int // 0..NumThreads-1

	GPR [32]uint64
	FPR [32]uint64 // IEEE-754 double bit patterns
	VR  [128]Vector128

	MSR  uint64
	CR   uint32
	XER  uint64
	LR   uint64
	CTR  uint64
	FPSCR uint64

	SRR0, SRR1 uint64
	DAR        uint64
	DSISR      uint32

	SPRG [4]uint64
	TBR  uint64 // time base register, advanced by the orchestrator's tick

	PIA uint64 // previous instruction address
	CIA uint64 // current instruction address
	NIA uint64 // next instruction address

	Reservation *reservation.Table

	// pendingSync holds the synchronous exception raised by the current
	// instruction, consumed by Step immediately after execution.
	// Asynchronous exceptions (external, decrementer) are not queued here;
	// Step samples the decrementer and the IIC between instructions.
	pendingSync  ExceptionKind
	pendingAsync bool

	Decrementer int64

	Halted bool // soft-halt: unknown opcode with halt-on-unknown configured

	// oneEntryCache: decoded instruction for the single most recently
	// fetched address (§4.3: "per-thread one-entry instruction cache avoids
	// redecoding in tight loops").
	cacheAddr  uint64
	cacheValid bool
	cacheInsn  uint32
	cacheDec   decoded
}

// NewThread creates a thread bound to reservation table rt.
func NewThread(index int, rt *reservation.Table) *Thread {
	return &Thread{Index: index, Reservation: rt}
}

// Reset restores the thread to its post-reset state, starting execution at
// pc (the boot vector for thread 0, or a park loop address for secondary
// threads), per spec.md §3 reset transition.
func (t *Thread) Reset(pc uint64) {
	*t = Thread{Index: t.Index, Reservation: t.Reservation}
	t.MSR = MSR_SF | MSR_ME
	t.CIA = pc
	t.NIA = pc
}

// CRField returns the 4 condition-register bits for field (0-7), MSB first.
func (t *Thread) CRField(field int) uint32 {
	shift := uint(28 - 4*field)
	return (t.CR >> shift) & 0xF
}

// SetCRField overwrites condition-register field (0-7) with the low 4 bits
// of val.
func (t *Thread) SetCRField(field int, val uint32) {
	shift := uint(28 - 4*field)
	mask := uint32(0xF) << shift
	t.CR = (t.CR &^ mask) | ((val & 0xF) << shift)
}

// SetCR0 updates CR field 0 from a signed 64-bit comparison result plus the
// summary-overflow bit from XER, as every Rc=1 integer instruction does.
func (t *Thread) SetCR0(result int64) {
	var f uint32
	switch {
	case result < 0:
		f = 0x8
	case result > 0:
		f = 0x4
	default:
		f = 0x2
	}
	if t.XER&(1<<31) != 0 {
		f |= 0x1
	}
	t.SetCRField(0, f)
}
