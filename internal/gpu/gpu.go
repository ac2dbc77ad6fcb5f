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

// Package gpu implements the Xenos GPU's register file, EDRAM side-band
// access protocol, and PM4 command-stream processor. Grounded on the
// teacher's register-array-plus-dirty-bitset device texture (machine_bus.go)
// and original_source's XGPU register/EDRAM layout.
package gpu

import (
	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/iic"
	"github.com/xenon-emu/xenon/internal/logging"
)

// NumRegisters bounds the 20-bit register index space actually exercised by
// guest firmware; the real space is larger but sparsely used (§2 [GPU]).
const NumRegisters = 0x10000

// EDRAMSize is the Xenos's architectural embedded DRAM size.
const EDRAMSize = 10 * 1024 * 1024

// EDRAM tile-row constants from the original's EDRAM.cpp, kept even though
// pixel-accurate tiling is out of scope (SPEC_FULL §3).
const (
	EDRAMTileWidth  = 80
	EDRAMTileHeight = 16
	EDRAMNumTiles   = EDRAMSize / (EDRAMTileWidth * EDRAMTileHeight * 4)
)

// register-window offsets for the index/data MMIO pair.
const (
	offsetIndex     = 0x00
	offsetData      = 0x04
	offsetEDRAMIdx  = 0x08
	offsetEDRAMData = 0x0C
	offsetEDRAMCtl  = 0x10
)

const edramBusyBit = 1 << 31

// GPU holds the register file, its dirty bitset, and the EDRAM side-band
// access state machine.
type GPU struct {
	regs  [NumRegisters]uint32
	dirty []uint64 // one bit per register

	index uint32

	edram      []byte
	edramIndex uint32
	edramCtl   uint32

	CP *CommandProcessor
}

// New creates a GPU with its register file and EDRAM zeroed. The command
// processor's INTERRUPT packets are routed through ic on line.
func New(b *bus.Bus, ic *iic.Controller, line iic.Line) *GPU {
	g := &GPU{
		dirty: make([]uint64, NumRegisters/64+1),
		edram: make([]byte, EDRAMSize),
	}
	g.CP = NewCommandProcessor(g, b, ic, line)
	return g
}

func (g *GPU) Name() string { return "gpu" }

// Reg returns register idx's current value.
func (g *GPU) Reg(idx uint32) uint32 { return g.regs[idx%NumRegisters] }

// SetReg writes register idx and marks it dirty, as guest firmware's direct
// register pokes and the command processor's SET_CONSTANT handling do.
func (g *GPU) SetReg(idx, val uint32) {
	idx %= NumRegisters
	g.regs[idx] = val
	g.dirty[idx/64] |= 1 << (idx % 64)
}

// Dirty reports whether register idx has been written since the last
// ClearDirty, for a renderer (out of scope here) to detect state changes.
func (g *GPU) Dirty(idx uint32) bool {
	idx %= NumRegisters
	return g.dirty[idx/64]&(1<<(idx%64)) != 0
}

func (g *GPU) ClearDirty(idx uint32) {
	idx %= NumRegisters
	g.dirty[idx/64] &^= 1 << (idx % 64)
}

func (g *GPU) Read(offset uint64, width int) uint64 {
	switch offset {
	case offsetIndex:
		return uint64(g.index)
	case offsetData:
		return uint64(g.Reg(g.index))
	case offsetEDRAMIdx:
		return uint64(g.edramIndex)
	case offsetEDRAMData:
		return uint64(g.readEDRAM(g.edramIndex))
	case offsetEDRAMCtl:
		return uint64(g.edramCtl)
	default:
		return 0
	}
}

func (g *GPU) Write(offset uint64, width int, value uint64) {
	switch offset {
	case offsetIndex:
		g.index = uint32(value)
	case offsetData:
		g.SetReg(g.index, uint32(value))
		// a guest write to the ring write-pointer register is what actually
		// drives the command processor: it publishes the new index for the
		// CP.Run worker goroutine and also drains the ring here
		// synchronously (§5).
		g.CP.onRegisterWrite(g.index, uint32(value))
	case offsetEDRAMIdx:
		g.edramIndex = uint32(value)
	case offsetEDRAMData:
		g.writeEDRAM(g.edramIndex, uint32(value))
	case offsetEDRAMCtl:
		// busy bit is asserted only for the duration of the access itself;
		// by the time the guest's next read observes edramCtl it has
		// already cleared (§2 [GPU]: "busy bit asserted for the duration of
		// the access").
		g.edramCtl = uint32(value) &^ edramBusyBit
	default:
		logging.Debugf("gpu: write to unmapped register window offset %#x", offset)
	}
}

func (g *GPU) readEDRAM(idx uint32) uint32 {
	off := (idx % (EDRAMSize / 4)) * 4
	return uint32(g.edram[off]) | uint32(g.edram[off+1])<<8 | uint32(g.edram[off+2])<<16 | uint32(g.edram[off+3])<<24
}

func (g *GPU) writeEDRAM(idx, val uint32) {
	off := (idx % (EDRAMSize / 4)) * 4
	g.edram[off] = byte(val)
	g.edram[off+1] = byte(val >> 8)
	g.edram[off+2] = byte(val >> 16)
	g.edram[off+3] = byte(val >> 24)
}
