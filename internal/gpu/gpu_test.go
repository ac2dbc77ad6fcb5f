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

package gpu

import (
	"testing"

	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/iic"
	"github.com/xenon-emu/xenon/internal/memory"
)

func newTestGPU(t *testing.T) (*GPU, *bus.Bus) {
	t.Helper()
	mem := memory.New(1 << 16)
	b := bus.New(mem)
	g := New(b, nil, iic.LineGPU)
	b.Seal()
	return g, b
}

func TestRegIndexDataProtocol(t *testing.T) {
	g, _ := newTestGPU(t)
	g.Write(offsetIndex, 4, 0x42)
	g.Write(offsetData, 4, 0xCAFEBABE)

	if got := g.Reg(0x42); got != 0xCAFEBABE {
		t.Fatalf("got %#x, want 0xCAFEBABE", got)
	}
	if got := g.Read(offsetData, 4); got != 0xCAFEBABE {
		t.Fatalf("indexed read: got %#x, want 0xCAFEBABE", got)
	}
}

func TestDirtyBitTracking(t *testing.T) {
	g, _ := newTestGPU(t)
	if g.Dirty(7) {
		t.Fatal("register should start clean")
	}
	g.SetReg(7, 1)
	if !g.Dirty(7) {
		t.Fatal("expected register to be dirty after SetReg")
	}
	g.ClearDirty(7)
	if g.Dirty(7) {
		t.Fatal("expected ClearDirty to clear the dirty bit")
	}
}

func TestEDRAMIndexDataProtocol(t *testing.T) {
	g, _ := newTestGPU(t)
	g.Write(offsetEDRAMIdx, 4, 100)
	g.Write(offsetEDRAMData, 4, 0x11223344)

	if got := g.Read(offsetEDRAMIdx, 4); got != 100 {
		t.Fatalf("edram index readback: got %d", got)
	}
	if got := g.Read(offsetEDRAMData, 4); got != 0x11223344 {
		t.Fatalf("edram data round trip: got %#x, want 0x11223344", got)
	}
}

func TestEDRAMCtlBusyBitClearsImmediately(t *testing.T) {
	g, _ := newTestGPU(t)
	g.Write(offsetEDRAMCtl, 4, uint64(edramBusyBit|0x5))
	if got := g.Read(offsetEDRAMCtl, 4); got != 0x5 {
		t.Fatalf("expected busy bit cleared by the time it's observed, got %#x", got)
	}
}

func packetType0(baseReg, count uint32) uint32 {
	return (0 << 30) | (baseReg & 0xFFFF) | ((count - 1) << 16)
}

func packetType3(opcode, count uint32) uint32 {
	return (3 << 30) | ((opcode & 0x7F) << 8) | ((count - 1) << 16)
}

func TestProcessType0WritesConsecutiveRegisters(t *testing.T) {
	g, b := newTestGPU(t)
	const ringBase = 0x1000
	words := []uint32{
		packetType0(0x10, 2),
		0xAAAA,
		0xBBBB,
	}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16})
	g.CP.Submit(uint32(len(words)))

	if got := g.Reg(0x10); got != 0xAAAA {
		t.Fatalf("reg 0x10: got %#x, want 0xAAAA", got)
	}
	if got := g.Reg(0x11); got != 0xBBBB {
		t.Fatalf("reg 0x11: got %#x, want 0xBBBB", got)
	}
}

func TestProcessType3RegRMW(t *testing.T) {
	g, b := newTestGPU(t)
	g.SetReg(0x20, 0xFF00)

	const ringBase = 0x2000
	words := []uint32{
		packetType3(opRegRMW, 3),
		0x20,     // target register
		0x0F0F,   // AND mask
		0x0001,   // OR value
	}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16})
	g.CP.Submit(uint32(len(words)))

	want := uint32(0x0F00 | 0x0001)
	if got := g.Reg(0x20); got != want {
		t.Fatalf("got %#x, want %#x", got, want)
	}
}

func TestProcessType3SetConstant(t *testing.T) {
	g, b := newTestGPU(t)
	const ringBase = 0x3000
	words := []uint32{
		packetType3(opSetConstant, 3),
		0x40, // base register
		0x1,
		0x2,
	}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16})
	g.CP.Submit(uint32(len(words)))

	if g.Reg(0x40) != 1 || g.Reg(0x41) != 2 {
		t.Fatalf("set-constant write: reg40=%#x reg41=%#x", g.Reg(0x40), g.Reg(0x41))
	}
}

func TestProcessIndirectBufferRecurses(t *testing.T) {
	g, b := newTestGPU(t)

	const subBase = 0x5000
	subWords := []uint32{
		packetType0(0x50, 1),
		0x7777,
	}
	for i, w := range subWords {
		b.Write(subBase+uint64(i)*4, 4, uint64(w))
	}

	const ringBase = 0x4000
	words := []uint32{
		packetType3(opIndirectBuffer, 2),
		subBase,
		uint32(len(subWords)),
	}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16})
	g.CP.Submit(uint32(len(words)))

	if got := g.Reg(0x50); got != 0x7777 {
		t.Fatalf("indirect buffer did not apply its register write, got %#x", got)
	}
}

func TestProcessWritesBackReadIndex(t *testing.T) {
	g, b := newTestGPU(t)
	const ringBase = 0x6000
	const writeback = 0x6100
	words := []uint32{packetType0(0x60, 1), 0x1}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16, WritebackPtr: writeback})
	g.CP.Submit(uint32(len(words)))

	if got := b.Read(writeback, 4); got != uint64(len(words)) {
		t.Fatalf("writeback pointer: got %d, want %d", got, len(words))
	}
}

func TestProcessType3InterruptRoutesThroughIIC(t *testing.T) {
	mem := memory.New(1 << 16)
	b := bus.New(mem)
	ic := iic.New()
	ic.Route(iic.LineGPU, 0)
	g := New(b, ic, iic.LineGPU)
	b.Seal()

	const ringBase = 0x8000
	words := []uint32{packetType3(opInterrupt, 1), 0x01}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16})
	g.CP.Submit(uint32(len(words)))

	if ic.Pending(0) == 0 {
		t.Fatal("expected INTERRUPT to raise the GPU interrupt line")
	}
}

func TestProcessType3WaitRegMemSatisfiedImmediately(t *testing.T) {
	g, b := newTestGPU(t)
	g.SetReg(0x60, 5)

	const ringBase = 0x9000
	words := []uint32{
		packetType3(opWaitRegMem, 4),
		cmpEqual, // register source, EQUAL
		0x60,     // poll register
		5,        // reference
		0xFFFFFFFF,
	}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16})
	g.CP.Submit(uint32(len(words)))
	// No panic and the ring drains: the already-true condition doesn't spin
	// to the timeout bound.
}

func TestProcessType3CondWritePerformsConditionalWrite(t *testing.T) {
	g, b := newTestGPU(t)
	g.SetReg(0x61, 1)

	const ringBase = 0xA000
	words := []uint32{
		packetType3(opCondWrite, 6),
		cmpEqual,
		0x61, // poll register
		1,    // reference
		0xFFFFFFFF,
		0x62,     // write register
		0xABCDEF, // write value
	}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16})
	g.CP.Submit(uint32(len(words)))

	if got := g.Reg(0x62); got != 0xABCDEF {
		t.Fatalf("expected conditional write to apply, got %#x", got)
	}
}

func TestProcessType3CondWriteSkipsWhenUnsatisfied(t *testing.T) {
	g, b := newTestGPU(t)
	g.SetReg(0x63, 0)

	const ringBase = 0xB000
	words := []uint32{
		packetType3(opCondWrite, 6),
		cmpEqual,
		0x63,
		1, // reference never matches the register's 0
		0xFFFFFFFF,
		0x64,
		0x1,
	}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16})
	g.CP.Submit(uint32(len(words)))

	if got := g.Reg(0x64); got != 0 {
		t.Fatalf("expected no write when the condition is unsatisfied, got %#x", got)
	}
}

func TestProcessType3EventWriteWritesFenceToMemory(t *testing.T) {
	g, b := newTestGPU(t)

	const ringBase = 0xC000
	const dest = 0xC100
	words := []uint32{packetType3(opEventWrite, 2), 0x01, dest}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16})
	g.CP.Submit(uint32(len(words)))

	if got := b.Read(dest, 4); got == 0 {
		t.Fatal("expected EVENT_WRITE to write a nonzero fence value to memory")
	}
}

func TestRingWritePointerRegisterDrivesCommandProcessor(t *testing.T) {
	g, b := newTestGPU(t)

	const ringBase = 0xD000
	words := []uint32{packetType0(0x70, 1), 0x9999}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.Write(offsetIndex, 4, regRBBase)
	g.Write(offsetData, 4, ringBase)
	g.Write(offsetIndex, 4, regRBCntl)
	g.Write(offsetData, 4, 16)
	g.Write(offsetIndex, 4, regRBWptr)
	g.Write(offsetData, 4, uint64(len(words)))

	if got := g.Reg(0x70); got != 0x9999 {
		t.Fatalf("expected a write-pointer register write to drive the command processor, got %#x", got)
	}
}

func TestUnknownType3OpcodeIsSkippedNotFatal(t *testing.T) {
	g, b := newTestGPU(t)
	const ringBase = 0x7000
	words := []uint32{packetType3(0x7F, 1), 0xDEADBEEF}
	for i, w := range words {
		b.Write(ringBase+uint64(i)*4, 4, uint64(w))
	}

	g.CP.SetRing(Ring{Base: ringBase, Size: 16})
	g.CP.Submit(uint32(len(words)))

	// No panic, and the ring should have fully drained.
}
