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
	"testing"

	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/iic"
	"github.com/xenon-emu/xenon/internal/memory"
	"github.com/xenon-emu/xenon/internal/mmu"
)

func newTestCPU(t *testing.T) (*CPU, *Thread, *bus.Bus) {
	t.Helper()
	mem := memory.New(1 << 16)
	sysBus := bus.New(mem)
	m := mmu.New(sysBus, NumThreads)
	ic := iic.New()
	sysBus.Seal()

	c := New(sysBus, m, ic)
	c.ResetAll(0)
	return c, c.Threads[0], sysBus
}

func dForm(op, rd, ra uint32, simm int32) uint32 {
	return (op << 26) | (rd << 21) | (ra << 16) | (uint32(simm) & 0xFFFF)
}

func xForm(op, rd, ra, rb, xo uint32, rc bool) uint32 {
	var rcBit uint32
	if rc {
		rcBit = 1
	}
	return (op << 26) | (rd << 21) | (ra << 16) | (rb << 11) | (xo << 1) | rcBit
}

func loadProgram(b *bus.Bus, words []uint32) {
	for i, w := range words {
		b.Write(uint64(i*4), 4, uint64(w))
	}
}

func runN(c *CPU, t *Thread, n int) {
	for i := 0; i < n; i++ {
		c.Step(t)
	}
}

func TestAddiAndAdd(t *testing.T) {
	c, th, sysBus := newTestCPU(t)
	loadProgram(sysBus, []uint32{
		dForm(14, 3, 0, 100),           // addi r3, 0, 100
		dForm(14, 4, 0, 55),            // addi r4, 0, 55
		xForm(31, 5, 3, 4, 266, false), // add r5, r3, r4
	})
	runN(c, th, 3)

	if th.GPR[3] != 100 || th.GPR[4] != 55 {
		t.Fatalf("addi results: r3=%d r4=%d", th.GPR[3], th.GPR[4])
	}
	if th.GPR[5] != 155 {
		t.Fatalf("add result: got %d, want 155", th.GPR[5])
	}
}

func TestStoreThenLoadWord(t *testing.T) {
	c, th, sysBus := newTestCPU(t)
	loadProgram(sysBus, []uint32{
		dForm(14, 1, 0, 0x100),   // addi r1, 0, 0x100  (base pointer)
		dForm(14, 2, 0, 0x2A),    // addi r2, 0, 42
		dForm(36, 2, 1, 0),       // stw r2, 0(r1)
		dForm(32, 6, 1, 0),       // lwz r6, 0(r1)
	})
	runN(c, th, 4)

	if th.GPR[6] != 42 {
		t.Fatalf("round-tripped store/load: got %d, want 42", th.GPR[6])
	}
}

func TestUnconditionalBranch(t *testing.T) {
	c, th, sysBus := newTestCPU(t)
	loadProgram(sysBus, []uint32{
		0x48000008,              // b +8 (skip the next instruction)
		dForm(14, 3, 0, 0xDEAD), // addi r3, 0, 0xDEAD (skipped)
		dForm(14, 4, 0, 7),      // addi r4, 0, 7
	})
	runN(c, th, 2)

	if th.GPR[3] != 0 {
		t.Fatalf("branch should have skipped the addi at offset 4, r3=%d", th.GPR[3])
	}
	if th.GPR[4] != 7 {
		t.Fatalf("expected execution to resume at offset 8, r4=%d", th.GPR[4])
	}
}

func TestReservationRoundTrip(t *testing.T) {
	c, th, sysBus := newTestCPU(t)
	loadProgram(sysBus, []uint32{
		dForm(14, 1, 0, 0x200),             // addi r1, 0, 0x200
		dForm(14, 3, 0, 9),                 // addi r3, 0, 9
		xForm(31, 3, 1, 0, 20, false),       // lwarx r3, 0, r1
		xForm(31, 3, 1, 0, 150, false),      // stwcx. r3, 0, r1
	})
	runN(c, th, 4)

	if th.CRField(0)&0x2 == 0 {
		t.Fatalf("expected stwcx. to succeed (CR0[EQ] set), got CR0=%#x", th.CRField(0))
	}
}

func TestStwcxFailsWithoutReservation(t *testing.T) {
	c, th, sysBus := newTestCPU(t)
	loadProgram(sysBus, []uint32{
		dForm(14, 1, 0, 0x300),        // addi r1, 0, 0x300
		dForm(14, 3, 0, 1),            // addi r3, 0, 1
		xForm(31, 3, 1, 0, 150, false), // stwcx. r3, 0, r1  (no prior lwarx)
	})
	runN(c, th, 3)

	if th.CRField(0)&0x2 != 0 {
		t.Fatalf("expected stwcx. to fail with no reservation, CR0=%#x", th.CRField(0))
	}
}

func TestMtsprSprgRoundTrip(t *testing.T) {
	c, th, sysBus := newTestCPU(t)
	// mtspr SPRG0, r3 ; mfspr r4, SPRG0
	mtspr := xForm(31, 3, 0, 0, 467, false) | (272&0x1F)<<16 | ((272>>5)&0x1F)<<11
	mfspr := xForm(31, 4, 0, 0, 339, false) | (272&0x1F)<<16 | ((272>>5)&0x1F)<<11
	loadProgram(sysBus, []uint32{
		dForm(14, 3, 0, 0x55),
		mtspr,
		mfspr,
	})
	runN(c, th, 3)

	if th.GPR[4] != 0x55 {
		t.Fatalf("SPRG0 round trip: got %#x, want 0x55", th.GPR[4])
	}
}

func TestExternalInterruptDeliveryAcksTheLineItDispatched(t *testing.T) {
	c, th, sysBus := newTestCPU(t)
	loadProgram(sysBus, []uint32{0x60000000}) // nop (ori 0,0,0)

	th.MSR |= MSR_EE
	c.IIC.Route(iic.LineSMC, 0)
	c.IIC.SetPending(iic.LineSMC)

	c.Step(th)

	if th.NIA != vectorOffset[ExcExternal] {
		t.Fatalf("expected control transferred to the external interrupt vector, got %#x", th.NIA)
	}
	if c.IIC.Pending(0) != 0 {
		t.Fatal("expected the dispatched line to be acked, leaving no pending interrupt")
	}
}

func TestUnknownOpcodeHalts(t *testing.T) {
	c, th, sysBus := newTestCPU(t)
	c.UnknownPolicy = UnknownHalt
	loadProgram(sysBus, []uint32{0x00000000}) // primary opcode 0 has no handler
	c.Continue(0)
	runN(c, th, 1)

	if !th.Halted || c.Running(0) {
		t.Fatal("expected an unknown opcode to halt the thread under UnknownHalt policy")
	}
}
