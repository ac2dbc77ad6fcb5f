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
	"github.com/xenon-emu/xenon/internal/iic"
	"github.com/xenon-emu/xenon/internal/mmu"
)

// PVR is the processor version register value reported for the Xenon core
// (§4.3 supervisor-state registers).
const PVR = 0x710200

func init() {
	table31[83] = opMfmsr
	table31[146] = opMtmsr
	table31[178] = opMtmsrd
	table31[339] = opMfspr
	table31[467] = opMtspr
	table31[19] = opMfcr
	table31[144] = opMtcrf
	table31[598] = opSync
	table31[854] = opEieio
	table31[306] = opTlbie
	table31[1094] = opSlbia
	table31[370] = opTlbia
	table31[402] = opSlbmte
}

func opMfmsr(c *CPU, t *Thread, insn uint32) { t.GPR[fieldRD(insn)] = t.MSR }

func opMtmsr(c *CPU, t *Thread, insn uint32) {
	t.MSR = (t.MSR &^ 0xFFFFFFFF) | (t.GPR[fieldRS(insn)] & 0xFFFFFFFF)
}

func opMtmsrd(c *CPU, t *Thread, insn uint32) { t.MSR = t.GPR[fieldRS(insn)] }

func opMfcr(c *CPU, t *Thread, insn uint32) { t.GPR[fieldRD(insn)] = uint64(t.CR) }

func opMtcrf(c *CPU, t *Thread, insn uint32) {
	mask := (insn >> 12) & 0xFF
	var fieldMask uint32
	for i := 0; i < 8; i++ {
		if mask&(1<<uint(i)) != 0 {
			fieldMask |= 0xF << uint(4*(7-i))
		}
	}
	t.CR = (t.CR &^ fieldMask) | (uint32(t.GPR[fieldRS(insn)]) & fieldMask)
}

// sprNumber decodes the split SPR field exactly as fieldSPR already does;
// kept as a named alias here for readability at the call sites below.
func sprNumber(insn uint32) uint32 { return fieldSPR(insn) }

func opMfspr(c *CPU, t *Thread, insn uint32) {
	rd := fieldRD(insn)
	switch sprNumber(insn) {
	case 1:
		t.GPR[rd] = t.XER
	case 8:
		t.GPR[rd] = t.LR
	case 9:
		t.GPR[rd] = t.CTR
	case 18:
		t.GPR[rd] = uint64(t.DSISR)
	case 19:
		t.GPR[rd] = t.DAR
	case 22:
		t.GPR[rd] = uint64(t.Decrementer)
	case 26:
		t.GPR[rd] = t.SRR0
	case 27:
		t.GPR[rd] = t.SRR1
	case 272, 273, 274, 275:
		t.GPR[rd] = t.SPRG[sprNumber(insn)-272]
	case 284, 285:
		t.GPR[rd] = t.TBR
	case 287:
		t.GPR[rd] = PVR
	default:
		t.GPR[rd] = 0
	}
}

func opMtspr(c *CPU, t *Thread, insn uint32) {
	rs := fieldRS(insn)
	v := t.GPR[rs]
	switch sprNumber(insn) {
	case 1:
		t.XER = v
	case 8:
		t.LR = v
	case 9:
		t.CTR = v
	case 18:
		t.DSISR = uint32(v)
	case 19:
		t.DAR = v
	case 22:
		t.Decrementer = int64(int32(v))
	case 26:
		t.SRR0 = v
	case 27:
		t.SRR1 = v
	case 272, 273, 274, 275:
		t.SPRG[sprNumber(insn)-272] = v
	case 284, 285:
		t.TBR = v
	case 25: // SDR1: hash table base in high bits, size mask in the low 9 bits
		org := v &^ 0x1FF
		mask := (uint64(1) << (((v & 0x1FF) + 1) + 10)) - 1
		c.MMU.SetPageTableBase(org, mask)
	}
}

// opSync/opEieio are memory-ordering fences with no effect on this
// single-goroutine-per-thread interpreter; cross-thread visibility is
// already serialized by the bus and reservation table (§5).
func opSync(c *CPU, t *Thread, insn uint32)  {}
func opEieio(c *CPU, t *Thread, insn uint32) {}

// opTlbie drops the issuing thread's whole translation cache (the effective
// address in RB is not consulted), standing in for a real TLB invalidate
// since this interpreter's cache plays the TLB's role.
func opTlbie(c *CPU, t *Thread, insn uint32) {
	c.MMU.InvalidateThread(t.Index)
}

func opTlbia(c *CPU, t *Thread, insn uint32) {
	for i := range c.Threads {
		c.MMU.InvalidateThread(i)
	}
}

// opSlbia invalidates every segment lookaside entry for the issuing thread.
func opSlbia(c *CPU, t *Thread, insn uint32) {
	c.MMU.ClearSegments(t.Index)
}

// opSlbmte installs a segment lookaside entry: RS holds the VSID, RB holds
// the effective segment ID in its top 4 bits (this interpreter's simplified
// 16-segment model, keyed the same way real-mode segment selection already
// is in mmu.Translate).
func opSlbmte(c *CPU, t *Thread, insn uint32) {
	rb := t.GPR[fieldRB(insn)]
	idx := int((rb >> 28) & 0xF)
	c.MMU.SetSegment(t.Index, idx, mmu.SegmentEntry{
		Valid: true,
		VSID:  t.GPR[fieldRS(insn)],
	})
}

// ackExternal clears line from the IIC's pending bitmask for thread, called
// by deliver once an external interrupt has been dispatched so the next
// poll doesn't re-fire the same line before the guest handler runs.
func (c *CPU) ackExternal(thread int, line iic.Line) {
	c.IIC.Ack(thread, line)
}
