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

func init() {
	table19[16] = opBclr
	table19[528] = opBcctr
	table19[18] = opRfid
	table19[150] = opIsync
}

func branchTaken(t *Thread, bo, bi uint32) bool {
	if bo&0x4 == 0 { // decrement CTR
		t.CTR--
	}
	ctrOK := bo&0x4 != 0 || ((t.CTR != 0) == (bo&0x2 == 0))
	crBit := (t.CR >> (31 - bi)) & 1
	condOK := bo&0x10 != 0 || (crBit == (bo>>3)&1)
	return ctrOK && condOK
}

func opB(c *CPU, t *Thread, insn uint32) {
	li := int64(fieldLI(insn))
	var target uint64
	if fieldAA(insn) {
		target = uint64(li)
	} else {
		target = t.CIA + uint64(li)
	}
	if fieldLK(insn) {
		t.LR = t.CIA + 4
	}
	t.NIA = target
}

func opBC(c *CPU, t *Thread, insn uint32) {
	bo, bi := fieldBO(insn), fieldBI(insn)
	taken := branchTaken(t, bo, bi)
	if taken {
		bd := int64(fieldBD(insn))
		if fieldAA(insn) {
			t.NIA = uint64(bd)
		} else {
			t.NIA = t.CIA + uint64(bd)
		}
	}
	if fieldLK(insn) {
		t.LR = t.CIA + 4
	}
}

// opBclr implements the Branch Conditional to Link Register form, including
// the hardware-init-skip override from §4.3/§4.8/§9: when enabled and the
// current instruction address matches one of the two configured skip
// addresses, the branch condition is forced false (AddrA) or true (AddrB)
// so the 1BL/CB bootloader bypasses uninitialized hardware probes. This
// mechanism is preserved exactly as observed rather than re-derived, per
// spec.md's open question on the source's undocumented implementation.
func opBclr(c *CPU, t *Thread, insn uint32) {
	bo, bi := fieldBO(insn), fieldBI(insn)
	taken := branchTaken(t, bo, bi)

	if c.Skip.Enabled {
		switch t.CIA {
		case c.Skip.AddrA:
			taken = false
		case c.Skip.AddrB:
			taken = true
		}
	}

	if taken {
		t.NIA = t.LR &^ 0x3
	}
	if fieldLK(insn) {
		t.LR = t.CIA + 4
	}
}

func opBcctr(c *CPU, t *Thread, insn uint32) {
	bo, bi := fieldBO(insn), fieldBI(insn)
	// CTR is never decremented for bcctr (BO bit 2 is implicitly set).
	crBit := (t.CR >> (31 - bi)) & 1
	condOK := bo&0x10 != 0 || (crBit == (bo>>3)&1)
	if condOK {
		t.NIA = t.CTR &^ 0x3
	}
	if fieldLK(insn) {
		t.LR = t.CIA + 4
	}
}

// opRfid restores MSR from SRR1 and resumes at SRR0 (§4.3).
func opRfid(c *CPU, t *Thread, insn uint32) {
	t.MSR = (t.SRR1 & 0x87C0FF73) | (t.MSR &^ 0x87C0FF73)
	t.NIA = t.SRR0
}

func opIsync(c *CPU, t *Thread, insn uint32) {
	// Ordering fence only; no interpreter state changes (§4.3 cache ops).
}

func opSC(c *CPU, t *Thread, insn uint32) {
	t.raise(ExcSystemCall)
}

func opTrap(c *CPU, t *Thread, insn uint32) {
	to := fieldBO(insn) // TO field occupies the same bit position as BO
	ra, simm := fieldRA(insn), int64(fieldSIMM(insn))
	a := int64(t.GPR[ra])
	trapCond(c, t, to, a, simm)
}

func trapCond(c *CPU, t *Thread, to uint32, a, b int64) {
	fire := false
	if to&0x10 != 0 && a < b {
		fire = true
	}
	if to&0x8 != 0 && a > b {
		fire = true
	}
	if to&0x4 != 0 && a == b {
		fire = true
	}
	if to&0x2 != 0 && uint64(a) < uint64(b) {
		fire = true
	}
	if to&0x1 != 0 && uint64(a) > uint64(b) {
		fire = true
	}
	if fire {
		t.raise(ExcProgram)
	}
}
