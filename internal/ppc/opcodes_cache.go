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
	table31[86] = opDcbf
	table31[54] = opDcbst
	table31[278] = opDcbt
	table31[246] = opDcbtst
	table31[1014] = opDcbz
	table31[982] = opIcbi
}

// Cache-management instructions have no observable effect on an interpreter
// with no cache model, except dcbz, which guest code relies on to zero a
// line without reading it first (§4.1: any write invalidates the containing
// 8-byte reservation line, so dcbz invalidates every line it zeroes).
const cacheLineSize = 32

func opDcbf(c *CPU, t *Thread, insn uint32)   {}
func opDcbst(c *CPU, t *Thread, insn uint32)  {}
func opDcbt(c *CPU, t *Thread, insn uint32)   {}
func opDcbtst(c *CPU, t *Thread, insn uint32) {}
func opIcbi(c *CPU, t *Thread, insn uint32) {
	t.cacheValid = false
}

func opDcbz(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn) &^ uint64(cacheLineSize-1)
	res := c.MMU.Translate(t.Index, ea, 0, t.MSR&MSR_DR != 0, true)
	if res.Fault != 0 {
		t.DAR = ea
		t.DSISR = res.DSISR
		t.pendingSync = ExcDSI
		return
	}
	c.Bus.Memset(res.PA, 0, cacheLineSize)
	for off := uint64(0); off < cacheLineSize; off += 8 {
		c.Resv.Invalidate(res.PA + off)
	}
}
