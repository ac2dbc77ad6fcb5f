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

import "github.com/xenon-emu/xenon/internal/mmu"

func init() {
	table31[23] = opLwzx
	table31[55] = opLwzux
	table31[87] = opLbzx
	table31[119] = opLbzux
	table31[279] = opLhzx
	table31[311] = opLhzux
	table31[343] = opLhax
	table31[375] = opLhaux
	table31[151] = opStwx
	table31[183] = opStwux
	table31[215] = opStbx
	table31[247] = opStbux
	table31[407] = opSthx
	table31[439] = opSthux
	table31[21] = opLdx
	table31[53] = opLdux
	table31[149] = opStdx
	table31[181] = opStdux
	table31[20] = opLwarx
	table31[84] = opLdarx
	table31[150] = opStwcxDot
	table31[214] = opStdcxDot
	table31[534] = opLwbrx
	table31[662] = opStwbrx
	table31[790] = opLhbrx
	table31[918] = opSthbrx
}

// load performs the full MMU translate -> bus read pipeline for a data
// access, raising DSI on fault. ok reports whether the access completed.
func (c *CPU) load(t *Thread, ea uint64, width int) (uint64, bool) {
	res := c.MMU.Translate(t.Index, ea, 0, t.MSR&MSR_DR != 0, false)
	if res.Fault != mmu.FaultNone {
		t.DAR = ea
		t.DSISR = res.DSISR
		t.SRR0 = t.CIA
		t.SRR1 = t.MSR & 0xFFFF
		t.pendingSync = ExcDSI
		return 0, false
	}
	return c.Bus.Read(res.PA, width), true
}

func (c *CPU) store(t *Thread, ea uint64, width int, value uint64) bool {
	res := c.MMU.Translate(t.Index, ea, 0, t.MSR&MSR_DR != 0, true)
	if res.Fault != mmu.FaultNone {
		t.DAR = ea
		t.DSISR = res.DSISR
		t.SRR0 = t.CIA
		t.SRR1 = t.MSR & 0xFFFF
		t.pendingSync = ExcDSI
		return false
	}
	c.Bus.Write(res.PA, width, value)
	c.Resv.Invalidate(res.PA)
	return true
}

func eaDForm(t *Thread, insn uint32) uint64 {
	ra := fieldRA(insn)
	base := uint64(0)
	if ra != 0 {
		base = t.GPR[ra]
	}
	return base + uint64(int64(fieldD(insn)))
}

func eaXForm(t *Thread, insn uint32) uint64 {
	ra := fieldRA(insn)
	base := uint64(0)
	if ra != 0 {
		base = t.GPR[ra]
	}
	return base + t.GPR[fieldRB(insn)]
}

func eaDSForm(t *Thread, insn uint32) uint64 {
	ra := fieldRA(insn)
	base := uint64(0)
	if ra != 0 {
		base = t.GPR[ra]
	}
	return base + uint64(int64(int16(insn&0xFFFC)))
}

// D-form loads/stores.
func opLwz(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaDForm(t, insn), 4); ok {
		t.GPR[fieldRD(insn)] = v
	}
}
func opLwzu(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	if v, ok := c.load(t, ea, 4); ok {
		t.GPR[fieldRD(insn)] = v
		t.GPR[fieldRA(insn)] = ea
	}
}
func opLbz(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaDForm(t, insn), 1); ok {
		t.GPR[fieldRD(insn)] = v
	}
}
func opLbzu(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	if v, ok := c.load(t, ea, 1); ok {
		t.GPR[fieldRD(insn)] = v
		t.GPR[fieldRA(insn)] = ea
	}
}
func opLhz(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaDForm(t, insn), 2); ok {
		t.GPR[fieldRD(insn)] = v
	}
}
func opLhzu(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	if v, ok := c.load(t, ea, 2); ok {
		t.GPR[fieldRD(insn)] = v
		t.GPR[fieldRA(insn)] = ea
	}
}
func opLha(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaDForm(t, insn), 2); ok {
		t.GPR[fieldRD(insn)] = uint64(int64(int16(v)))
	}
}
func opLhau(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	if v, ok := c.load(t, ea, 2); ok {
		t.GPR[fieldRD(insn)] = uint64(int64(int16(v)))
		t.GPR[fieldRA(insn)] = ea
	}
}
func opLd(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaDSForm(t, insn), 8); ok {
		t.GPR[fieldRD(insn)] = v
	}
}
func opLdu(c *CPU, t *Thread, insn uint32) {
	ea := eaDSForm(t, insn)
	if v, ok := c.load(t, ea, 8); ok {
		t.GPR[fieldRD(insn)] = v
		t.GPR[fieldRA(insn)] = ea
	}
}
func opLwa(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaDSForm(t, insn), 4); ok {
		t.GPR[fieldRD(insn)] = uint64(int64(int32(v)))
	}
}

func opStw(c *CPU, t *Thread, insn uint32) { c.store(t, eaDForm(t, insn), 4, t.GPR[fieldRS(insn)]) }
func opStwu(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	if c.store(t, ea, 4, t.GPR[fieldRS(insn)]) {
		t.GPR[fieldRA(insn)] = ea
	}
}
func opStb(c *CPU, t *Thread, insn uint32) { c.store(t, eaDForm(t, insn), 1, t.GPR[fieldRS(insn)]) }
func opStbu(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	if c.store(t, ea, 1, t.GPR[fieldRS(insn)]) {
		t.GPR[fieldRA(insn)] = ea
	}
}
func opSth(c *CPU, t *Thread, insn uint32) { c.store(t, eaDForm(t, insn), 2, t.GPR[fieldRS(insn)]) }
func opSthu(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	if c.store(t, ea, 2, t.GPR[fieldRS(insn)]) {
		t.GPR[fieldRA(insn)] = ea
	}
}
func opStd(c *CPU, t *Thread, insn uint32) { c.store(t, eaDSForm(t, insn), 8, t.GPR[fieldRS(insn)]) }
func opStdu(c *CPU, t *Thread, insn uint32) {
	ea := eaDSForm(t, insn)
	if c.store(t, ea, 8, t.GPR[fieldRS(insn)]) {
		t.GPR[fieldRA(insn)] = ea
	}
}

// X-form indexed loads/stores.
func opLwzx(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaXForm(t, insn), 4); ok {
		t.GPR[fieldRD(insn)] = v
	}
}
func opLwzux(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	if v, ok := c.load(t, ea, 4); ok {
		t.GPR[fieldRD(insn)] = v
		t.GPR[fieldRA(insn)] = ea
	}
}
func opLbzx(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaXForm(t, insn), 1); ok {
		t.GPR[fieldRD(insn)] = v
	}
}
func opLbzux(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	if v, ok := c.load(t, ea, 1); ok {
		t.GPR[fieldRD(insn)] = v
		t.GPR[fieldRA(insn)] = ea
	}
}
func opLhzx(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaXForm(t, insn), 2); ok {
		t.GPR[fieldRD(insn)] = v
	}
}
func opLhzux(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	if v, ok := c.load(t, ea, 2); ok {
		t.GPR[fieldRD(insn)] = v
		t.GPR[fieldRA(insn)] = ea
	}
}
func opLhax(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaXForm(t, insn), 2); ok {
		t.GPR[fieldRD(insn)] = uint64(int64(int16(v)))
	}
}
func opLhaux(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	if v, ok := c.load(t, ea, 2); ok {
		t.GPR[fieldRD(insn)] = uint64(int64(int16(v)))
		t.GPR[fieldRA(insn)] = ea
	}
}
func opLdx(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaXForm(t, insn), 8); ok {
		t.GPR[fieldRD(insn)] = v
	}
}
func opLdux(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	if v, ok := c.load(t, ea, 8); ok {
		t.GPR[fieldRD(insn)] = v
		t.GPR[fieldRA(insn)] = ea
	}
}
func opStwx(c *CPU, t *Thread, insn uint32) { c.store(t, eaXForm(t, insn), 4, t.GPR[fieldRS(insn)]) }
func opStwux(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	if c.store(t, ea, 4, t.GPR[fieldRS(insn)]) {
		t.GPR[fieldRA(insn)] = ea
	}
}
func opStbx(c *CPU, t *Thread, insn uint32) { c.store(t, eaXForm(t, insn), 1, t.GPR[fieldRS(insn)]) }
func opStbux(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	if c.store(t, ea, 1, t.GPR[fieldRS(insn)]) {
		t.GPR[fieldRA(insn)] = ea
	}
}
func opSthx(c *CPU, t *Thread, insn uint32) { c.store(t, eaXForm(t, insn), 2, t.GPR[fieldRS(insn)]) }
func opSthux(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	if c.store(t, ea, 2, t.GPR[fieldRS(insn)]) {
		t.GPR[fieldRA(insn)] = ea
	}
}
func opStdx(c *CPU, t *Thread, insn uint32) { c.store(t, eaXForm(t, insn), 8, t.GPR[fieldRS(insn)]) }
func opStdux(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	if c.store(t, ea, 8, t.GPR[fieldRS(insn)]) {
		t.GPR[fieldRA(insn)] = ea
	}
}

// Byte-reversed loads/stores (lwbrx/stwbrx/lhbrx/sthbrx).
func opLwbrx(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaXForm(t, insn), 4); ok {
		t.GPR[fieldRD(insn)] = uint64(byteswap32(uint32(v)))
	}
}
func opStwbrx(c *CPU, t *Thread, insn uint32) {
	c.store(t, eaXForm(t, insn), 4, uint64(byteswap32(uint32(t.GPR[fieldRS(insn)]))))
}
func opLhbrx(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaXForm(t, insn), 2); ok {
		t.GPR[fieldRD(insn)] = uint64(byteswap16(uint16(v)))
	}
}
func opSthbrx(c *CPU, t *Thread, insn uint32) {
	c.store(t, eaXForm(t, insn), 2, uint64(byteswap16(uint16(t.GPR[fieldRS(insn)]))))
}

func byteswap32(v uint32) uint32 {
	return (v>>24)&0xFF | (v>>8)&0xFF00 | (v<<8)&0xFF0000 | (v<<24)&0xFF000000
}
func byteswap16(v uint16) uint16 { return v>>8 | v<<8 }

// Load/Store Multiple Word (lmw/stmw): transfers GPRs rd..31 (or rs..31)
// from/to consecutive words starting at EA, per §4.3 "multiple-word" forms.
func opLmw(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	rd := fieldRD(insn)
	for r := rd; r < 32; r++ {
		if v, ok := c.load(t, ea, 4); ok {
			t.GPR[r] = v
		} else {
			return
		}
		ea += 4
	}
}
func opStmw(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	rs := fieldRD(insn)
	for r := rs; r < 32; r++ {
		if !c.store(t, ea, 4, t.GPR[r]) {
			return
		}
		ea += 4
	}
}

// Reservation forms (lwarx/ldarx/stwcx./stdcx.) implement load-linked /
// store-conditional per §4.2/§8: lwarx/ldarx set the reservation to the
// 8-byte-aligned physical line; stwcx./stdcx. succeed (and set CR0[EQ]) only
// if that reservation is still valid, and always clear it afterward.
func opLwarx(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	res := c.MMU.Translate(t.Index, ea, 0, t.MSR&MSR_DR != 0, false)
	if res.Fault != mmu.FaultNone {
		t.DAR = ea
		t.DSISR = res.DSISR
		t.pendingSync = ExcDSI
		return
	}
	t.Reservation.Set(t.Index, res.PA)
	t.GPR[fieldRD(insn)] = c.Bus.Read(res.PA, 4)
}

func opLdarx(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	res := c.MMU.Translate(t.Index, ea, 0, t.MSR&MSR_DR != 0, false)
	if res.Fault != mmu.FaultNone {
		t.DAR = ea
		t.DSISR = res.DSISR
		t.pendingSync = ExcDSI
		return
	}
	t.Reservation.Set(t.Index, res.PA)
	t.GPR[fieldRD(insn)] = c.Bus.Read(res.PA, 8)
}

func opStwcxDot(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	res := c.MMU.Translate(t.Index, ea, 0, t.MSR&MSR_DR != 0, true)
	if res.Fault != mmu.FaultNone {
		t.DAR = ea
		t.DSISR = res.DSISR
		t.pendingSync = ExcDSI
		return
	}
	ok := t.Reservation.TryClear(t.Index, res.PA)
	if ok {
		c.Bus.Write(res.PA, 4, t.GPR[fieldRS(insn)])
		c.Resv.Invalidate(res.PA)
	}
	var cr uint32
	if ok {
		cr = 0x2
	}
	if t.XER&(1<<31) != 0 {
		cr |= 0x1
	}
	t.SetCRField(0, cr)
}

func opStdcxDot(c *CPU, t *Thread, insn uint32) {
	ea := eaXForm(t, insn)
	res := c.MMU.Translate(t.Index, ea, 0, t.MSR&MSR_DR != 0, true)
	if res.Fault != mmu.FaultNone {
		t.DAR = ea
		t.DSISR = res.DSISR
		t.pendingSync = ExcDSI
		return
	}
	ok := t.Reservation.TryClear(t.Index, res.PA)
	if ok {
		c.Bus.Write(res.PA, 8, t.GPR[fieldRS(insn)])
		c.Resv.Invalidate(res.PA)
	}
	var cr uint32
	if ok {
		cr = 0x2
	}
	if t.XER&(1<<31) != 0 {
		cr |= 0x1
	}
	t.SetCRField(0, cr)
}
