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

import "math"

func init() {
	// double-precision arithmetic, XO-keyed in the extended-59/63 sense but
	// these in fact live in primary opcode 63 (A-form, XO5 selects operation).
	table63[21] = opFadd
	table63[20] = opFsub
	table63[25] = opFmul
	table63[18] = opFdiv
	table63[23] = opFsel
	table63[28] = opFmsub
	table63[29] = opFmadd
	table63[30] = opFnmsub
	table63[31] = opFnmadd

	table63[0] = opFcmpu
	table63[72] = opFmr
	table63[40] = opFneg
	table63[264] = opFabs
	table63[136] = opFnabs
	table63[12] = opFrsp
	table63[814] = opFctid
	table63[815] = opFctidz
	table63[846] = opFcfid
	table63[583] = opMffs
	table63[711] = opMtfsf

	// single-precision variants live under primary opcode 59.
	table59[21] = opFadds
	table59[20] = opFsubs
	table59[25] = opFmuls
	table59[18] = opFdivs
}

func (t *Thread) f(i int) float64  { return math.Float64frombits(t.FPR[i]) }
func (t *Thread) setF(i int, v float64) { t.FPR[i] = math.Float64bits(v) }

func maybeRcFP(t *Thread, insn uint32) {
	if fieldRC(insn) {
		// FPSCR exception summary bits aren't modeled; CR1 is left as-is
		// since no interpreter consumer inspects float condition codes yet.
	}
}

func opFadd(c *CPU, t *Thread, insn uint32) {
	t.setF(fieldFRD(insn), t.f(fieldFRA(insn))+t.f(fieldFRB(insn)))
	maybeRcFP(t, insn)
}
func opFsub(c *CPU, t *Thread, insn uint32) {
	t.setF(fieldFRD(insn), t.f(fieldFRA(insn))-t.f(fieldFRB(insn)))
	maybeRcFP(t, insn)
}
func opFmul(c *CPU, t *Thread, insn uint32) {
	t.setF(fieldFRD(insn), t.f(fieldFRA(insn))*t.f(fieldFRC(insn)))
	maybeRcFP(t, insn)
}
func opFdiv(c *CPU, t *Thread, insn uint32) {
	t.setF(fieldFRD(insn), t.f(fieldFRA(insn))/t.f(fieldFRB(insn)))
	maybeRcFP(t, insn)
}
func opFmsub(c *CPU, t *Thread, insn uint32) {
	t.setF(fieldFRD(insn), t.f(fieldFRA(insn))*t.f(fieldFRC(insn))-t.f(fieldFRB(insn)))
}
func opFmadd(c *CPU, t *Thread, insn uint32) {
	t.setF(fieldFRD(insn), t.f(fieldFRA(insn))*t.f(fieldFRC(insn))+t.f(fieldFRB(insn)))
}
func opFnmsub(c *CPU, t *Thread, insn uint32) {
	t.setF(fieldFRD(insn), -(t.f(fieldFRA(insn))*t.f(fieldFRC(insn)) - t.f(fieldFRB(insn))))
}
func opFnmadd(c *CPU, t *Thread, insn uint32) {
	t.setF(fieldFRD(insn), -(t.f(fieldFRA(insn))*t.f(fieldFRC(insn)) + t.f(fieldFRB(insn))))
}
func opFsel(c *CPU, t *Thread, insn uint32) {
	if t.f(fieldFRA(insn)) >= 0 {
		t.setF(fieldFRD(insn), t.f(fieldFRC(insn)))
	} else {
		t.setF(fieldFRD(insn), t.f(fieldFRB(insn)))
	}
}

func opFadds(c *CPU, t *Thread, insn uint32) {
	v := float32(t.f(fieldFRA(insn))) + float32(t.f(fieldFRB(insn)))
	t.setF(fieldFRD(insn), float64(v))
}
func opFsubs(c *CPU, t *Thread, insn uint32) {
	v := float32(t.f(fieldFRA(insn))) - float32(t.f(fieldFRB(insn)))
	t.setF(fieldFRD(insn), float64(v))
}
func opFmuls(c *CPU, t *Thread, insn uint32) {
	v := float32(t.f(fieldFRA(insn))) * float32(t.f(fieldFRC(insn)))
	t.setF(fieldFRD(insn), float64(v))
}
func opFdivs(c *CPU, t *Thread, insn uint32) {
	v := float32(t.f(fieldFRA(insn))) / float32(t.f(fieldFRB(insn)))
	t.setF(fieldFRD(insn), float64(v))
}

func opFcmpu(c *CPU, t *Thread, insn uint32) {
	a, b := t.f(fieldFRA(insn)), t.f(fieldFRB(insn))
	var cr uint32
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		cr = 0x1
	case a < b:
		cr = 0x8
	case a > b:
		cr = 0x4
	default:
		cr = 0x2
	}
	t.SetCRField(fieldCRFD(insn), cr)
}

func opFmr(c *CPU, t *Thread, insn uint32)   { t.FPR[fieldFRD(insn)] = t.FPR[fieldFRB(insn)] }
func opFneg(c *CPU, t *Thread, insn uint32)  { t.setF(fieldFRD(insn), -t.f(fieldFRB(insn))) }
func opFabs(c *CPU, t *Thread, insn uint32)  { t.setF(fieldFRD(insn), math.Abs(t.f(fieldFRB(insn)))) }
func opFnabs(c *CPU, t *Thread, insn uint32) { t.setF(fieldFRD(insn), -math.Abs(t.f(fieldFRB(insn)))) }

// opFrsp rounds a double to single precision, keeping it stored as a double
// bit pattern per the architecture's "FPRs always hold doubles" rule.
func opFrsp(c *CPU, t *Thread, insn uint32) {
	t.setF(fieldFRD(insn), float64(float32(t.f(fieldFRB(insn)))))
}

func opFctid(c *CPU, t *Thread, insn uint32) {
	t.FPR[fieldFRD(insn)] = uint64(int64(t.f(fieldFRB(insn))))
}
func opFctidz(c *CPU, t *Thread, insn uint32) {
	t.FPR[fieldFRD(insn)] = uint64(int64(math.Trunc(t.f(fieldFRB(insn)))))
}
func opFcfid(c *CPU, t *Thread, insn uint32) {
	t.setF(fieldFRD(insn), float64(int64(t.FPR[fieldFRB(insn)])))
}

func opMffs(c *CPU, t *Thread, insn uint32) { t.FPR[fieldFRD(insn)] = t.FPSCR }
func opMtfsf(c *CPU, t *Thread, insn uint32) {
	t.FPSCR = t.FPR[fieldFRB(insn)] & 0xFFFFFFFF
}

// D-form FP load/store (primary opcodes 48-55).
func opLfs(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaDForm(t, insn), 4); ok {
		t.setF(fieldFRD(insn), float64(math.Float32frombits(uint32(v))))
	}
}
func opLfsu(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	if v, ok := c.load(t, ea, 4); ok {
		t.setF(fieldFRD(insn), float64(math.Float32frombits(uint32(v))))
		t.GPR[fieldRA(insn)] = ea
	}
}
func opLfd(c *CPU, t *Thread, insn uint32) {
	if v, ok := c.load(t, eaDForm(t, insn), 8); ok {
		t.FPR[fieldFRD(insn)] = v
	}
}
func opLfdu(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	if v, ok := c.load(t, ea, 8); ok {
		t.FPR[fieldFRD(insn)] = v
		t.GPR[fieldRA(insn)] = ea
	}
}
func opStfs(c *CPU, t *Thread, insn uint32) {
	v := math.Float32bits(float32(t.f(fieldFRD(insn))))
	c.store(t, eaDForm(t, insn), 4, uint64(v))
}
func opStfsu(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	v := math.Float32bits(float32(t.f(fieldFRD(insn))))
	if c.store(t, ea, 4, uint64(v)) {
		t.GPR[fieldRA(insn)] = ea
	}
}
func opStfd(c *CPU, t *Thread, insn uint32) {
	c.store(t, eaDForm(t, insn), 8, t.FPR[fieldFRD(insn)])
}
func opStfdu(c *CPU, t *Thread, insn uint32) {
	ea := eaDForm(t, insn)
	if c.store(t, ea, 8, t.FPR[fieldFRD(insn)]) {
		t.GPR[fieldRA(insn)] = ea
	}
}
