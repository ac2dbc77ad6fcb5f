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

// opHandler executes one decoded instruction against thread t.
type opHandler func(c *CPU, t *Thread, insn uint32)

// primaryTable dispatches on the primary opcode (bits 0-5). Entries that
// indirect through an extended-opcode form (19, 31, 59, 63) point at a
// secondary dispatcher that further indexes on the XO field.
var primaryTable [64]opHandler

func init() {
	primaryTable[3] = opTrap  // twi
	primaryTable[10] = opCmpli
	primaryTable[11] = opCmpi
	primaryTable[14] = opAddi
	primaryTable[15] = opAddis
	primaryTable[16] = opBC
	primaryTable[17] = opSC
	primaryTable[18] = opB
	primaryTable[19] = dispatch19
	primaryTable[20] = opRlwimi
	primaryTable[21] = opRlwinm
	primaryTable[23] = opRlwnm
	primaryTable[24] = opOri
	primaryTable[25] = opOris
	primaryTable[26] = opXori
	primaryTable[27] = opXoris
	primaryTable[28] = opAndiDot
	primaryTable[29] = opAndisDot
	primaryTable[31] = dispatch31
	primaryTable[32] = opLwz
	primaryTable[33] = opLwzu
	primaryTable[34] = opLbz
	primaryTable[35] = opLbzu
	primaryTable[36] = opStw
	primaryTable[37] = opStwu
	primaryTable[38] = opStb
	primaryTable[39] = opStbu
	primaryTable[40] = opLhz
	primaryTable[41] = opLhzu
	primaryTable[42] = opLha
	primaryTable[43] = opLhau
	primaryTable[44] = opSth
	primaryTable[45] = opSthu
	primaryTable[46] = opLmw
	primaryTable[47] = opStmw
	primaryTable[48] = opLfs
	primaryTable[49] = opLfsu
	primaryTable[50] = opLfd
	primaryTable[51] = opLfdu
	primaryTable[52] = opStfs
	primaryTable[53] = opStfsu
	primaryTable[54] = opStfd
	primaryTable[55] = opStfdu
	primaryTable[58] = dispatch58
	primaryTable[59] = dispatch59
	primaryTable[62] = dispatch62
	primaryTable[63] = dispatch63
}

// secondary tables keyed by the 10-bit extended opcode (XO field).
var table31 = map[uint32]opHandler{}
var table19 = map[uint32]opHandler{}
var table59 = map[uint32]opHandler{}
var table63 = map[uint32]opHandler{}

func dispatch31(c *CPU, t *Thread, insn uint32) {
	if h, ok := table31[fieldXO(insn)]; ok {
		h(c, t, insn)
		return
	}
	c.unknown(t, decode(insn))
}

func dispatch19(c *CPU, t *Thread, insn uint32) {
	if h, ok := table19[fieldXO(insn)]; ok {
		h(c, t, insn)
		return
	}
	c.unknown(t, decode(insn))
}

func dispatch59(c *CPU, t *Thread, insn uint32) {
	if h, ok := table59[fieldXO5(insn)]; ok {
		h(c, t, insn)
		return
	}
	if h, ok := table59[fieldXO(insn)]; ok {
		h(c, t, insn)
		return
	}
	c.unknown(t, decode(insn))
}

func dispatch63(c *CPU, t *Thread, insn uint32) {
	if h, ok := table63[fieldXO5(insn)]; ok {
		h(c, t, insn)
		return
	}
	if h, ok := table63[fieldXO(insn)]; ok {
		h(c, t, insn)
		return
	}
	c.unknown(t, decode(insn))
}

// dispatch58/62 are the DS-form load/store doubleword families, keyed by the
// low 2 bits rather than a separate XO field.
func dispatch58(c *CPU, t *Thread, insn uint32) {
	switch insn & 0x3 {
	case 0:
		opLd(c, t, insn)
	case 1:
		opLdu(c, t, insn)
	case 2:
		opLwa(c, t, insn)
	default:
		c.unknown(t, decode(insn))
	}
}

func dispatch62(c *CPU, t *Thread, insn uint32) {
	switch insn & 0x3 {
	case 0:
		opStd(c, t, insn)
	case 1:
		opStdu(c, t, insn)
	default:
		c.unknown(t, decode(insn))
	}
}
