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

// Package ohci implements the USB 1.1 Open Host Controller Interface
// register set: the standard HcXxx register file and HCCA (Host Controller
// Communication Area) writeback. Endpoint-descriptor lists are not walked.
// No USB peripheral is modeled behind it — guest firmware sees a
// conformant, permanently-idle root hub. Grounded on the teacher's
// device-register-map texture (machine_bus.go).
package ohci

import (
	"encoding/binary"

	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/logging"
)

// standard OHCI register offsets (word-aligned, 4 bytes each).
const (
	regRevision       = 0x00
	regControl        = 0x04
	regCommandStatus  = 0x08
	regInterruptStat  = 0x0C
	regInterruptEn    = 0x10
	regInterruptDis   = 0x14
	regHCCA           = 0x18
	regPeriodCurED    = 0x1C
	regControlHeadED  = 0x20
	regControlCurED   = 0x24
	regBulkHeadED     = 0x28
	regBulkCurED      = 0x2C
	regDoneHead       = 0x30
	regFmInterval     = 0x34
	regFmRemaining    = 0x38
	regFmNumber       = 0x3C
	regPeriodicStart  = 0x40
	regLSThreshold    = 0x44
	regRhDescriptorA  = 0x48
	regRhDescriptorB  = 0x4C
	regRhStatus       = 0x50
	regRhPortStatus0  = 0x54
	regRhPortStatus1  = 0x58
)

const numPorts = 2

// HcControl functional-state bits.
const (
	ctlControlListEnable = 1 << 4
	ctlBulkListEnable    = 1 << 5
	ctlPeriodicListEnable = 1 << 2
)

// Controller is the memory-mapped OHCI device.
type Controller struct {
	sysBus *bus.Bus

	control, cmdStatus, intrStatus, intrEnable uint32
	hcca                                        uint32
	controlHeadED, controlCurED                 uint32
	bulkHeadED, bulkCurED                       uint32
	doneHead                                    uint32
	fmInterval, fmNumber                        uint32
	rhDescA, rhDescB, rhStatus                  uint32
	portStatus                                  [numPorts]uint32
}

// New creates a controller with every root-hub port reporting disconnected.
func New(sysBus *bus.Bus) *Controller {
	c := &Controller{sysBus: sysBus}
	c.fmInterval = 0x2EDF // 12000 bit times, the USB 1.1 full-speed default
	c.rhDescA = uint32(numPorts)
	return c
}

func (c *Controller) Name() string { return "ohci" }

func (c *Controller) Read(offset uint64, width int) uint64 {
	switch offset {
	case regRevision:
		return 0x10 // BCD 1.0
	case regControl:
		return uint64(c.control)
	case regCommandStatus:
		return uint64(c.cmdStatus)
	case regInterruptStat:
		return uint64(c.intrStatus)
	case regInterruptEn, regInterruptDis:
		return uint64(c.intrEnable)
	case regHCCA:
		return uint64(c.hcca)
	case regControlHeadED:
		return uint64(c.controlHeadED)
	case regControlCurED:
		return uint64(c.controlCurED)
	case regBulkHeadED:
		return uint64(c.bulkHeadED)
	case regBulkCurED:
		return uint64(c.bulkCurED)
	case regDoneHead:
		return uint64(c.doneHead)
	case regFmInterval:
		return uint64(c.fmInterval)
	case regFmNumber:
		return uint64(c.fmNumber)
	case regRhDescriptorA:
		return uint64(c.rhDescA)
	case regRhDescriptorB:
		return uint64(c.rhDescB)
	case regRhStatus:
		return uint64(c.rhStatus)
	case regRhPortStatus0, regRhPortStatus1:
		idx := (offset - regRhPortStatus0) / 4
		if int(idx) < numPorts {
			return uint64(c.portStatus[idx])
		}
		return 0
	default:
		return 0
	}
}

func (c *Controller) Write(offset uint64, width int, value uint64) {
	v := uint32(value)
	switch offset {
	case regControl:
		c.control = v
	case regCommandStatus:
		c.cmdStatus = v
		if v&1 != 0 { // HostControllerReset
			c.reset()
		}
	case regInterruptStat:
		c.intrStatus &^= v // write-1-to-clear
	case regInterruptEn:
		c.intrEnable |= v
	case regInterruptDis:
		c.intrEnable &^= v
	case regHCCA:
		c.hcca = v
	case regControlHeadED:
		c.controlHeadED = v
	case regControlCurED:
		c.controlCurED = v
	case regBulkHeadED:
		c.bulkHeadED = v
	case regBulkCurED:
		c.bulkCurED = v
	case regFmInterval:
		c.fmInterval = v
	case regPeriodicStart, regLSThreshold, regRhDescriptorA, regRhDescriptorB:
		// accepted, not consulted by the no-peripheral root hub model
	case regRhStatus:
		c.rhStatus = v
	case regRhPortStatus0, regRhPortStatus1:
		idx := (offset - regRhPortStatus0) / 4
		if int(idx) < numPorts {
			c.portStatus[idx] = v
		}
	default:
		logging.Debugf("ohci: write to unmapped register offset %#x", offset)
	}
}

func (c *Controller) reset() {
	c.control = 0
	c.cmdStatus = 0
	c.controlHeadED, c.controlCurED = 0, 0
	c.bulkHeadED, c.bulkCurED = 0, 0
	c.doneHead = 0
}

// Tick advances the frame counter and, when any list-enable bit is set and
// an HCCA address is configured, writes the done queue head and the frame
// number into the HCCA and clears the done head. The control, bulk and
// periodic ED lists themselves are not read.
func (c *Controller) Tick() {
	c.fmNumber++

	if c.control&(ctlControlListEnable|ctlBulkListEnable|ctlPeriodicListEnable) == 0 {
		return
	}
	if c.hcca == 0 {
		return
	}

	hccaBuf, err := c.sysBus.Pointer(uint64(c.hcca), 256)
	if err != nil {
		return
	}
	const hccaDoneHeadOffset = 96
	const hccaFrameNumberOffset = 0x80
	binary.LittleEndian.PutUint32(hccaBuf[hccaDoneHeadOffset:hccaDoneHeadOffset+4], c.doneHead)
	binary.LittleEndian.PutUint16(hccaBuf[hccaFrameNumberOffset:hccaFrameNumberOffset+2], uint16(c.fmNumber))
	c.doneHead = 0
}
