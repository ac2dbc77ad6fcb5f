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

// Package odd implements the ATAPI optical drive: the packet-command
// interface (12-byte CDB) layered on the same taskfile shape as the ATA
// controller, dispatching the SCSI command subset guest firmware actually
// issues plus the Xbox-specific disc-authentication vendor pages.
// Grounded on original_source's ATAPI device model.
package odd

import (
	"encoding/binary"

	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/iic"
	"github.com/xenon-emu/xenon/internal/imagefile"
	"github.com/xenon-emu/xenon/internal/logging"
)

const sectorSize = 2048

const (
	regData      = 0x00
	regFeatures  = 0x01
	regByteCntLo = 0x04
	regByteCntHi = 0x05
	regDevHead   = 0x06
	regStatusCmd = 0x07
)

const (
	cmdPacket = 0xA0
)

// SCSI/ATAPI op codes dispatched from the 12-byte CDB.
const (
	scsiTestUnitReady = 0x00
	scsiInquiry       = 0x12
	scsiReadCapacity  = 0x25
	scsiRead10        = 0x28
	scsiModeSense10   = 0x5A
	scsiXboxSecurity  = 0xE0 // Xbox-specific disc-authentication vendor command
)

const (
	statusDRDY = 1 << 6
	statusDRQ  = 1 << 3
	statusErr  = 1 << 0
)

type phase int

const (
	phaseIdle phase = iota
	phaseCommand
	phaseData
)

// Controller is the memory-mapped ATAPI device.
type Controller struct {
	sysBus *bus.Bus
	disc   *imagefile.BlockDevice // nil when no disc is inserted
	ic     *iic.Controller
	line   iic.Line

	status byte
	ph     phase

	cdb    [12]byte
	cdbLen int

	resp    []byte
	respPos int

	// authToken is a placeholder for the vendor security handshake: real
	// firmware exchanges a challenge/response sequence with the drive
	// firmware; cryptographic key services are out of scope (non-goal), so
	// this always reports success.
	authToken [20]byte
}

// New creates a controller. disc may be nil (tray reports empty).
func New(sysBus *bus.Bus, disc *imagefile.BlockDevice, ic *iic.Controller, line iic.Line) *Controller {
	return &Controller{sysBus: sysBus, disc: disc, ic: ic, line: line, status: statusDRDY}
}

func (c *Controller) Name() string { return "odd" }

func (c *Controller) Read(offset uint64, width int) uint64 {
	switch offset {
	case regData:
		if c.respPos < len(c.resp) {
			v := c.resp[c.respPos]
			c.respPos++
			return uint64(v)
		}
		return 0
	case regStatusCmd:
		return uint64(c.status)
	case regByteCntLo:
		return uint64(byte(len(c.resp) - c.respPos))
	case regByteCntHi:
		return uint64(byte((len(c.resp) - c.respPos) >> 8))
	default:
		return 0
	}
}

func (c *Controller) Write(offset uint64, width int, value uint64) {
	switch offset {
	case regStatusCmd:
		if value == cmdPacket {
			c.ph = phaseCommand
			c.cdbLen = 0
			c.status = statusDRDY | statusDRQ
		}
	case regData:
		if c.ph == phaseCommand {
			c.cdb[c.cdbLen] = byte(value)
			c.cdbLen++
			if c.cdbLen == len(c.cdb) {
				c.dispatch()
				c.ph = phaseIdle
			}
		}
	default:
	}
}

func (c *Controller) dispatch() {
	c.resp, c.respPos = nil, 0
	switch c.cdb[0] {
	case scsiTestUnitReady:
		if c.disc == nil {
			c.status = statusErr
		} else {
			c.status = statusDRDY
		}
	case scsiInquiry:
		c.resp = make([]byte, 36)
		c.resp[0] = 0x05 // CD-ROM device
		copy(c.resp[8:16], []byte("XBOX360 "))
		copy(c.resp[16:32], []byte("DVD-ROM Drive   "))
		c.status = statusDRDY | statusDRQ
	case scsiReadCapacity:
		c.resp = make([]byte, 8)
		var lastLBA uint32
		if c.disc != nil {
			if n, err := c.disc.SectorCount(); err == nil && n > 0 {
				lastLBA = uint32(n - 1)
			}
		}
		binary.BigEndian.PutUint32(c.resp[0:4], lastLBA)
		binary.BigEndian.PutUint32(c.resp[4:8], sectorSize)
		c.status = statusDRDY | statusDRQ
	case scsiRead10:
		c.readSectors()
	case scsiModeSense10:
		c.resp = make([]byte, 8)
		c.status = statusDRDY | statusDRQ
	case scsiXboxSecurity:
		c.resp = append([]byte{}, c.authToken[:]...)
		c.status = statusDRDY | statusDRQ
	default:
		logging.Warnf("odd: unhandled SCSI op %#02x", c.cdb[0])
		c.status = statusErr
	}
	if c.ic != nil {
		c.ic.SetPending(c.line)
	}
}

func (c *Controller) readSectors() {
	if c.disc == nil {
		c.status = statusErr
		return
	}
	lba := uint64(binary.BigEndian.Uint32(c.cdb[2:6]))
	count := uint64(binary.BigEndian.Uint16(c.cdb[7:9]))
	buf := make([]byte, count*sectorSize)
	for i := uint64(0); i < count; i++ {
		if err := c.disc.ReadSector(lba+i, buf[i*sectorSize:(i+1)*sectorSize]); err != nil {
			logging.Errorf("odd: read sector %d: %v", lba+i, err)
			c.status = statusErr
			return
		}
	}
	c.resp = buf
	c.status = statusDRDY | statusDRQ
}
