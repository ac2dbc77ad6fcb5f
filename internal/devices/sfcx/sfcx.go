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

// Package sfcx implements the NAND flash controller (Secure Flash
// Controller for Xbox): a small memory-mapped register file dispatching
// page read/write/erase and multi-page DMA against a backing NAND image,
// grounded on original_source's SFCX register layout and the teacher's
// device-register texture (machine_bus.go).
package sfcx

import (
	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/iic"
	"github.com/xenon-emu/xenon/internal/logging"
)

// PageSize/SpareSize match the stride-0x210 (528-byte) interleave the NAND
// loader deinterleaves: 512 bytes of page data plus 16 bytes of spare/ECC.
const (
	PageSize  = 0x200
	SpareSize = 0x10
)

// Image is the backing NAND store. Implemented by internal/imagefile.
type Image interface {
	ReadPage(page uint32, data, spare []byte) error
	WritePage(page uint32, data, spare []byte) error
	EraseBlock(block uint32) error
	PagesPerBlock() uint32
}

// register offsets, per the original's SFCX memory map.
const (
	regConfig       = 0x00
	regStatus       = 0x04
	regCommand      = 0x08
	regAddress      = 0x0C
	regDataPhysAddr = 0x10
	regLogicalPhys  = 0x14 // spare/ECC DMA base for single- and multi-page transfers
	regPhysOffset   = 0x18
)

// command opcodes written to regCommand.
const (
	cmdPageRead    = 0x01
	cmdPageWrite   = 0x02
	cmdBlockErase  = 0x03
	cmdDMAPhyToRAM = 0x04 // NAND flash -> guest RAM, N pages starting at regAddress
	cmdDMARAMToPhy = 0x05 // guest RAM -> NAND flash, N pages starting at regAddress
)

// statusReady/statusError mirror the single-command completion path;
// statusIntCP additionally latches while an interrupt is pending the guest
// hasn't yet acknowledged by rewriting regStatus.
const (
	statusReady  = 1 << 0
	statusError  = 1 << 1
	statusIntCP  = 1 << 2
)

// regConfig bit layout (this controller's own documented encoding: the
// original's exact bit assignment isn't in scope here, only its two
// externally-visible behaviors). Bits 6-7 select how many pages a DMA
// command transfers (N = field+1, 1-4 pages); bit 8 enables the
// completion interrupt.
const (
	configDMAPageCountShift = 6
	configDMAPageCountMask  = 0x3
	configIntEnable         = 1 << 8
)

// Controller is the memory-mapped SFCX device.
type Controller struct {
	img  Image
	bus  *bus.Bus
	ic   *iic.Controller
	line iic.Line

	status uint32

	config, address, dataPhys, sparePhys, physOffset uint32
}

// New creates a controller backed by img, using b for DMA transfers to/from
// guest physical memory and routing command-completion interrupts through
// ic on line.
func New(b *bus.Bus, img Image, ic *iic.Controller, line iic.Line) *Controller {
	return &Controller{img: img, bus: b, ic: ic, line: line, status: statusReady}
}

func (c *Controller) Name() string { return "sfcx" }

func (c *Controller) Read(offset uint64, width int) uint64 {
	switch offset {
	case regConfig:
		return uint64(c.config)
	case regStatus:
		return uint64(c.status)
	case regAddress:
		return uint64(c.address)
	case regDataPhysAddr:
		return uint64(c.dataPhys)
	case regLogicalPhys:
		return uint64(c.sparePhys)
	case regPhysOffset:
		return uint64(c.physOffset)
	default:
		return 0
	}
}

func (c *Controller) Write(offset uint64, width int, value uint64) {
	switch offset {
	case regConfig:
		c.config = uint32(value)
	case regAddress:
		c.address = uint32(value)
	case regDataPhysAddr:
		c.dataPhys = uint32(value)
	case regLogicalPhys:
		c.sparePhys = uint32(value)
	case regPhysOffset:
		c.physOffset = uint32(value)
	case regStatus:
		// the guest acknowledges a latched interrupt by writing back the
		// status bits it has observed.
		c.status &^= uint32(value) & statusIntCP
	case regCommand:
		c.execute(uint32(value))
	default:
	}
}

// dmaPageCount returns how many pages a DMA_PHY_TO_RAM/DMA_RAM_TO_PHY
// command moves, per regConfig bits 6-7.
func (c *Controller) dmaPageCount() uint32 {
	return ((c.config >> configDMAPageCountShift) & configDMAPageCountMask) + 1
}

// execute runs a completed command synchronously: the interpreter model has
// no notion of DMA latency, so the register state simply reflects
// instantaneous completion (ready set, error cleared or set) by the time
// the guest next polls regStatus.
func (c *Controller) execute(cmd uint32) {
	switch cmd {
	case cmdPageRead:
		c.transferPages(1, true)
	case cmdPageWrite:
		c.transferPages(1, false)
	case cmdDMAPhyToRAM:
		c.transferPages(c.dmaPageCount(), true)
	case cmdDMARAMToPhy:
		c.transferPages(c.dmaPageCount(), false)
	case cmdBlockErase:
		block := c.address / c.img.PagesPerBlock()
		if err := c.img.EraseBlock(block); err != nil {
			c.fail("block erase: %v", err)
			return
		}
		c.complete()
	default:
		logging.Warnf("sfcx: unknown command %#x", cmd)
	}
}

// transferPages moves n consecutive pages starting at c.address between
// the NAND image and guest RAM, each page's data and spare landing at
// growing offsets from c.dataPhys/c.sparePhys respectively — the
// DMA_PHY_TO_RAM/DMA_RAM_TO_PHY multi-page behavior, and (n==1) the
// single-page PAGE_READ/PAGE_WRITE behavior.
func (c *Controller) transferPages(n uint32, fromNAND bool) {
	for i := uint32(0); i < n; i++ {
		data, err := c.bus.Pointer(uint64(c.dataPhys)+uint64(i)*PageSize, PageSize)
		if err != nil {
			c.fail("transfer: data dma target %#x: %v", c.dataPhys, err)
			return
		}
		spare, err := c.bus.Pointer(uint64(c.sparePhys)+uint64(i)*SpareSize, SpareSize)
		if err != nil {
			c.fail("transfer: spare dma target %#x: %v", c.sparePhys, err)
			return
		}
		page := c.address + i
		if fromNAND {
			if err := c.img.ReadPage(page, data, spare); err != nil {
				c.fail("transfer: read page %d: %v", page, err)
				return
			}
		} else {
			if err := c.img.WritePage(page, data, spare); err != nil {
				c.fail("transfer: write page %d: %v", page, err)
				return
			}
		}
	}
	c.complete()
}

// complete marks the current command done and, if the guest has enabled
// completion interrupts, latches statusIntCP and raises the SFCX line.
func (c *Controller) complete() {
	c.status = statusReady
	if c.config&configIntEnable != 0 {
		c.status |= statusIntCP
		if c.ic != nil {
			c.ic.SetPending(c.line)
		}
	}
}

func (c *Controller) fail(format string, args ...any) {
	logging.Errorf("sfcx: "+format, args...)
	c.status = statusError
}
