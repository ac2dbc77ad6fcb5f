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

// Package pci implements the guest-visible PCI configuration bridge: a
// 256-byte config space per device plus BAR-sizing probe semantics, grounded
// on original_source's SystemDevice base contract (Xenon/Base/SystemDevice.h)
// generalized into the PCIDevice interface below (SPEC_FULL §3 DEVICEBASE).
package pci

import (
	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/logging"
)

// Device is the contract every PCI-attached peripheral implements: register
// read/write at a device-local offset, plus identity for config space and
// diagnostics. Devices that can service bulk fills faster than a byte loop
// additionally implement bus.MemsetHandler.
type Device interface {
	bus.Handler
	Name() string
}

// slot binds one Device to its BAR window and 256-byte config space.
type slot struct {
	dev      Device
	barSize  uint32
	barValue uint32 // current BAR register contents as the guest last wrote them
	memBase  uint64
	cfg      [256]byte
}

// Bridge is the guest-visible PCI configuration mechanism. It is itself a
// bus.Handler, registered at a fixed config-space window; each attached
// device additionally gets its own memory-mapped region registered directly
// on the system bus at attach time (§4.4).
type Bridge struct {
	slots []*slot
}

// New creates an empty bridge.
func New() *Bridge { return &Bridge{} }

// Attach registers dev on sysBus at [memBase, memBase+barSize) and records
// its config-space slot at slot index idx (0-31, one PCI device number per
// slot; function 0 only — this hardware has no multi-function devices).
// vendorID/deviceID populate the config space header guest firmware reads
// to identify the device.
func (br *Bridge) Attach(sysBus *bus.Bus, idx int, dev Device, memBase uint64, barSize uint32, vendorID, deviceID uint16) {
	s := &slot{dev: dev, barSize: barSize, memBase: memBase}
	putLE16(s.cfg[0:2], vendorID)
	putLE16(s.cfg[2:4], deviceID)
	putLE32(s.cfg[0x10:0x14], memBase32(memBase))
	s.barValue = memBase32(memBase)

	for len(br.slots) <= idx {
		br.slots = append(br.slots, nil)
	}
	br.slots[idx] = s

	sysBus.Register(bus.Region{
		Name:    dev.Name(),
		Start:   memBase,
		End:     memBase + uint64(barSize) - 1,
		Handler: dev,
	})
	logging.Infof("pci: attached %s at [%#x,%#x)", dev.Name(), memBase, memBase+uint64(barSize))
}

func memBase32(addr uint64) uint32 { return uint32(addr) }

// Read services a config-space access at a flat offset (slot*256 + register),
// matching the Xenon's memory-mapped (rather than I/O-port) config window.
func (br *Bridge) Read(offset uint64, width int) uint64 {
	idx, reg := int(offset/256), offset%256
	if idx < 0 || idx >= len(br.slots) || br.slots[idx] == nil {
		return allOnes(width)
	}
	s := br.slots[idx]
	if reg == 0x10 { // BAR0
		return uint64(s.barValue)
	}
	return readLE(s.cfg[reg:], width)
}

// Write handles ordinary config writes plus the BAR-sizing probe: a write of
// all-ones to the BAR register is answered (on the next read) with the
// device's size mask rather than stored verbatim, per the standard PCI
// enumeration protocol (§4.4).
func (br *Bridge) Write(offset uint64, width int, value uint64) {
	idx, reg := int(offset/256), offset%256
	if idx < 0 || idx >= len(br.slots) || br.slots[idx] == nil {
		return
	}
	s := br.slots[idx]
	if reg == 0x10 {
		if uint32(value) == 0xFFFFFFFF {
			// sizing probe: low bits read back 0 up to the BAR's size, high
			// bits all one, bottom two bits clear (memory space, non-
			// prefetchable).
			s.barValue = ^(s.barSize - 1) &^ 0x3
		} else {
			s.barValue = uint32(value) &^ 0x3
		}
		return
	}
	writeLE(s.cfg[reg:], width, value)
}

func allOnes(width int) uint64 {
	switch width {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	case 4:
		return 0xFFFFFFFF
	default:
		return 0xFFFFFFFFFFFFFFFF
	}
}

func putLE16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func readLE(b []byte, width int) uint64 {
	var v uint64
	for i := 0; i < width && i < len(b); i++ {
		v |= uint64(b[i]) << uint(8*i)
	}
	return v
}

func writeLE(b []byte, width int, value uint64) {
	for i := 0; i < width && i < len(b); i++ {
		b[i] = byte(value >> uint(8*i))
	}
}
