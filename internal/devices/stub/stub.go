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

// Package stub provides minimal BAR-conformant devices for peripherals this
// module does not emulate in depth (EHCI, ethernet MAC, audio, XMA audio
// decoder) — guest firmware probes and initializes them, but no functional
// behavior is modeled, per spec.md's non-goals on audio output and the
// rendering/audio backends dropped in DESIGN.md.
package stub

import "github.com/xenon-emu/xenon/internal/logging"

// Device is a named memory region that accepts any write and returns zero on
// read, logging at debug level so unexpected guest traffic is still visible
// during bring-up.
type Device struct {
	name string
	regs []byte
}

// New creates a stub device of size bytes, addressable at device-local
// offsets [0, size).
func New(name string, size int) *Device {
	return &Device{name: name, regs: make([]byte, size)}
}

func (d *Device) Name() string { return d.name }

func (d *Device) Read(offset uint64, width int) uint64 {
	if int(offset)+width > len(d.regs) {
		return 0
	}
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(d.regs[int(offset)+i]) << uint(8*i)
	}
	return v
}

func (d *Device) Write(offset uint64, width int, value uint64) {
	if int(offset)+width > len(d.regs) {
		logging.Debugf("stub: %s write out of range offset=%#x width=%d", d.name, offset, width)
		return
	}
	for i := 0; i < width; i++ {
		d.regs[int(offset)+i] = byte(value >> uint(8*i))
	}
}
