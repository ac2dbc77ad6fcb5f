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

// Package memory implements the flat guest-physical DRAM arena.
//
// Grounded on machine_bus.go's "contiguous block of main memory" design from
// the teacher: a single []byte, big-endian accessors (the teacher uses
// little-endian binary.LittleEndian; the Xbox 360 guest is big-endian, so we
// swap the endianness convention but keep the same read/write/reset shape),
// and a single mutex guarding the whole arena.
package memory

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Arena is the flat guest-physical DRAM block. Its address space is
// [0, len(bytes)). It is pointer-stable: slices from Pointer() alias the same
// backing array for the lifetime of the Arena, which DMA-capable device workers rely
// on to avoid copying through the bus for bulk transfers.
type Arena struct {
	mu    sync.RWMutex
	bytes []byte
}

// New allocates an arena of the given size in bytes.
func New(size uint64) *Arena {
	return &Arena{bytes: make([]byte, size)}
}

// Size returns the arena's length in bytes.
func (a *Arena) Size() uint64 { return uint64(len(a.bytes)) }

// Contains reports whether [addr, addr+width) lies entirely within the arena.
func (a *Arena) Contains(addr uint64, width int) bool {
	if width < 0 {
		return false
	}
	end := addr + uint64(width)
	return end >= addr && end <= a.Size()
}

// Read reads width bytes (1, 2, 4 or 8) at addr as a big-endian guest value.
func (a *Arena) Read(addr uint64, width int) (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.Contains(addr, width) {
		return 0, fmt.Errorf("memory: read out of range addr=%#x width=%d size=%#x", addr, width, a.Size())
	}
	b := a.bytes[addr : addr+uint64(width)]
	switch width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	case 8:
		return binary.BigEndian.Uint64(b), nil
	default:
		return 0, fmt.Errorf("memory: unsupported width %d", width)
	}
}

// Write writes width bytes (1, 2, 4 or 8) of value at addr, big-endian.
func (a *Arena) Write(addr uint64, width int, value uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.Contains(addr, width) {
		return fmt.Errorf("memory: write out of range addr=%#x width=%d size=%#x", addr, width, a.Size())
	}
	b := a.bytes[addr : addr+uint64(width)]
	switch width {
	case 1:
		b[0] = byte(value)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(value))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(value))
	case 8:
		binary.BigEndian.PutUint64(b, value)
	default:
		return fmt.Errorf("memory: unsupported width %d", width)
	}
	return nil
}

// Memset fills length bytes at addr with value in a single cache-friendly
// pass, mirroring machine_bus.go's rationale for exposing memset separately
// from the byte-loop fallback (NAND erase, framebuffer clear).
func (a *Arena) Memset(addr uint64, value byte, length int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if length < 0 || !a.Contains(addr, length) {
		return fmt.Errorf("memory: memset out of range addr=%#x length=%d size=%#x", addr, length, a.Size())
	}
	region := a.bytes[addr : addr+uint64(length)]
	for i := range region {
		region[i] = value
	}
	return nil
}

// Pointer returns a direct slice into the arena for [addr, addr+length),
// bypassing Read/Write locking. Callers (DMA-capable device workers) are
// responsible for coordinating with any concurrent CPU access to the same
// range; this mirrors the bus's raw-pointer accessor for DMA peers (§4.1).
func (a *Arena) Pointer(addr uint64, length int) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if length < 0 || !a.Contains(addr, length) {
		return nil, fmt.Errorf("memory: pointer out of range addr=%#x length=%d size=%#x", addr, length, a.Size())
	}
	return a.bytes[addr : addr+uint64(length) : addr+uint64(length)], nil
}

// Reset zeroes the entire arena.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.bytes {
		a.bytes[i] = 0
	}
}
