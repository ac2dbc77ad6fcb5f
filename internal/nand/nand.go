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

// Package nand implements the bootloader chain loader: the NAND image
// header at offset 0, the CB_A/CB_B bootloader block headers reached
// through the stride-210 page/spare deinterleave, and the per-build
// hardware-init-skip address table the interpreter's bclr override
// consults. Grounded on original_source's NAND bootloader parser and
// spec.md §3/§4.8/§6.
package nand

import (
	"encoding/binary"
	"fmt"

	"github.com/xenon-emu/xenon/internal/ppc"
)

// Image magic values identifying a retail or devkit NAND image (§3/§6).
const (
	MagicRetail  = 0xFF4F
	MagicDevkitA = 0x0F4F
	MagicDevkitB = 0x0F3F
)

// Header is the NAND image header at raw offset 0: boot entry point,
// keyvault location, and the SMC's own boot image embedded alongside the
// CPU bootloader chain (§3/§6).
type Header struct {
	Magic          uint16
	Build          uint16
	QFE            uint16
	Flags          uint16
	Entry          uint32
	Size           uint32
	KeyvaultSize   uint32
	SysUpdateAddr  uint32
	SysUpdateCount uint32
	KeyvaultVer    uint16
	KeyvaultAddr   uint32
	SysUpdateSize  uint32
	SMCConfigAddr  uint32
	SMCBootSize    uint32
	SMCBootAddr    uint32
}

const headerSize = 50

// ParseHeader reads a Header from the first headerSize bytes of buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, fmt.Errorf("nand: header buffer too short (%d bytes)", len(buf))
	}
	be := binary.BigEndian
	h := Header{
		Magic:          be.Uint16(buf[0:2]),
		Build:          be.Uint16(buf[2:4]),
		QFE:            be.Uint16(buf[4:6]),
		Flags:          be.Uint16(buf[6:8]),
		Entry:          be.Uint32(buf[8:12]),
		Size:           be.Uint32(buf[12:16]),
		KeyvaultSize:   be.Uint32(buf[16:20]),
		SysUpdateAddr:  be.Uint32(buf[20:24]),
		SysUpdateCount: be.Uint32(buf[24:28]),
		KeyvaultVer:    be.Uint16(buf[28:30]),
		KeyvaultAddr:   be.Uint32(buf[30:34]),
		SysUpdateSize:  be.Uint32(buf[34:38]),
		SMCConfigAddr:  be.Uint32(buf[38:42]),
		SMCBootSize:    be.Uint32(buf[42:46]),
		SMCBootAddr:    be.Uint32(buf[46:50]),
	}
	return h, nil
}

// ValidMagic reports whether m is a retail or devkit image magic.
func ValidMagic(m uint16) bool {
	return m == MagicRetail || m == MagicDevkitA || m == MagicDevkitB
}

// BlockHeader is the 10-byte bootloader block header read at the offset
// the image header's Entry field names (CB_A), and again at
// Entry+CB_A.Length (CB_B), per §4.8's dual-block load sequence.
type BlockHeader struct {
	Build      uint16
	Length     uint32
	EntryPoint uint32
}

const blockHeaderSize = 10

// ParseBlockHeader reads a BlockHeader from the first blockHeaderSize bytes
// of buf.
func ParseBlockHeader(buf []byte) (BlockHeader, error) {
	if len(buf) < blockHeaderSize {
		return BlockHeader{}, fmt.Errorf("nand: block header buffer too short (%d bytes)", len(buf))
	}
	be := binary.BigEndian
	return BlockHeader{
		Build:      be.Uint16(buf[0:2]),
		Length:     be.Uint32(buf[2:6]),
		EntryPoint: be.Uint32(buf[6:10]),
	}, nil
}

// rawOffset converts a logical (data-only) image offset to its physical
// offset within the 528-byte page+spare stride: 512 bytes of data followed
// by 16 bytes of spare per page (§4.8).
func rawOffset(off int64) int64 {
	return (off/512)*528 + off%512
}

// skipTable maps the build number used for hardware-init-skip resolution
// (the CB_B build when CB_A and CB_B disagree, otherwise CB_A's) to the
// bclr override addresses that bypass its uninitialized-hardware probe
// loop (§4.8).
var skipTable = map[uint16]ppc.SkipConfig{
	6723:  {Enabled: true, AddrA: 0x03009B10, AddrB: 0x03009BA4},
	9188:  {Enabled: true, AddrA: 0x03003DC0, AddrB: 0x03003E54},
	15432: {Enabled: true, AddrA: 0x03003DC0, AddrB: 0x03003E54},
	14352: {Enabled: true, AddrA: 0x03003F48, AddrB: 0x03003FDC},
}

// SkipFor returns the hardware-init-skip configuration for a build number,
// or a disabled config if the build isn't in the table.
func SkipFor(build uint16) ppc.SkipConfig {
	if cfg, ok := skipTable[build]; ok {
		return cfg
	}
	return ppc.SkipConfig{}
}

// Loader walks the bootloader chain out of a NAND image.
type Loader struct {
	img Image
}

// Image is the raw, offset-addressed read surface the loader needs;
// satisfied by *imagefile.NAND (via its embedded *imagefile.File).
type Image interface {
	ReadAt(p []byte, off int64) (int, error)
}

// NewLoader creates a loader reading headers from img.
func NewLoader(img Image) *Loader {
	return &Loader{img: img}
}

func (l *Loader) readHeader(off int64) (Header, error) {
	buf := make([]byte, headerSize)
	if _, err := l.img.ReadAt(buf, off); err != nil {
		return Header{}, fmt.Errorf("nand: read image header at %#x: %w", off, err)
	}
	return ParseHeader(buf)
}

func (l *Loader) readBlockHeader(off int64) (BlockHeader, error) {
	buf := make([]byte, blockHeaderSize)
	if _, err := l.img.ReadAt(buf, off); err != nil {
		return BlockHeader{}, fmt.Errorf("nand: read block header at %#x: %w", off, err)
	}
	return ParseBlockHeader(buf)
}

// ChainResult summarizes the parsed bootloader chain used to pick a
// hardware-init-skip configuration.
type ChainResult struct {
	Header Header
	CBA    BlockHeader
	CBB    BlockHeader
	Skip   ppc.SkipConfig
}

// LoadChain reads the image header at offset 0, then the CB_A and CB_B
// bootloader block headers the header's Entry field locates, and resolves
// the hardware-init-skip configuration from whichever build the two blocks
// disagree on (§4.8): CB_A at rawOffset(header.Entry), CB_B at
// rawOffset(header.Entry + CB_A.Length). A CB_B read failure (e.g. a
// truncated test image) is tolerated; the skip resolution falls back to
// CB_A's build alone.
func (l *Loader) LoadChain() (ChainResult, error) {
	header, err := l.readHeader(0)
	if err != nil {
		return ChainResult{}, err
	}
	if !ValidMagic(header.Magic) {
		return ChainResult{}, fmt.Errorf("nand: unrecognized image magic %#04x", header.Magic)
	}

	cba, err := l.readBlockHeader(rawOffset(int64(header.Entry)))
	if err != nil {
		return ChainResult{}, fmt.Errorf("nand: read CB_A: %w", err)
	}

	buildForSkip := cba.Build
	cbb, err := l.readBlockHeader(rawOffset(int64(header.Entry) + int64(cba.Length)))
	if err != nil {
		return ChainResult{Header: header, CBA: cba, Skip: SkipFor(buildForSkip)}, nil
	}
	if cbb.Build != cba.Build {
		buildForSkip = cbb.Build
	}

	return ChainResult{Header: header, CBA: cba, CBB: cbb, Skip: SkipFor(buildForSkip)}, nil
}
