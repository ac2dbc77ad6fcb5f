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

package nand

import (
	"encoding/binary"
	"testing"
)

func headerBytes(magic, build uint16, entry, size uint32) []byte {
	buf := make([]byte, headerSize)
	be := binary.BigEndian
	be.PutUint16(buf[0:2], magic)
	be.PutUint16(buf[2:4], build)
	be.PutUint32(buf[8:12], entry)
	be.PutUint32(buf[12:16], size)
	return buf
}

func blockHeaderBytes(build uint16, length, entry uint32) []byte {
	buf := make([]byte, blockHeaderSize)
	be := binary.BigEndian
	be.PutUint16(buf[0:2], build)
	be.PutUint32(buf[2:6], length)
	be.PutUint32(buf[6:10], entry)
	return buf
}

func TestParseHeader(t *testing.T) {
	buf := headerBytes(MagicRetail, 0x0150, 0x8000, 0x4000)

	h, err := ParseHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if h.Magic != MagicRetail || h.Build != 0x0150 || h.Entry != 0x8000 || h.Size != 0x4000 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestParseHeaderRejectsShortBuffer(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 4)); err == nil {
		t.Fatal("expected an error for a too-short header buffer")
	}
}

func TestValidMagicAcceptsRetailAndDevkit(t *testing.T) {
	for _, m := range []uint16{MagicRetail, MagicDevkitA, MagicDevkitB} {
		if !ValidMagic(m) {
			t.Fatalf("expected %#04x to be a valid magic", m)
		}
	}
	if ValidMagic(0x4242) {
		t.Fatal("expected an arbitrary value to be rejected")
	}
}

func TestRawOffsetConvertsAcrossPageStride(t *testing.T) {
	if got := rawOffset(0); got != 0 {
		t.Fatalf("rawOffset(0) = %d, want 0", got)
	}
	if got := rawOffset(512); got != 528 {
		t.Fatalf("rawOffset(512) = %d, want 528", got)
	}
	if got := rawOffset(600); got != 528+88 {
		t.Fatalf("rawOffset(600) = %d, want %d", got, 528+88)
	}
}

func TestSkipForKnownAndUnknownBuilds(t *testing.T) {
	skip := SkipFor(6723)
	if !skip.Enabled || skip.AddrA != 0x03009B10 || skip.AddrB != 0x03009BA4 {
		t.Fatalf("unexpected skip config for build 6723: %+v", skip)
	}

	shared := SkipFor(9188)
	if !shared.Enabled || shared.AddrA != 0x03003DC0 || shared.AddrB != 0x03003E54 {
		t.Fatalf("unexpected skip config for build 9188: %+v", shared)
	}
	if got := SkipFor(15432); got != shared {
		t.Fatalf("expected build 15432 to share build 9188's skip config, got %+v", got)
	}

	skip14352 := SkipFor(14352)
	if !skip14352.Enabled || skip14352.AddrA != 0x03003F48 || skip14352.AddrB != 0x03003FDC {
		t.Fatalf("unexpected skip config for build 14352: %+v", skip14352)
	}

	unknown := SkipFor(0xFFFF)
	if unknown.Enabled {
		t.Fatalf("expected a disabled skip config for an unrecognized build, got %+v", unknown)
	}
}

// fakeImage is a byte-addressed in-memory NAND image laid out at raw
// (page+spare-stride) offsets, the way *imagefile.NAND presents one.
type fakeImage struct {
	raw []byte
}

func newFakeImage(size int) *fakeImage {
	return &fakeImage{raw: make([]byte, size)}
}

func (f *fakeImage) put(off int64, data []byte) {
	if need := int(off) + len(data); need > len(f.raw) {
		grown := make([]byte, need)
		copy(grown, f.raw)
		f.raw = grown
	}
	copy(f.raw[off:], data)
}

func (f *fakeImage) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || int(off) >= len(f.raw) {
		return 0, fakeShortReadError{}
	}
	n := copy(p, f.raw[off:])
	if n < len(p) {
		return n, fakeShortReadError{}
	}
	return n, nil
}

type fakeShortReadError struct{}

func (fakeShortReadError) Error() string { return "nand: short read" }

func TestLoadChainReadsDualBlockHeadersAndResolvesSkip(t *testing.T) {
	const entry = 0x1000
	const cbALen = 0x4000

	img := newFakeImage(1 << 20)
	img.put(0, headerBytes(MagicRetail, 0x0002, entry, 0x100000))
	img.put(rawOffset(entry), blockHeaderBytes(9188, cbALen, 0x80000000))
	img.put(rawOffset(entry+cbALen), blockHeaderBytes(9188, 0x2000, 0x80004000))

	l := NewLoader(img)
	res, err := l.LoadChain()
	if err != nil {
		t.Fatal(err)
	}
	if res.CBA.Build != 9188 || res.CBA.EntryPoint != 0x80000000 {
		t.Fatalf("unexpected CB_A header: %+v", res.CBA)
	}
	if res.CBB.Build != 9188 {
		t.Fatalf("unexpected CB_B header: %+v", res.CBB)
	}
	if !res.Skip.Enabled || res.Skip.AddrA != 0x03003DC0 {
		t.Fatalf("unexpected skip resolution: %+v", res.Skip)
	}
}

func TestLoadChainUsesCBBBuildWhenItDiffersFromCBA(t *testing.T) {
	const entry = 0x1000
	const cbALen = 0x4000

	img := newFakeImage(1 << 20)
	img.put(0, headerBytes(MagicRetail, 0x0002, entry, 0x100000))
	img.put(rawOffset(entry), blockHeaderBytes(6723, cbALen, 0x80000000))
	img.put(rawOffset(entry+cbALen), blockHeaderBytes(14352, 0x2000, 0x80004000))

	l := NewLoader(img)
	res, err := l.LoadChain()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skip.Enabled || res.Skip.AddrA != 0x03003F48 {
		t.Fatalf("expected CB_B's build (14352) to win, got %+v", res.Skip)
	}
}

func TestLoadChainFallsBackToCBAWhenCBBUnreadable(t *testing.T) {
	const entry = 0x1000
	const cbALen = 0x4000

	img := newFakeImage(int(rawOffset(entry)) + blockHeaderSize)
	img.put(0, headerBytes(MagicRetail, 0x0002, entry, 0x100000))
	img.put(rawOffset(entry), blockHeaderBytes(6723, cbALen, 0x80000000))

	l := NewLoader(img)
	res, err := l.LoadChain()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skip.Enabled || res.Skip.AddrA != 0x03009B10 {
		t.Fatalf("expected fallback to CB_A's build (6723), got %+v", res.Skip)
	}
}

func TestLoadChainRejectsInvalidMagic(t *testing.T) {
	img := newFakeImage(1 << 16)
	img.put(0, headerBytes(0x4242, 0x0002, 0x1000, 0x100000))

	l := NewLoader(img)
	if _, err := l.LoadChain(); err == nil {
		t.Fatal("expected an error for an unrecognized image magic")
	}
}
