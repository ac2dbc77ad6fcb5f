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

// Package imagefile wraps the backing disk images (NAND, HDD, ODD) with
// advisory file locking so two orchestrator instances can't mutate the same
// image concurrently, grounded on usbarmory-tamago and dswarbrick-smart's
// reliance on golang.org/x/sys for host-level file access (SPEC_FULL §1).
package imagefile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/xenon-emu/xenon/internal/devices/sfcx"
)

// File is a locked handle onto a backing image. ReadOnly images take a
// shared lock; read-write images take an exclusive one.
type File struct {
	f        *os.File
	readOnly bool
}

// Open locks and opens path. The lock is non-blocking: a second process
// already holding the image fails Open immediately rather than stalling.
func Open(path string, readOnly bool) (*File, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("imagefile: open %s: %w", path, err)
	}
	lockType := unix.LOCK_EX
	if readOnly {
		lockType = unix.LOCK_SH
	}
	if err := unix.Flock(int(f.Fd()), lockType|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("imagefile: %s is in use by another process: %w", path, err)
	}
	return &File{f: f, readOnly: readOnly}, nil
}

// Close releases the lock and closes the underlying file.
func (fl *File) Close() error {
	unix.Flock(int(fl.f.Fd()), unix.LOCK_UN)
	return fl.f.Close()
}

func (fl *File) ReadAt(p []byte, off int64) (int, error)  { return fl.f.ReadAt(p, off) }
func (fl *File) WriteAt(p []byte, off int64) (int, error) { return fl.f.WriteAt(p, off) }

func (fl *File) Size() (int64, error) {
	st, err := fl.f.Stat()
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

// strideSize is the on-disk page stride: 512 bytes of data immediately
// followed by 16 bytes of spare/ECC, matching the NAND loader's stride-0x210
// deinterleave.
const strideSize = sfcx.PageSize + sfcx.SpareSize

// NAND adapts a File to sfcx.Image, reading/writing the interleaved
// data+spare stride per page.
type NAND struct {
	*File
	pagesPerBlock uint32
}

// OpenNAND opens path as a NAND image. pagesPerBlock matches the Xenon's
// small-block NAND geometry (the big-block variant used by some revisions
// is not supported).
func OpenNAND(path string, readOnly bool) (*NAND, error) {
	f, err := Open(path, readOnly)
	if err != nil {
		return nil, err
	}
	return &NAND{File: f, pagesPerBlock: 32}, nil
}

func (n *NAND) PagesPerBlock() uint32 { return n.pagesPerBlock }

func (n *NAND) ReadPage(page uint32, data, spare []byte) error {
	off := int64(page) * strideSize
	if _, err := n.ReadAt(data[:sfcx.PageSize], off); err != nil {
		return fmt.Errorf("imagefile: nand read page %d: %w", page, err)
	}
	if _, err := n.ReadAt(spare[:sfcx.SpareSize], off+sfcx.PageSize); err != nil {
		return fmt.Errorf("imagefile: nand read spare %d: %w", page, err)
	}
	return nil
}

func (n *NAND) WritePage(page uint32, data, spare []byte) error {
	off := int64(page) * strideSize
	if _, err := n.WriteAt(data[:sfcx.PageSize], off); err != nil {
		return fmt.Errorf("imagefile: nand write page %d: %w", page, err)
	}
	if _, err := n.WriteAt(spare[:sfcx.SpareSize], off+sfcx.PageSize); err != nil {
		return fmt.Errorf("imagefile: nand write spare %d: %w", page, err)
	}
	return nil
}

func (n *NAND) EraseBlock(block uint32) error {
	zero := make([]byte, strideSize)
	for i := range zero {
		zero[i] = 0xFF
	}
	base := int64(block) * int64(n.pagesPerBlock) * strideSize
	for p := uint32(0); p < n.pagesPerBlock; p++ {
		if _, err := n.WriteAt(zero, base+int64(p)*strideSize); err != nil {
			return fmt.Errorf("imagefile: nand erase block %d page %d: %w", block, p, err)
		}
	}
	return nil
}

// BlockDevice adapts a File to fixed-size-sector random access, used by both
// the ATA hard disk (512-byte sectors) and the ATAPI optical drive
// (2048-byte sectors).
type BlockDevice struct {
	*File
	sectorSize int64
}

// OpenBlockDevice opens path as a sector-addressed image.
func OpenBlockDevice(path string, sectorSize int64, readOnly bool) (*BlockDevice, error) {
	f, err := Open(path, readOnly)
	if err != nil {
		return nil, err
	}
	return &BlockDevice{File: f, sectorSize: sectorSize}, nil
}

func (b *BlockDevice) ReadSector(lba uint64, buf []byte) error {
	_, err := b.ReadAt(buf[:b.sectorSize], int64(lba)*b.sectorSize)
	return err
}

func (b *BlockDevice) WriteSector(lba uint64, buf []byte) error {
	_, err := b.WriteAt(buf[:b.sectorSize], int64(lba)*b.sectorSize)
	return err
}

func (b *BlockDevice) SectorCount() (uint64, error) {
	sz, err := b.Size()
	if err != nil {
		return 0, err
	}
	return uint64(sz) / uint64(b.sectorSize), nil
}
