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

package ohci

import (
	"encoding/binary"
	"testing"

	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/memory"
)

func newTestController() (*Controller, *bus.Bus) {
	sysBus := bus.New(memory.New(1 << 16))
	c := New(sysBus)
	sysBus.Seal()
	return c, sysBus
}

func TestRevisionAndRootHubDefaults(t *testing.T) {
	c, _ := newTestController()
	if got := c.Read(regRevision, 4); got != 0x10 {
		t.Fatalf("got %#x, want 0x10", got)
	}
	if got := c.Read(regRhDescriptorA, 4); got != numPorts {
		t.Fatalf("expected root hub descriptor A to report %d ports, got %d", numPorts, got)
	}
}

func TestInterruptStatusIsWriteOneToClear(t *testing.T) {
	c, _ := newTestController()
	c.intrStatus = 0x3
	c.Write(regInterruptStat, 4, 0x1)
	if got := c.Read(regInterruptStat, 4); got != 0x2 {
		t.Fatalf("got %#x, want 0x2", got)
	}
}

func TestInterruptEnableDisable(t *testing.T) {
	c, _ := newTestController()
	c.Write(regInterruptEn, 4, 0x5)
	if got := c.Read(regInterruptEn, 4); got != 0x5 {
		t.Fatalf("got %#x, want 0x5", got)
	}
	c.Write(regInterruptDis, 4, 0x1)
	if got := c.Read(regInterruptEn, 4); got != 0x4 {
		t.Fatalf("got %#x, want 0x4", got)
	}
}

func TestHostControllerResetClearsListState(t *testing.T) {
	c, _ := newTestController()
	c.Write(regControlHeadED, 4, 0x1234)
	c.Write(regCommandStatus, 4, 1) // HostControllerReset
	if got := c.Read(regControlHeadED, 4); got != 0 {
		t.Fatalf("expected control ED list cleared by reset, got %#x", got)
	}
}

func TestPortStatusRoundTrip(t *testing.T) {
	c, _ := newTestController()
	c.Write(regRhPortStatus0, 4, 0x100)
	if got := c.Read(regRhPortStatus0, 4); got != 0x100 {
		t.Fatalf("got %#x, want 0x100", got)
	}
	if got := c.Read(regRhPortStatus1, 4); got != 0 {
		t.Fatalf("expected port 1 to be untouched, got %#x", got)
	}
}

func TestTickWritesBackHCCAWithoutPendingLists(t *testing.T) {
	c, _ := newTestController()
	c.Tick()
	if c.fmNumber != 1 {
		t.Fatalf("expected frame number to advance, got %d", c.fmNumber)
	}
}

func TestTickWritesDoneHeadIntoHCCA(t *testing.T) {
	c, sysBus := newTestController()
	const hccaAddr = 0x8000
	c.Write(regHCCA, 4, hccaAddr)
	c.Write(regControl, 4, ctlControlListEnable)
	c.doneHead = 0xABCD

	c.Tick()

	buf, err := sysBus.Pointer(hccaAddr, 256)
	if err != nil {
		t.Fatal(err)
	}
	got := binary.LittleEndian.Uint32(buf[96:100])
	if got != 0xABCD {
		t.Fatalf("got done head %#x, want 0xABCD", got)
	}
	if c.doneHead != 0 {
		t.Fatal("expected done head to be cleared after writeback")
	}
}
