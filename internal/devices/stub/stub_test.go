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

package stub

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	d := New("ethernet", 0x100)
	d.Write(0x10, 4, 0xDEADBEEF)
	if got := d.Read(0x10, 4); got != 0xDEADBEEF {
		t.Fatalf("got %#x, want 0xDEADBEEF", got)
	}
}

func TestOutOfRangeReadReturnsZero(t *testing.T) {
	d := New("audio", 0x10)
	if got := d.Read(0x20, 4); got != 0 {
		t.Fatalf("got %#x, want 0", got)
	}
}

func TestOutOfRangeWriteIsDropped(t *testing.T) {
	d := New("xma", 0x10)
	d.Write(0x20, 4, 0xFF) // must not panic
	if got := d.Read(0x0, 4); got != 0 {
		t.Fatalf("expected in-range region unaffected, got %#x", got)
	}
}

func TestNameIsPreserved(t *testing.T) {
	d := New("ehci", 0x1000)
	if d.Name() != "ehci" {
		t.Fatalf("got %q, want %q", d.Name(), "ehci")
	}
}
