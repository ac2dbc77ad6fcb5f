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

// Package reservation implements load-linked/store-conditional reservation
// tracking, kept as its own small type rather than folded into the MMU
// proper — grounded on the original source's dedicated
// XenonReservations.cpp/.h, which the distilled spec.md folds into "the MMU"
// but which the original keeps separate (SPEC_FULL §3 DEVICEBASE/reservation
// supplement).
package reservation

import "sync"

// Entry is the reservation state for one hardware thread: valid plus the
// 8-byte-aligned physical address being watched.
type Entry struct {
	Valid   bool
	Address uint64
}

// Table is the process-wide reservation table, one Entry per hardware
// thread, guarded by a single mutex (§5: "Reservation tracking uses a
// process-wide mutex protecting an array of {valid, address} per thread").
type Table struct {
	mu      sync.Mutex
	entries []Entry
}

// New creates a table sized for numThreads hardware threads.
func New(numThreads int) *Table {
	return &Table{entries: make([]Entry, numThreads)}
}

const lineMask = ^uint64(7) // 8-byte-aligned line

// Set establishes thread's reservation at the 8-byte-aligned line containing
// addr, as lwarx/ldarx do.
func (t *Table) Set(thread int, addr uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[thread] = Entry{Valid: true, Address: addr & lineMask}
}

// TryClear attempts the store-conditional at addr for thread: succeeds (and
// clears the reservation) only if thread currently holds a valid reservation
// on the line containing addr. The reservation is cleared on the issuing
// thread regardless of outcome (§4.2 invariant).
func (t *Table) TryClear(thread int, addr uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entries[thread]
	ok := e.Valid && e.Address == addr&lineMask
	t.entries[thread] = Entry{}
	return ok
}

// Invalidate clears any reservation (on any thread) whose line matches the
// 8-byte-aligned line containing addr. Called on every write to memory, from
// any thread or DMA peer (§4.2).
func (t *Table) Invalidate(addr uint64) {
	line := addr & lineMask
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].Valid && t.entries[i].Address == line {
			t.entries[i] = Entry{}
		}
	}
}

// Clear unconditionally drops thread's reservation, used on context switch
// or reset.
func (t *Table) Clear(thread int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[thread] = Entry{}
}

// Reset drops every thread's reservation.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		t.entries[i] = Entry{}
	}
}
