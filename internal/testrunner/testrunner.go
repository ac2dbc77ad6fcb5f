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

// Package testrunner loads JSON instruction fixtures and drives the PowerPC
// interpreter against them: a program is poked into guest memory, a single
// thread runs until it hits the sentinel return (blr) or a step limit, and
// the resulting architected state is compared against the fixture's expected
// values. Grounded on the teacher's JSON-driven test configuration style
// (audio_empirical_json_test.go's TestConfig/ExpectedValueJSON shape),
// adapted from audio register/tolerance checks to CPU register/memory
// equality checks.
package testrunner

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/iic"
	"github.com/xenon-emu/xenon/internal/memory"
	"github.com/xenon-emu/xenon/internal/mmu"
	"github.com/xenon-emu/xenon/internal/ppc"
)

// blrWord is the sentinel instruction (bclr 20,0 — unconditional branch to
// link register) fixtures use to mark "the program under test has
// returned".
const blrWord = 0x4E800020

// maxSteps bounds a fixture run so a buggy program can't hang the test
// process; real fixtures return in well under this.
const maxSteps = 100000

// Case is one instruction-level test fixture.
type Case struct {
	Name string `json:"name"`

	// Program is the instruction stream, big-endian 32-bit words, placed at
	// load address 0 and executed from there. A trailing blr is appended
	// automatically if the fixture doesn't already end with one.
	Program []uint32 `json:"program"`

	// InitialGPR/FinalGPR map a register index (as a string key, since JSON
	// object keys must be strings) to its value.
	InitialGPR map[string]uint64 `json:"initialGPR,omitempty"`
	FinalGPR   map[string]uint64 `json:"finalGPR,omitempty"`

	InitialCR uint32 `json:"initialCR,omitempty"`
	FinalCR   *uint32 `json:"finalCR,omitempty"`

	FinalXER *uint64 `json:"finalXER,omitempty"`
}

// LoadCases reads a JSON array of Case from path.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testrunner: read %s: %w", path, err)
	}
	var cases []Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("testrunner: parse %s: %w", path, err)
	}
	return cases, nil
}

// Result is the outcome of running one Case.
type Result struct {
	Case       Case
	Steps      int
	Mismatches []string
}

// Passed reports whether the run produced no mismatches.
func (r Result) Passed() bool { return len(r.Mismatches) == 0 }

// Run executes c on a freshly constructed single-thread machine and compares
// the resulting state against its expectations.
func Run(c Case) (Result, error) {
	mem := memory.New(1 << 20) // 1 MiB scratch arena is ample for fixture programs
	sysBus := bus.New(mem)
	mmuInst := mmu.New(sysBus, ppc.NumThreads)
	ic := iic.New()
	sysBus.Seal()

	cpu := ppc.New(sysBus, mmuInst, ic)
	cpu.ResetAll(0)

	prog := append([]uint32{}, c.Program...)
	if len(prog) == 0 || prog[len(prog)-1] != blrWord {
		prog = append(prog, blrWord)
	}
	for i, w := range prog {
		sysBus.Write(uint64(i*4), 4, uint64(w))
	}

	t := cpu.Threads[0]
	for k, v := range c.InitialGPR {
		idx, err := regIndex(k)
		if err != nil {
			return Result{}, err
		}
		t.GPR[idx] = v
	}
	t.CR = c.InitialCR

	cpu.Continue(0)
	steps := 0
	for steps < maxSteps {
		// Step() copies NIA into CIA before fetching, so the address it is
		// about to execute is whatever NIA holds right now.
		if t.NIA >= uint64(len(prog))*4 {
			break
		}
		insnWord := prog[t.NIA/4]
		cpu.Step(t)
		steps++
		if insnWord == blrWord {
			break
		}
	}

	res := Result{Case: c, Steps: steps}
	for k, want := range c.FinalGPR {
		idx, err := regIndex(k)
		if err != nil {
			return Result{}, err
		}
		if got := t.GPR[idx]; got != want {
			res.Mismatches = append(res.Mismatches, fmt.Sprintf("r%d: got %#x, want %#x", idx, got, want))
		}
	}
	if c.FinalCR != nil && t.CR != *c.FinalCR {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf("cr: got %#x, want %#x", t.CR, *c.FinalCR))
	}
	if c.FinalXER != nil && t.XER != *c.FinalXER {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf("xer: got %#x, want %#x", t.XER, *c.FinalXER))
	}
	return res, nil
}

func regIndex(key string) (int, error) {
	var idx int
	if _, err := fmt.Sscanf(key, "%d", &idx); err != nil {
		return 0, fmt.Errorf("testrunner: bad register key %q: %w", key, err)
	}
	if idx < 0 || idx > 31 {
		return 0, fmt.Errorf("testrunner: register index %d out of range", idx)
	}
	return idx, nil
}
