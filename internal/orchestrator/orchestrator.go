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

// Package orchestrator wires every component into a running core instance
// and supervises its lifecycle: startup wiring order, the reset transition,
// and per-thread/per-device goroutine supervision via errgroup. Grounded on
// spec.md §4.7/§5 and the teacher's top-level machine-assembly style
// (machine.go's device wiring), generalized from a single-goroutine run loop
// to one goroutine per hardware thread plus a device-tick goroutine
// supervised by golang.org/x/sync/errgroup (SPEC_FULL §1).
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xenon-emu/xenon/internal/bus"
	"github.com/xenon-emu/xenon/internal/config"
	"github.com/xenon-emu/xenon/internal/devices/hdd"
	"github.com/xenon-emu/xenon/internal/devices/odd"
	"github.com/xenon-emu/xenon/internal/devices/ohci"
	"github.com/xenon-emu/xenon/internal/devices/sfcx"
	"github.com/xenon-emu/xenon/internal/devices/smc"
	"github.com/xenon-emu/xenon/internal/devices/stub"
	"github.com/xenon-emu/xenon/internal/gpu"
	"github.com/xenon-emu/xenon/internal/iic"
	"github.com/xenon-emu/xenon/internal/imagefile"
	"github.com/xenon-emu/xenon/internal/logging"
	"github.com/xenon-emu/xenon/internal/memory"
	"github.com/xenon-emu/xenon/internal/mmu"
	"github.com/xenon-emu/xenon/internal/nand"
	"github.com/xenon-emu/xenon/internal/pci"
	"github.com/xenon-emu/xenon/internal/ppc"
)

// Guest-physical addresses for memory-mapped devices, placed safely above
// any RAM size this core is configured with (§4.1 bus region wiring).
const (
	addrGPU    = 0xC8000000
	addrPCICfg = 0xD0000000
	addrSMC    = 0xEA000000

	pciBarBase = 0xEA100000
	pciBarSize = 0x1000

	regionSize = 0x1000
	pciCfgSize = 0x10000
	gpuSize    = 0x10000
)

// pci slot numbers for the devices attached through the bridge.
const (
	slotSFCX = 0
	slotHDD  = 1
	slotODD  = 2
	slotOHCI = 3
	slotEHCI = 4
	slotEth  = 5
	slotAudio = 6
	slotXMA  = 7
)

// bootPC is the reset vector. It is fixed in hardware (§4.7 scenario #1);
// the NAND chain load only resolves the hardware-init-skip configuration,
// it never redirects where thread 0 starts fetching.
const bootPC = uint64(0x20000000100)

// Orchestrator owns every subsystem and supervises its goroutines.
type Orchestrator struct {
	cfg config.Config

	mem    *memory.Arena
	sysBus *bus.Bus
	mmu    *mmu.MMU
	iic    *iic.Controller
	cpu    *ppc.CPU
	gpu    *gpu.GPU
	bridge *pci.Bridge

	smc  *smc.Controller
	ohci *ohci.Controller

	nandImg *imagefile.NAND
	hddImg  *imagefile.BlockDevice
	oddImg  *imagefile.BlockDevice

	cancel context.CancelFunc
}

// New wires every subsystem per the startup order spec.md §4.7 specifies:
// memory and bus first, then MMU/IIC, then devices (attached to the bus),
// then the CPU, then the NAND-derived skip configuration, and finally the
// bus is sealed so no further region registration can occur once execution
// may begin.
func New(cfg config.Config) (*Orchestrator, error) {
	if err := logging.InitFile(logging.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		logging.Warnf("orchestrator: %v", err)
	}

	o := &Orchestrator{cfg: cfg}

	o.mem = memory.New(cfg.RAMSize)
	o.sysBus = bus.New(o.mem)
	o.mmu = mmu.New(o.sysBus, ppc.NumThreads)
	o.iic = iic.New()
	o.iic.Route(iic.LineGPU, 0)
	o.gpu = gpu.New(o.sysBus, o.iic, iic.LineGPU)
	o.sysBus.Register(bus.Region{Name: "gpu", Start: addrGPU, End: addrGPU + gpuSize - 1, Handler: o.gpu})

	o.bridge = pci.New()
	o.sysBus.Register(bus.Region{Name: "pci-config", Start: addrPCICfg, End: addrPCICfg + pciCfgSize - 1, Handler: o.bridge})

	if err := o.attachStorage(cfg); err != nil {
		return nil, err
	}
	if err := o.attachDevices(cfg); err != nil {
		return nil, err
	}

	o.cpu = ppc.New(o.sysBus, o.mmu, o.iic)

	// The reset vector is fixed in hardware (§4.7 scenario #1); the NAND
	// chain load only resolves the hardware-init-skip configuration, it
	// never redirects where thread 0 starts fetching.
	const bootPC = uint64(0x20000000100)
	if o.nandImg != nil {
		loader := nand.NewLoader(o.nandImg)
		chain, err := loader.LoadChain()
		if err != nil {
			logging.Warnf("orchestrator: nand chain parse failed, continuing without skip table: %v", err)
		} else {
			o.cpu.Skip = chain.Skip
			logging.Infof("orchestrator: CB_A build %#04x, CB_B build %#04x", chain.CBA.Build, chain.CBB.Build)
		}
	}
	if cfg.ForcedSkipA != 0 || cfg.ForcedSkipB != 0 {
		o.cpu.Skip = ppc.SkipConfig{Enabled: true, AddrA: cfg.ForcedSkipA, AddrB: cfg.ForcedSkipB}
	}

	o.cpu.ResetAll(bootPC)
	o.sysBus.Seal()

	return o, nil
}

func (o *Orchestrator) attachStorage(cfg config.Config) error {
	if cfg.NANDPath != "" {
		img, err := imagefile.OpenNAND(cfg.NANDPath, false)
		if err != nil {
			return fmt.Errorf("orchestrator: nand: %w", err)
		}
		o.nandImg = img
	}
	if cfg.HDDImagePath != "" {
		img, err := imagefile.OpenBlockDevice(cfg.HDDImagePath, 512, false)
		if err != nil {
			return fmt.Errorf("orchestrator: hdd: %w", err)
		}
		o.hddImg = img
	}
	if cfg.ODDImagePath != "" {
		img, err := imagefile.OpenBlockDevice(cfg.ODDImagePath, 2048, true)
		if err != nil {
			return fmt.Errorf("orchestrator: odd: %w", err)
		}
		o.oddImg = img
	}
	return nil
}

// barAddr returns the PCI BAR window address for slot n, each sized
// pciBarSize and laid out consecutively above pciBarBase.
func barAddr(slot int) uint64 { return pciBarBase + uint64(slot)*pciBarSize }

func (o *Orchestrator) attachDevices(cfg config.Config) error {
	uart, err := newUARTTransport(cfg)
	if err != nil {
		return err
	}
	o.smc = smc.New(o.iic, uart, o.handleSMCSignal)
	o.smc.SetPowerOnReason(cfg.PowerOnReason)
	o.smc.SetAVPackType(cfg.AVPackType)
	o.iic.Route(iic.LineSMC, 0)
	o.sysBus.Register(bus.Region{Name: "smc", Start: addrSMC, End: addrSMC + regionSize - 1, Handler: o.smc})

	if o.nandImg != nil {
		o.iic.Route(iic.LineSFCX, 0)
		sf := sfcx.New(o.sysBus, o.nandImg, o.iic, iic.LineSFCX)
		o.bridge.Attach(o.sysBus, slotSFCX, sf, barAddr(slotSFCX), pciBarSize, 0x1414, 0x5841)
	}

	if o.hddImg != nil {
		o.iic.Route(iic.LineATA, 0)
		h := hdd.New(o.sysBus, o.hddImg, o.iic, iic.LineATA)
		o.bridge.Attach(o.sysBus, slotHDD, h, barAddr(slotHDD), pciBarSize, 0x1414, 0x5842)
	}

	o.iic.Route(iic.LineATAPI, 0)
	od := odd.New(o.sysBus, o.oddImg, o.iic, iic.LineATAPI)
	o.bridge.Attach(o.sysBus, slotODD, od, barAddr(slotODD), pciBarSize, 0x1414, 0x5843)

	o.iic.Route(iic.LineOHCI, 0)
	o.ohci = ohci.New(o.sysBus)
	o.bridge.Attach(o.sysBus, slotOHCI, o.ohci, barAddr(slotOHCI), pciBarSize, 0x1414, 0x5844)

	o.bridge.Attach(o.sysBus, slotEHCI, stub.New("ehci", regionSize), barAddr(slotEHCI), pciBarSize, 0x1414, 0x5845)
	o.bridge.Attach(o.sysBus, slotEth, stub.New("ethernet", regionSize), barAddr(slotEth), pciBarSize, 0x1414, 0x5846)
	o.bridge.Attach(o.sysBus, slotAudio, stub.New("audio", regionSize), barAddr(slotAudio), pciBarSize, 0x1414, 0x5847)
	o.bridge.Attach(o.sysBus, slotXMA, stub.New("xma", regionSize), barAddr(slotXMA), pciBarSize, 0x1414, 0x5848)

	return nil
}

func (o *Orchestrator) handleSMCSignal(sig smc.Signal) {
	switch sig {
	case smc.SignalPowerOff:
		logging.Infof("orchestrator: guest requested power-off")
		o.Shutdown()
	case smc.SignalReboot:
		logging.Infof("orchestrator: guest requested reboot")
		o.Reset()
	}
}

// Reset performs the reset transition: every thread returns to the boot
// vector, the MMU/IIC/reservation state clears, but device images and
// wiring are untouched (§3 reset transition).
func (o *Orchestrator) Reset() {
	o.cpu.ResetAll(bootPC)
}

// Run starts one goroutine per hardware thread plus a device-tick
// goroutine, supervised by an errgroup so any goroutine's error or the
// context's cancellation stops the whole group (§5).
func (o *Orchestrator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < ppc.NumThreads; i++ {
		idx := i
		g.Go(func() error { return o.runThread(gctx, idx) })
	}
	g.Go(func() error { return o.runDeviceTicks(gctx) })
	g.Go(func() error { return o.gpu.CP.Run(gctx) })

	return g.Wait()
}

func (o *Orchestrator) runThread(ctx context.Context, idx int) error {
	o.cpu.Continue(idx)
	t := o.cpu.Threads[idx]
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !o.cpu.Running(idx) {
			return nil
		}
		o.cpu.Step(t)
	}
}

const deviceTickInterval = time.Millisecond

func (o *Orchestrator) runDeviceTicks(ctx context.Context) error {
	ticker := time.NewTicker(deviceTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.smc.Tick()
			o.ohci.Tick()
		}
	}
}

// Shutdown stops every thread and device-tick goroutine started by Run.
func (o *Orchestrator) Shutdown() {
	if o.cancel != nil {
		o.cancel()
	}
	for i := 0; i < ppc.NumThreads; i++ {
		o.cpu.Halt(i)
	}
	_ = logging.Close()
}
