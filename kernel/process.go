// Copyright © 2024 Jeff Berkowitz (pdxjjb@gmail.com)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.

package kernel

// Process is the bookkeeping every process the engine schedules must
// expose: whether it is runnable right now, and whether it is passive
// (a passive process never by itself keeps a run alive - see Engine.Advance).
type Process interface {
	Runnable() bool
	SetRunnable(bool)
	Passive() bool
	Reset()
}

// SteppingProcess is a compiled/opaque process (clocks, rtl.New netlists):
// Run is called once per delta pass while it is runnable, and is expected
// to re-evaluate combinational outputs from current inputs in one shot.
type SteppingProcess interface {
	Process
	Run()
}

// TestbenchProcess is a coroutine-hosted process (see the testbench
// package): Run resumes it until it next suspends, and reports whether it
// mutated any signal or memory while running.
type TestbenchProcess interface {
	Process
	Run() (mutated bool)
}

// BaseProcess is an embeddable implementation of the Runnable/Passive
// bookkeeping every Process needs; rtl and testbench process types embed
// it instead of reimplementing the same two fields.
type BaseProcess struct {
	runnable bool
	passive  bool
}

// NewBaseProcess returns a BaseProcess that starts runnable (so it gets a
// chance to settle its initial outputs before the first Advance) with the
// given passive flag.
func NewBaseProcess(passive bool) BaseProcess {
	return BaseProcess{runnable: true, passive: passive}
}

func (b *BaseProcess) Runnable() bool     { return b.runnable }
func (b *BaseProcess) SetRunnable(v bool) { b.runnable = v }
func (b *BaseProcess) Passive() bool      { return b.passive }

// Handle is what a process uses to talk to the Store and Timeline: it
// binds a single procID, reserved by the Engine, to the state API a
// compiled or coroutine-hosted process needs. Constructing one directly
// is of no use outside this package; callers obtain one as the argument
// of the build function passed to Engine.AddCoroutineProcess or
// Engine.AddTestbenchProcess.
type Handle struct {
	store *Store
	id    procID
}

func (h *Handle) Read(sig *Signal) uint64            { return h.store.Read(sig) }
func (h *Handle) Set(sig *Signal, value uint64)      { h.store.Set(sig, value) }
func (h *Handle) MemRead(mem *Memory, addr int) uint64 {
	return h.store.MemRead(mem, addr)
}
func (h *Handle) MemWrite(mem *Memory, addr int, value, mask uint64) {
	h.store.MemWrite(mem, addr, value, mask)
}

// AddTrigger registers this process to wake on any change to sig.
func (h *Handle) AddTrigger(sig *Signal) { h.store.AddTrigger(h.id, sig) }

// AddEdgeTrigger registers this process to wake only when sig becomes value.
func (h *Handle) AddEdgeTrigger(sig *Signal, value uint64) {
	h.store.AddEdgeTrigger(h.id, sig, value)
}

func (h *Handle) RemoveTrigger(sig *Signal) { h.store.RemoveTrigger(h.id, sig) }

func (h *Handle) AddMemoryTrigger(mem *Memory) { h.store.AddMemoryTrigger(h.id, mem) }

func (h *Handle) RemoveMemoryTrigger(mem *Memory) { h.store.RemoveMemoryTrigger(h.id, mem) }

// WaitInterval registers this process to wake after amount, or at the
// current time if amount is Immediate.
func (h *Handle) WaitInterval(amount Delay) { h.store.WaitInterval(amount, h.id) }
