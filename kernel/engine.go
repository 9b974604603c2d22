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

import "github.com/rs/zerolog"

// Options configures an Engine.
type Options struct {
	// MaxDeltaIterations bounds the inner eval/commit loop within a single
	// delta cycle. Zero (the default) means unlimited, which never matters
	// for a design that actually converges; set it only to turn a
	// non-convergent design's hang into a diagnosable ErrNonConvergent.
	MaxDeltaIterations int
}

type processKind int

const (
	kindStepping processKind = iota
	kindTestbench
)

type procEntry struct {
	proc Process
	kind processKind
}

// Engine is the kernel loop: it owns the Timeline and Store, schedules
// every registered process, and drives them to settle one step at a time.
type Engine struct {
	opts     Options
	log      zerolog.Logger
	timeline *Timeline
	store    *Store

	entries     []*procEntry
	stepping    []procID
	testbenches []procID

	sinks []Sink
}

// NewEngine returns an Engine with no registered processes, logging
// discarded by default (see WithLogger).
func NewEngine(opts Options) *Engine {
	e := &Engine{opts: opts, log: zerolog.Nop()}
	e.timeline = NewTimeline()
	e.store = NewStore(e.timeline, e.wake)
	return e
}

// WithLogger attaches a logger to the Engine and returns the Engine for
// chaining. The kernel itself writes nothing to it: a non-convergent
// delta cycle is reported only through the ErrNonConvergent that Advance
// returns, and dropped out-of-range memory accesses are not logged.
func (e *Engine) WithLogger(log zerolog.Logger) *Engine {
	e.log = log
	return e
}

// Store returns the engine's state store, for callers (the rtl and
// testbench packages, tests) that need to register memories or read and
// write signals directly, outside of a process's own Handle.
func (e *Engine) Store() *Store {
	return e.store
}

// Now returns the current simulated time.
func (e *Engine) Now() Time {
	return e.timeline.Now()
}

func (e *Engine) wake(proc procID) {
	e.entries[proc].proc.SetRunnable(true)
}

func (e *Engine) newHandle(id procID) *Handle {
	return &Handle{store: e.store, id: id}
}

// AddClockProcess registers a built-in clock process that toggles sig
// between 0 and 1 every period/2, first transitioning at phase (or at
// period/2 if phase is zero).
func (e *Engine) AddClockProcess(sig *Signal, phase, period Time) {
	id := procID(len(e.entries))
	e.entries = append(e.entries, &procEntry{kind: kindStepping})
	p := newClockProcess(e.newHandle(id), sig, phase, period)
	e.entries[id].proc = p
	e.stepping = append(e.stepping, id)
}

// AddCoroutineProcess reserves a procID, builds a process with the Handle
// bound to it, and registers the result as a compiled/opaque stepping
// process (a clock divider or an rtl.New netlist, typically). build must
// not retain h beyond the call; the returned process is expected to do
// that itself.
func (e *Engine) AddCoroutineProcess(build func(h *Handle) SteppingProcess) SteppingProcess {
	id := procID(len(e.entries))
	e.entries = append(e.entries, &procEntry{kind: kindStepping})
	p := build(e.newHandle(id))
	e.entries[id].proc = p
	e.stepping = append(e.stepping, id)
	return p
}

// AddTestbenchProcess is AddCoroutineProcess's counterpart for
// coroutine-hosted testbenches (see the testbench package).
func (e *Engine) AddTestbenchProcess(build func(h *Handle) TestbenchProcess) TestbenchProcess {
	id := procID(len(e.entries))
	e.entries = append(e.entries, &procEntry{kind: kindTestbench})
	p := build(e.newHandle(id))
	e.entries[id].proc = p
	e.testbenches = append(e.testbenches, id)
	return p
}

// Reset rewinds the timeline and state store to their initial values,
// clears every signal and memory waiter set, and calls Reset on every
// registered process, in registration order, so each can re-stage its
// initial deadline and re-add its own triggers.
func (e *Engine) Reset() {
	e.timeline.Reset()
	e.store.Reset()
	for _, slot := range e.store.allSlots {
		switch s := slot.(type) {
		case *SignalState:
			s.waiters = make(map[procID]trigger)
		case *MemoryState:
			s.waiters = make(map[procID]struct{})
		}
	}
	for _, entry := range e.entries {
		entry.proc.Reset()
	}
}

// stepRTL runs the delta cycle to convergence: every runnable stepping
// process is run once, its staged changes are committed, and any process
// that commit woke is run again, until a full pass commits nothing. When
// changed is non-nil, every settled signal and written memory address is
// recorded into it.
func (e *Engine) stepRTL(changed *ChangeSet) error {
	iterations := 0
	for {
		for _, id := range e.stepping {
			proc := e.entries[id].proc.(SteppingProcess)
			if proc.Runnable() {
				proc.SetRunnable(false)
				proc.Run()
			}
		}

		if !e.store.commit(changed) {
			return nil
		}

		iterations++
		if e.opts.MaxDeltaIterations > 0 && iterations >= e.opts.MaxDeltaIterations {
			return ErrNonConvergent{Iterations: iterations}
		}
	}
}

// stepTB settles the rtl delta cycle, then runs every runnable testbench
// process to its own next suspension point, in registration order. A
// stepRTL settle follows every single Run call, whether or not Run
// reported it wants to be called again immediately (its "mutated" return
// only controls that re-invocation), so that a value staged right before
// a process suspends or finishes is committed, and flushed at the right
// timestamp, in the same call that staged it. stepTB itself repeats until
// a full pass over every testbench starts nothing.
func (e *Engine) stepTB(changed *ChangeSet) error {
	if err := e.stepRTL(changed); err != nil {
		return err
	}

	for {
		converged := true
		for _, id := range e.testbenches {
			proc := e.entries[id].proc.(TestbenchProcess)
			if !proc.Runnable() {
				continue
			}
			proc.SetRunnable(false)
			converged = false
			for {
				mutated := proc.Run()
				if err := e.stepRTL(changed); err != nil {
					return err
				}
				if !mutated {
					break
				}
			}
		}
		if converged {
			return nil
		}
	}
}

// Advance releases whichever processes have the nearest pending deadline
// (advancing the clock to meet them), settles every process reachable at
// the resulting time, and flushes the step's ChangeSet to any registered
// sinks. It returns false only once no registered process is still active
// (see Process.Passive) - a run with only passive processes left (clocks
// with no testbench driving them, say) is considered over even if the
// clocks would otherwise tick forever.
//
// Releasing deadlines before settling, rather than after, means a process
// woken by this call's own timeline release runs within the same call -
// this is what makes a clock's transition land on the advance() call that
// crosses its tick, rather than the following one.
func (e *Engine) Advance() (bool, error) {
	e.timeline.Advance(e.wake)

	changed := newChangeSet()
	if err := e.stepTB(changed); err != nil {
		return false, err
	}
	e.flush(changed)

	for _, entry := range e.entries {
		if !entry.proc.Passive() {
			return true, nil
		}
	}
	return false, nil
}
