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

// Package testbench hosts ordinary Go functions as coroutine testbench
// processes. The source this package is modeled on hides testbench
// control flow behind Python generators; a goroutine plus a pair of
// unbuffered channels is this package's state machine instead - at any
// instant either the kernel goroutine or the testbench goroutine is
// blocked on a channel receive, so despite running on two goroutines a
// testbench never actually executes concurrently with the kernel loop.
package testbench

import "github.com/pdxjjb/hdlsim/kernel"

type yieldKind int

const (
	yieldSettle yieldKind = iota
	yieldWait
	yieldDone
)

type waitSpec struct {
	delay   kernel.Delay
	useSig  bool
	sig     *kernel.Signal
	edge    bool
	value   uint64
}

type yieldMsg struct {
	kind yieldKind
	wait waitSpec
}

// Process hosts fn as a goroutine, suspending it on a Context call and
// resuming it when the engine calls Run again.
type Process struct {
	kernel.BaseProcess
	handle *kernel.Handle
	fn     func(ctx *Context)

	resume  chan struct{}
	yielded chan yieldMsg

	started    bool
	finished   bool
	waitingSig *kernel.Signal
}

// New registers fn as a testbench process on e. fn runs on its own
// goroutine, starting the first time the engine calls Run; it suspends
// only inside a Context method (Settle, Wait, WaitSignalChange,
// WaitSignal) and must not
// retain ctx past the call in which it receives it, the same restriction
// Go places on any value meant to be used only within its originating
// call.
func New(e *kernel.Engine, passive bool, fn func(ctx *Context)) *Process {
	p := e.AddTestbenchProcess(func(h *kernel.Handle) kernel.TestbenchProcess {
		return &Process{
			BaseProcess: kernel.NewBaseProcess(passive),
			handle:      h,
			fn:          fn,
			resume:      make(chan struct{}),
			yielded:     make(chan yieldMsg),
		}
	})
	return p.(*Process)
}

func (p *Process) Reset() {
	p.SetRunnable(true)
	// A goroutine suspended mid-run when Reset is called (re-running a
	// simulation from scratch mid-test) is abandoned rather than
	// cancelled; it stays parked forever on its next channel operation.
	// Acceptable for the one-run-per-process usage this package targets.
	p.started = false
	p.finished = false
	p.waitingSig = nil
	p.resume = make(chan struct{})
	p.yielded = make(chan yieldMsg)
}

// Run resumes fn until its next suspension point and reports whether it
// wants the kernel to re-settle RTL before calling Run again (Settle, or
// any direct Set/MemWrite followed by Settle); a false return means fn
// either issued a Wait/WaitSignal (already registered on the store or
// timeline by the time Run returns) or has finished.
func (p *Process) Run() bool {
	if p.finished {
		return false
	}
	if p.waitingSig != nil {
		p.handle.RemoveTrigger(p.waitingSig)
		p.waitingSig = nil
	}

	if !p.started {
		p.started = true
		go func() {
			ctx := &Context{p: p}
			p.fn(ctx)
			p.yielded <- yieldMsg{kind: yieldDone}
		}()
	} else {
		p.resume <- struct{}{}
	}

	msg := <-p.yielded
	switch msg.kind {
	case yieldSettle:
		return true
	case yieldDone:
		p.finished = true
		return false
	case yieldWait:
		if msg.wait.useSig {
			if msg.wait.edge {
				p.handle.AddEdgeTrigger(msg.wait.sig, msg.wait.value)
			} else {
				p.handle.AddTrigger(msg.wait.sig)
			}
			p.waitingSig = msg.wait.sig
		} else {
			p.handle.WaitInterval(msg.wait.delay)
		}
		return false
	default:
		panic(kernel.MisuseError{Message: "testbench: unknown yield kind"})
	}
}

func (p *Process) suspend(msg yieldMsg) {
	p.yielded <- msg
	<-p.resume
}
