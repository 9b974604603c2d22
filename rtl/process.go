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

// Package rtl hosts compiled/opaque processes: the kernel package only
// knows about kernel.SteppingProcess, so this package is the minimal
// adapter between a sensitivity list plus an eval closure and that
// interface, standing in for the role Amaranth's fragment compiler plays
// in the source this package is modeled on - real synthesis/elaboration
// is out of scope here; a caller hands this package the gate-level
// closure it would otherwise have compiled.
package rtl

import "github.com/pdxjjb/hdlsim/kernel"

// Sensitivity is one entry of a process's sensitivity list: either wake
// on any change to Signal, or only when it settles to exactly Value.
type Sensitivity struct {
	Signal *kernel.Signal
	Edge   bool
	Value  uint64
}

// OnChange wakes the process whenever sig's committed value changes.
func OnChange(sig *kernel.Signal) Sensitivity {
	return Sensitivity{Signal: sig}
}

// OnEdge wakes the process only when sig settles to exactly value.
func OnEdge(sig *kernel.Signal, value uint64) Sensitivity {
	return Sensitivity{Signal: sig, Edge: true, Value: value}
}

// process adapts a sensitivity list and an eval closure into a
// kernel.SteppingProcess: Reset re-subscribes every sensitivity, Run
// calls eval once per wake.
type process struct {
	kernel.BaseProcess
	handle    *kernel.Handle
	sensitize []Sensitivity
	eval      func(h *kernel.Handle)
}

// New registers a compiled-style process on e: it starts runnable (so it
// evaluates its initial outputs once before the first clock edge), then
// re-evaluates whenever any signal in sensitize satisfies its condition.
func New(e *kernel.Engine, sensitize []Sensitivity, eval func(h *kernel.Handle)) kernel.SteppingProcess {
	return e.AddCoroutineProcess(func(h *kernel.Handle) kernel.SteppingProcess {
		return &process{
			BaseProcess: kernel.NewBaseProcess(false),
			handle:      h,
			sensitize:   sensitize,
			eval:        eval,
		}
	})
}

func (p *process) Reset() {
	p.SetRunnable(true)
	for _, s := range p.sensitize {
		if s.Edge {
			p.handle.AddEdgeTrigger(s.Signal, s.Value)
		} else {
			p.handle.AddTrigger(s.Signal)
		}
	}
}

func (p *process) Run() {
	p.eval(p.handle)
}
