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

package tracesink

import (
	"fmt"
	"strings"

	"github.com/pdxjjb/hdlsim/kernel"
)

// Target names one signal or memory a sink is scoped to. Every
// constructor in this package validates its targets against the store's
// elaborated design before returning, the same way pysim.py's
// _VCDWriter raises out of __init__ rather than at the first mismatched
// write.
type Target struct {
	signal *kernel.Signal
	memory *kernel.Memory
}

// SignalTarget scopes a sink to sig.
func SignalTarget(sig *kernel.Signal) Target { return Target{signal: sig} }

// MemoryTarget scopes a sink to mem.
func MemoryTarget(mem *kernel.Memory) Target { return Target{memory: mem} }

func (t Target) name() string {
	switch {
	case t.signal != nil:
		return t.signal.Name
	case t.memory != nil:
		return t.memory.Name()
	default:
		return ""
	}
}

// validateTargets rejects a target whose name contains whitespace (it
// cannot be serialized unambiguously) and a target that is not a signal
// or a memory of store's elaborated design, both at registration time.
func validateTargets(store *kernel.Store, targets []Target) error {
	for _, t := range targets {
		name := t.name()
		if name == "" {
			return fmt.Errorf("tracesink: empty trace target")
		}
		if strings.ContainsAny(name, " \t\n\r") {
			return fmt.Errorf("tracesink: trace target %q contains whitespace", name)
		}
		switch {
		case t.signal != nil && !store.HasSignal(t.signal):
			return fmt.Errorf("tracesink: signal %q is not part of the elaborated design", name)
		case t.memory != nil && !store.HasMemory(t.memory):
			return fmt.Errorf("tracesink: memory %q is not part of the elaborated design", name)
		}
	}
	return nil
}

// targetSet is the membership check a sink consults on every update, built
// from an already-validated Target list. An unscoped set (no targets
// given at construction) allows everything - a sink with no explicit
// scope traces the whole design.
type targetSet struct {
	scoped   bool
	signals  map[*kernel.Signal]struct{}
	memories map[*kernel.Memory]struct{}
}

func newTargetSet(targets []Target) targetSet {
	if len(targets) == 0 {
		return targetSet{}
	}
	ts := targetSet{
		scoped:   true,
		signals:  make(map[*kernel.Signal]struct{}, len(targets)),
		memories: make(map[*kernel.Memory]struct{}, len(targets)),
	}
	for _, t := range targets {
		if t.signal != nil {
			ts.signals[t.signal] = struct{}{}
		} else {
			ts.memories[t.memory] = struct{}{}
		}
	}
	return ts
}

func (ts targetSet) allowsSignal(sig *kernel.Signal) bool {
	if !ts.scoped {
		return true
	}
	_, ok := ts.signals[sig]
	return ok
}

func (ts targetSet) allowsMemory(mem *kernel.Memory) bool {
	if !ts.scoped {
		return true
	}
	_, ok := ts.memories[mem]
	return ok
}
