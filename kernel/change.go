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

// Change is one committed update observed during a single testbench step:
// either a signal settling to a new value (Memory is nil) or one memory
// word being written (Signal is nil).
type Change struct {
	Signal *Signal
	Memory *Memory
	Addr   int
	Value  uint64
}

type changeKey struct {
	sig  *Signal
	mem  *Memory
	addr int
}

// ChangeSet accumulates the changes committed during one testbench step,
// deduplicating by identity (and, for memories, by address) so that a
// signal or memory word settling across more than one delta pass within
// the step is reported once, at its final value - the explicit allowance
// in section 4.G to collapse intermediate deltas.
type ChangeSet struct {
	order []changeKey
	vals  map[changeKey]*Change
}

func newChangeSet() *ChangeSet {
	return &ChangeSet{vals: make(map[changeKey]*Change)}
}

func (cs *ChangeSet) recordSignal(sig *Signal, value uint64) {
	k := changeKey{sig: sig}
	if c, ok := cs.vals[k]; ok {
		c.Value = value
		return
	}
	cs.vals[k] = &Change{Signal: sig, Value: value}
	cs.order = append(cs.order, k)
}

func (cs *ChangeSet) recordMemory(mem *Memory, addr int, value uint64) {
	k := changeKey{mem: mem, addr: addr}
	if c, ok := cs.vals[k]; ok {
		c.Value = value
		return
	}
	cs.vals[k] = &Change{Memory: mem, Addr: addr, Value: value}
	cs.order = append(cs.order, k)
}

// Entries returns the recorded changes, in the order each was first
// observed, at their final (most recently recorded) value.
func (cs *ChangeSet) Entries() []Change {
	out := make([]Change, 0, len(cs.order))
	for _, k := range cs.order {
		out = append(out, *cs.vals[k])
	}
	return out
}

// Len reports how many distinct signals/addresses changed.
func (cs *ChangeSet) Len() int {
	return len(cs.order)
}
