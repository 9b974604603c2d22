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

// stateSlot is one entry in the Store's slot table: either a *SignalState
// or a *MemoryState. Both know how to publish their staged value and wake
// their waiters; the Store never needs to distinguish them except when
// recording a ChangeSet entry.
type stateSlot interface {
	commit() bool
}

// pendingSet is the set of slots with a staged-but-uncommitted change,
// in first-staged order. A slot that stages twice in the same delta pass
// (e.g. two masked memory writes) is only committed once.
type pendingSet struct {
	order []stateSlot
	set   map[stateSlot]struct{}
}

func newPendingSet() *pendingSet {
	return &pendingSet{set: make(map[stateSlot]struct{})}
}

func (p *pendingSet) add(s stateSlot) {
	if _, ok := p.set[s]; ok {
		return
	}
	p.set[s] = struct{}{}
	p.order = append(p.order, s)
}

func (p *pendingSet) empty() bool {
	return len(p.order) == 0
}

// drain returns the pending slots in staged order and clears the set.
func (p *pendingSet) drain() []stateSlot {
	order := p.order
	p.order = nil
	p.set = make(map[stateSlot]struct{})
	return order
}

// Store is the state store: the slot table for every signal and memory in
// the design, plus the interning maps that let a *Signal or *Memory
// descriptor be handed around freely while the slot itself is addressed
// by a stable index. wake is supplied by the Engine and is how a commit
// marks a waiting process runnable without the Store knowing what a
// process table is.
type Store struct {
	timeline *Timeline
	pending  *pendingSet
	wake     func(procID)

	signalSlots  map[*Signal]*SignalState
	memorySlots  map[*Memory]*MemoryState
	allSlots     []stateSlot
}

// NewStore returns an empty Store bound to timeline. wake is called
// whenever a commit satisfies a waiter's trigger.
func NewStore(timeline *Timeline, wake func(procID)) *Store {
	return &Store{
		timeline:    timeline,
		pending:     newPendingSet(),
		wake:        wake,
		signalSlots: make(map[*Signal]*SignalState),
		memorySlots: make(map[*Memory]*MemoryState),
	}
}

// getSignal interns sig, allocating its slot on first use. Calling it more
// than once for the same descriptor is free and returns the same slot.
func (st *Store) getSignal(sig *Signal) *SignalState {
	if s, ok := st.signalSlots[sig]; ok {
		return s
	}
	s := newSignalState(sig, st.pending, st.wake)
	st.signalSlots[sig] = s
	st.allSlots = append(st.allSlots, s)
	return s
}

// AddMemory registers a memory descriptor and returns its handle. Init
// longer than Depth is a misuse; shorter is zero-padded.
func (st *Store) AddMemory(desc MemoryDesc) *Memory {
	if len(desc.Init) > desc.Depth {
		panic(MisuseError{"store: memory initializer longer than its depth"})
	}
	mem := &Memory{desc: desc}
	s := newMemoryState(mem, st.pending, st.wake)
	st.memorySlots[mem] = s
	st.allSlots = append(st.allSlots, s)
	return mem
}

// HasSignal reports whether sig has already been touched by some process
// or handle call - Read, Set, AddTrigger and so on all intern it as a side
// effect. Engine.Reset interns whatever each process's own Reset touches
// (a clock's signal, the signals an rtl process is sensitive to); a
// signal that a process only reads or writes from Run is not interned
// until that Run has executed.
func (st *Store) HasSignal(sig *Signal) bool {
	_, ok := st.signalSlots[sig]
	return ok
}

// HasMemory reports whether mem was registered with this store via
// AddMemory.
func (st *Store) HasMemory(mem *Memory) bool {
	_, ok := st.memorySlots[mem]
	return ok
}

func (st *Store) memoryState(mem *Memory) *MemoryState {
	s, ok := st.memorySlots[mem]
	if !ok {
		panic(MisuseError{"store: memory handle not registered with this store"})
	}
	return s
}

// Read returns sig's last committed value.
func (st *Store) Read(sig *Signal) uint64 {
	return st.getSignal(sig).read()
}

// Set stages value as sig's next value, to be published on the next commit.
func (st *Store) Set(sig *Signal, value uint64) {
	st.getSignal(sig).set(value)
}

// MemRead returns mem[addr], or 0 if addr is out of range.
func (st *Store) MemRead(mem *Memory, addr int) uint64 {
	return st.memoryState(mem).read(addr)
}

// MemWrite stages a masked write of mem[addr], to be applied on the next
// commit. Bits outside mask retain their prior value; a zero mask and an
// out-of-range address are both silently dropped.
func (st *Store) MemWrite(mem *Memory, addr int, value, mask uint64) {
	st.memoryState(mem).write(addr, value, mask)
}

// AddTrigger registers proc to wake whenever sig's committed value changes.
func (st *Store) AddTrigger(proc procID, sig *Signal) {
	st.getSignal(sig).addTrigger(proc, anyTrigger())
}

// AddEdgeTrigger registers proc to wake only when sig's committed value
// becomes exactly value.
func (st *Store) AddEdgeTrigger(proc procID, sig *Signal, value uint64) {
	st.getSignal(sig).addTrigger(proc, equalsTrigger(maskWidth(value, sig.Width)))
}

// RemoveTrigger cancels proc's trigger on sig. Removing a trigger that was
// never added is misuse.
func (st *Store) RemoveTrigger(proc procID, sig *Signal) {
	st.getSignal(sig).removeTrigger(proc)
}

// AddMemoryTrigger registers proc to wake whenever any word of mem is
// written. Memory triggers are always "any change"; there is no
// memory-word equivalent of an edge trigger.
func (st *Store) AddMemoryTrigger(proc procID, mem *Memory) {
	st.memoryState(mem).addTrigger(proc)
}

// RemoveMemoryTrigger cancels proc's trigger on mem.
func (st *Store) RemoveMemoryTrigger(proc procID, mem *Memory) {
	st.memoryState(mem).removeTrigger(proc)
}

// WaitInterval registers proc on the timeline, delegating Immediate the
// same way Timeline.Delay does.
func (st *Store) WaitInterval(amount Delay, proc procID) {
	st.timeline.Delay(amount, proc)
}

// Reset restores every signal and memory slot to its initial value and
// clears the pending set. It does not touch the timeline or waiter sets;
// Engine.Reset resets those alongside process state.
func (st *Store) Reset() {
	for _, slot := range st.allSlots {
		switch s := slot.(type) {
		case *SignalState:
			s.reset()
		case *MemoryState:
			s.reset()
		}
	}
	st.pending.drain()
}

// commit runs one delta pass: every slot staged since the last commit is
// published, in staging order, waking any satisfied waiter. When changed
// is non-nil, one Change entry is recorded per settled signal and per
// written memory address, at its final post-merge value, before the
// slot's own commit mutates its committed state. commit returns true iff
// at least one signal changed value or one memory had a queued write
// applied (i.e. the pass did not converge).
func (st *Store) commit(changed *ChangeSet) bool {
	slots := st.pending.drain()
	progressed := false

	for _, slot := range slots {
		switch s := slot.(type) {
		case *SignalState:
			if changed != nil {
				changed.recordSignal(s.sig, s.next)
			}
			if s.commit() {
				progressed = true
			}
		case *MemoryState:
			if changed != nil {
				running := make(map[int]uint64, len(s.queue))
				for _, w := range s.queue {
					curr, ok := running[w.addr]
					if !ok {
						curr = s.data[w.addr]
					}
					merged := (w.value & w.mask) | (curr &^ w.mask)
					running[w.addr] = merged
					changed.recordMemory(s.mem, w.addr, merged)
				}
			}
			if s.commit() {
				progressed = true
			}
		}
	}

	return progressed
}
