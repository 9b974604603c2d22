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

// Time is simulated time, in picoseconds, measured from the start of the run.
type Time int64

// Delay is a relative time offset passed to Timeline.Delay. Immediate is a
// sentinel requesting a wake at the current time rather than now+amount;
// picoseconds are never negative, so -1 is free to reuse as the sentinel.
type Delay int64

// Immediate requests a wake at the current simulated time, ahead of any
// process with a numeric deadline that happens to equal that same time
// (invariant: an immediate wake always precedes a numeric one, even a tie).
const Immediate Delay = -1

// procID identifies a process registered with the Timeline or the Store.
// Indices are stable for the engine's lifetime; nothing outside this
// package ever holds a pointer into another process's state.
type procID int

// Timeline is the monotonic simulated clock: it tracks the current time
// and a deadline per registered process, releasing the earliest deadline
// on each Advance. Immediate deadlines are tracked apart from numeric
// ones, not folded into a numeric value of now, so that a process queued
// for an immediate wake is always released strictly before a process whose
// numeric deadline happens to equal the current time.
type Timeline struct {
	now       Time
	immediate map[procID]struct{}
	deadlines map[procID]Time
}

// NewTimeline returns a Timeline reset to time zero with no registrations.
func NewTimeline() *Timeline {
	return &Timeline{
		immediate: make(map[procID]struct{}),
		deadlines: make(map[procID]Time),
	}
}

// Now returns the current simulated time.
func (tl *Timeline) Now() Time {
	return tl.now
}

// Reset clears all registrations and returns the clock to time zero.
func (tl *Timeline) Reset() {
	tl.now = 0
	for k := range tl.immediate {
		delete(tl.immediate, k)
	}
	for k := range tl.deadlines {
		delete(tl.deadlines, k)
	}
}

func (tl *Timeline) registered(proc procID) bool {
	if _, ok := tl.immediate[proc]; ok {
		return true
	}
	_, ok := tl.deadlines[proc]
	return ok
}

// At registers proc to wake at absolute time deadline. proc must not
// already be registered; violating this is misuse, not a runnable state.
func (tl *Timeline) At(deadline Time, proc procID) {
	if tl.registered(proc) {
		panic(MisuseError{"timeline: process already has a pending deadline"})
	}
	if deadline < tl.now {
		panic(MisuseError{"timeline: deadline precedes current time"})
	}
	tl.deadlines[proc] = deadline
}

// Delay registers proc to wake after amount, relative to now, or
// immediately if amount is Immediate.
func (tl *Timeline) Delay(amount Delay, proc procID) {
	if amount == Immediate {
		if tl.registered(proc) {
			panic(MisuseError{"timeline: process already has a pending deadline"})
		}
		tl.immediate[proc] = struct{}{}
		return
	}
	tl.At(tl.now+Time(amount), proc)
}

// Advance releases every process sharing the earliest registered deadline,
// marking each runnable and clearing its registration, then moves now
// forward to that deadline. Any process with an immediate deadline
// preempts every process with a numeric deadline, even one equal to now.
// It returns false when no process is registered at all, which is the
// run's natural terminator.
func (tl *Timeline) Advance(markRunnable func(procID)) bool {
	if len(tl.immediate) == 0 && len(tl.deadlines) == 0 {
		return false
	}

	if len(tl.immediate) > 0 {
		woken := make([]procID, 0, len(tl.immediate))
		for proc := range tl.immediate {
			woken = append(woken, proc)
		}
		for _, proc := range woken {
			delete(tl.immediate, proc)
		}
		for _, proc := range woken {
			markRunnable(proc)
		}
		return true
	}

	nearest := tl.now
	first := true
	for _, deadline := range tl.deadlines {
		if first || deadline < nearest {
			nearest = deadline
			first = false
		}
	}

	var woken []procID
	for proc, deadline := range tl.deadlines {
		if deadline == nearest {
			woken = append(woken, proc)
		}
	}
	for _, proc := range woken {
		delete(tl.deadlines, proc)
	}
	tl.now = nearest
	for _, proc := range woken {
		markRunnable(proc)
	}
	return true
}
