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

// Package tracesink provides two kernel.Sink implementations: an
// in-memory sink for tests and assertions, and a msgpack-encoded file
// sink standing in for (but not defining) a waveform format - the kernel
// itself has no opinion on wire formats, see kernel.Sink.
package tracesink

import "github.com/pdxjjb/hdlsim/kernel"

// Record is one observed transition: a signal settling to Value, or a
// memory word at Addr settling to Value. Name identifies the signal or
// memory by the name its descriptor was given; a sink only ever gets
// told a name, a timestamp and a value, not the kernel's *Signal/*Memory
// pointer identity.
type Record struct {
	Ts    kernel.Time
	IsMem bool
	Name  string
	Addr  int
	Value uint64
}

// Memory is an in-memory kernel.Sink: it appends every update within its
// scope to Records, and is closed (Ts of the final Close call recorded)
// when the registration scope ends. It exists for tests and for
// short-lived interactive inspection; Record.Name is the only
// cross-reference a caller needs to look up the observed signal or
// memory again.
type Memory struct {
	Records  []Record
	ClosedAt kernel.Time
	closed   bool
	targets  targetSet
}

// NewMemory returns an empty in-memory sink scoped to targets (every
// signal and memory the engine reports, if targets is empty). It fails
// if any target's name contains whitespace or does not belong to
// store's elaborated design.
func NewMemory(store *kernel.Store, targets ...Target) (*Memory, error) {
	if err := validateTargets(store, targets); err != nil {
		return nil, err
	}
	return &Memory{targets: newTargetSet(targets)}, nil
}

func (m *Memory) UpdateSignal(ts kernel.Time, sig *kernel.Signal, value uint64) {
	if !m.targets.allowsSignal(sig) {
		return
	}
	m.Records = append(m.Records, Record{Ts: ts, Name: sig.Name, Value: value})
}

func (m *Memory) UpdateMemory(ts kernel.Time, mem *kernel.Memory, addr int, value uint64) {
	if !m.targets.allowsMemory(mem) {
		return
	}
	m.Records = append(m.Records, Record{Ts: ts, IsMem: true, Name: mem.Name(), Addr: addr, Value: value})
}

func (m *Memory) Close(ts kernel.Time) {
	m.closed = true
	m.ClosedAt = ts
}

// Closed reports whether the engine has released this sink (its
// registration scope, a kernel.Engine.WithSink call, has returned).
func (m *Memory) Closed() bool { return m.closed }
