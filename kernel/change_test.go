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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChangeSetDeduplicatesBySignalIdentityKeepingFinalValue(t *testing.T) {
	cs := newChangeSet()
	sig := NewSignal("s", 8, 0)

	cs.recordSignal(sig, 1)
	cs.recordSignal(sig, 2)

	entries := cs.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, uint64(2), entries[0].Value)
}

func TestChangeSetDeduplicatesByMemoryAddress(t *testing.T) {
	cs := newChangeSet()
	mem := &Memory{desc: MemoryDesc{Name: "m", Width: 8, Depth: 4}}

	cs.recordMemory(mem, 1, 0x10)
	cs.recordMemory(mem, 2, 0x20)
	cs.recordMemory(mem, 1, 0x11)

	entries := cs.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, 2, cs.Len())
}

func TestChangeSetPreservesFirstObservedOrder(t *testing.T) {
	cs := newChangeSet()
	a := NewSignal("a", 1, 0)
	b := NewSignal("b", 1, 0)

	cs.recordSignal(b, 1)
	cs.recordSignal(a, 1)
	cs.recordSignal(b, 0)

	entries := cs.Entries()
	require.Len(t, entries, 2)
	require.Same(t, b, entries[0].Signal)
	require.Same(t, a, entries[1].Signal)
}
