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

package rtl

import "github.com/pdxjjb/hdlsim/kernel"

// NewClockDivider registers a process that toggles out on every divisor-th
// rising edge of clk. divisor must be at least 1. The edge count backing
// the division lives in a Store-owned memory word rather than a closure
// variable, so a Reset rewinds it the same way it rewinds every other
// piece of committed state.
func NewClockDivider(e *kernel.Engine, clk, out *kernel.Signal, divisor int) kernel.SteppingProcess {
	if divisor < 1 {
		panic(kernel.MisuseError{Message: "rtl: clock divider requires divisor >= 1"})
	}
	count := e.Store().AddMemory(kernel.MemoryDesc{Name: out.Name + ".divcount", Width: 64, Depth: 1})
	return New(e, []Sensitivity{OnEdge(clk, 1)}, func(h *kernel.Handle) {
		if h.Read(clk) != 1 {
			return
		}
		next := h.MemRead(count, 0) + 1
		if next >= uint64(divisor) {
			next = 0
			h.Set(out, h.Read(out)^1)
		}
		h.MemWrite(count, 0, next, ^uint64(0))
	})
}

// NewCounter registers a process that increments mem[addr] by one on
// every rising edge of clk, wrapping at the memory's word width.
func NewCounter(e *kernel.Engine, clk *kernel.Signal, mem *kernel.Memory, addr int) kernel.SteppingProcess {
	return New(e, []Sensitivity{OnEdge(clk, 1)}, func(h *kernel.Handle) {
		if h.Read(clk) != 1 {
			return
		}
		cur := h.MemRead(mem, addr)
		h.MemWrite(mem, addr, cur+1, ^uint64(0))
	})
}
