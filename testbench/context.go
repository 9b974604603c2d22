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

package testbench

import "github.com/pdxjjb/hdlsim/kernel"

// Context is the only thing a hosted testbench function is handed: the
// state-access calls a coroutine needs, plus the four ways it can
// suspend. A Context must not be used from any goroutine other than the
// one it was passed to, nor retained past the call that received it.
type Context struct {
	p *Process
}

func (c *Context) Read(sig *kernel.Signal) uint64       { return c.p.handle.Read(sig) }
func (c *Context) Set(sig *kernel.Signal, value uint64) { c.p.handle.Set(sig, value) }

func (c *Context) MemRead(mem *kernel.Memory, addr int) uint64 {
	return c.p.handle.MemRead(mem, addr)
}

func (c *Context) MemWrite(mem *kernel.Memory, addr int, value, mask uint64) {
	c.p.handle.MemWrite(mem, addr, value, mask)
}

// Settle suspends until the kernel has re-run the RTL delta cycle against
// whatever was just staged, then resumes in the same simulated instant -
// the coroutine equivalent of the legacy Settle() command.
func (c *Context) Settle() {
	c.p.suspend(yieldMsg{kind: yieldSettle})
}

// Wait suspends until amount has elapsed (or immediately, for
// kernel.Immediate).
func (c *Context) Wait(amount kernel.Delay) {
	c.p.suspend(yieldMsg{kind: yieldWait, wait: waitSpec{delay: amount}})
}

// WaitSignalChange suspends until sig's committed value next changes.
func (c *Context) WaitSignalChange(sig *kernel.Signal) {
	c.p.suspend(yieldMsg{kind: yieldWait, wait: waitSpec{useSig: true, sig: sig}})
}

// WaitSignal suspends until sig settles to exactly value.
func (c *Context) WaitSignal(sig *kernel.Signal, value uint64) {
	c.p.suspend(yieldMsg{kind: yieldWait, wait: waitSpec{useSig: true, sig: sig, edge: true, value: value}})
}
