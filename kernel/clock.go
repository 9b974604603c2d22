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

// clockProcess toggles sig every half period, starting at phase. It is
// passive: an otherwise-idle run that has only clocks left to run is
// considered finished, the same way a design with no testbench would
// never advance on its own.
type clockProcess struct {
	BaseProcess
	handle *Handle
	sig    *Signal
	phase  Time
	period Time
}

func newClockProcess(handle *Handle, sig *Signal, phase, period Time) *clockProcess {
	if period <= 0 {
		panic(MisuseError{"clock: period must be positive"})
	}
	return &clockProcess{
		BaseProcess: NewBaseProcess(true),
		handle:      handle,
		sig:         sig,
		phase:       phase,
		period:      period,
	}
}

func (c *clockProcess) Reset() {
	// A clock never needs an eval pass of its own before its first tick -
	// reset() already stages the initial value directly - so it starts
	// not runnable, registering only a deadline.
	c.SetRunnable(false)
	c.handle.Set(c.sig, c.sig.Init)
	if c.phase > 0 {
		c.handle.WaitInterval(Delay(c.phase))
	} else {
		c.handle.WaitInterval(Delay(c.period / 2))
	}
}

func (c *clockProcess) Run() {
	cur := c.handle.Read(c.sig)
	c.handle.Set(c.sig, cur^1)
	c.handle.WaitInterval(Delay(c.period / 2))
}
