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

import "fmt"

// MisuseError reports a programmer error in how the kernel API was called:
// double registration of a deadline, a conflicting trigger re-add,
// removing a trigger that was never added, and so on. The kernel panics
// with a MisuseError rather than returning one, matching the bare
// assertions of the engine this package is modeled on; a caller may
// recover it and report it instead of crashing. The testbench package
// does not recover, so a MisuseError raised on a testbench goroutine ends
// the program.
type MisuseError struct {
	Message string
}

func (e MisuseError) Error() string {
	return "hdlsim: misuse: " + e.Message
}

// ErrNonConvergent is returned by Engine.Advance when Options.MaxDeltaIterations
// is nonzero and the eval/commit loop fails to settle within that many
// iterations. A design that settles within the limit never sees it; a
// convergent design that needs that many or more progressing passes in one
// delta cycle does, so the limit has to sit above the deepest settle the
// design performs.
type ErrNonConvergent struct {
	Iterations int
}

func (e ErrNonConvergent) Error() string {
	return fmt.Sprintf("hdlsim: delta cycle failed to converge after %d iterations", e.Iterations)
}
