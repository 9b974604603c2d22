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

func TestTimelineAdvanceReleasesNearestDeadline(t *testing.T) {
	tl := NewTimeline()
	tl.At(10, 1)
	tl.At(20, 2)

	var woken []procID
	ok := tl.Advance(func(p procID) { woken = append(woken, p) })

	require.True(t, ok)
	require.Equal(t, Time(10), tl.Now())
	require.Equal(t, []procID{1}, woken)
}

func TestTimelineAdvanceReleasesTiesTogether(t *testing.T) {
	tl := NewTimeline()
	tl.At(10, 1)
	tl.At(10, 2)
	tl.At(20, 3)

	var woken []procID
	ok := tl.Advance(func(p procID) { woken = append(woken, p) })

	require.True(t, ok)
	require.Equal(t, Time(10), tl.Now())
	require.ElementsMatch(t, []procID{1, 2}, woken)
}

// An immediate deadline wakes strictly before any numeric
// deadline in the same advance(), even one equal to now.
func TestTimelineImmediatePreemptsNumericDeadlineAtNow(t *testing.T) {
	tl := NewTimeline()
	tl.Delay(Immediate, 1)
	tl.At(tl.Now(), 2)

	var woken []procID
	ok := tl.Advance(func(p procID) { woken = append(woken, p) })

	require.True(t, ok)
	require.Equal(t, []procID{1}, woken)
	require.Equal(t, Time(0), tl.Now())

	woken = nil
	ok = tl.Advance(func(p procID) { woken = append(woken, p) })
	require.True(t, ok)
	require.Equal(t, []procID{2}, woken)
}

func TestTimelineAdvanceReturnsFalseWhenEmpty(t *testing.T) {
	tl := NewTimeline()
	ok := tl.Advance(func(procID) { t.Fatal("nothing should wake") })
	require.False(t, ok)
}

func TestTimelineDoubleRegistrationIsMisuse(t *testing.T) {
	tl := NewTimeline()
	tl.At(5, 1)
	require.PanicsWithValue(t, MisuseError{"timeline: process already has a pending deadline"}, func() {
		tl.At(10, 1)
	})
}

func TestTimelineDeadlineBeforeNowIsMisuse(t *testing.T) {
	tl := NewTimeline()
	tl.At(10, 1)
	tl.Advance(func(procID) {})
	require.PanicsWithValue(t, MisuseError{"timeline: deadline precedes current time"}, func() {
		tl.At(5, 2)
	})
}

func TestTimelineResetClearsRegistrationsAndNow(t *testing.T) {
	tl := NewTimeline()
	tl.At(10, 1)
	tl.Advance(func(procID) {})
	tl.Reset()

	require.Equal(t, Time(0), tl.Now())
	require.False(t, tl.registered(1))
}
