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

package tracesink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdxjjb/hdlsim/kernel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func buildClockEngine(t *testing.T) (*kernel.Engine, *kernel.Signal) {
	t.Helper()
	e := kernel.NewEngine(kernel.Options{})
	clk := kernel.NewSignal("clk", 1, 0)
	e.AddClockProcess(clk, 0, 10)
	e.Reset()
	return e, clk
}

func TestMemorySinkRecordsEveryTransitionInOrder(t *testing.T) {
	e, _ := buildClockEngine(t)
	sink, err := NewMemory(e.Store())
	require.NoError(t, err)

	err = e.WithSink(sink, func() error {
		for i := 0; i < 3; i++ {
			if _, err := e.Advance(); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.True(t, sink.Closed())

	require.Len(t, sink.Records, 3)
	require.Equal(t, "clk", sink.Records[0].Name)
	require.Equal(t, kernel.Time(5), sink.Records[0].Ts)
	require.Equal(t, uint64(1), sink.Records[0].Value)
	require.Equal(t, kernel.Time(10), sink.Records[1].Ts)
	require.Equal(t, uint64(0), sink.Records[1].Value)
	require.Equal(t, kernel.Time(15), sink.Records[2].Ts)
	require.Equal(t, uint64(1), sink.Records[2].Value)
}

func TestFileSinkRoundTripsThroughMsgpack(t *testing.T) {
	e, _ := buildClockEngine(t)
	var buf bytes.Buffer
	sink, err := NewFileSink(e.Store(), &buf, zerolog.Nop())
	require.NoError(t, err)

	err = e.WithSink(sink, func() error {
		for i := 0; i < 2; i++ {
			if _, err := e.Advance(); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	records, err := DecodeRecords(&buf)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "clk", records[0].Name)
	require.False(t, records[0].IsMem)
	require.Equal(t, uint64(1), records[0].Value)
}

func TestCreateFileSinkWritesToDisk(t *testing.T) {
	e, _ := buildClockEngine(t)
	path := filepath.Join(t.TempDir(), "trace.msgpack")
	sink, err := CreateFileSink(e.Store(), path, zerolog.Nop())
	require.NoError(t, err)

	err = e.WithSink(sink, func() error {
		_, err := e.Advance()
		return err
	})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := DecodeRecords(f)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestMemorySinkRecordsMaskedMemoryWrite(t *testing.T) {
	e := kernel.NewEngine(kernel.Options{})
	mem := e.Store().AddMemory(kernel.MemoryDesc{Name: "m", Width: 8, Depth: 4})

	e.AddCoroutineProcess(func(h *kernel.Handle) kernel.SteppingProcess {
		return &onceWriter{h: h, mem: mem}
	})
	e.Reset()

	sink, err := NewMemory(e.Store())
	require.NoError(t, err)

	err = e.WithSink(sink, func() error {
		_, err := e.Advance()
		return err
	})
	require.NoError(t, err)
	require.Len(t, sink.Records, 1)
	require.True(t, sink.Records[0].IsMem)
	require.Equal(t, 1, sink.Records[0].Addr)
	require.Equal(t, uint64(0xFF), sink.Records[0].Value)
}

func TestNewMemoryRejectsWhitespaceInTargetName(t *testing.T) {
	e, clk := buildClockEngine(t)
	bad := kernel.NewSignal("bad clk", 1, 0)
	e.Store().Set(bad, 0)

	_, err := NewMemory(e.Store(), SignalTarget(clk), SignalTarget(bad))
	require.ErrorContains(t, err, "whitespace")
}

func TestNewMemoryRejectsTargetNotInElaboratedDesign(t *testing.T) {
	e, _ := buildClockEngine(t)
	stray := kernel.NewSignal("stray", 1, 0)

	_, err := NewMemory(e.Store(), SignalTarget(stray))
	require.ErrorContains(t, err, "elaborated design")
}

func TestCreateFileSinkRejectsTargetNotInElaboratedDesign(t *testing.T) {
	e, _ := buildClockEngine(t)
	stray := kernel.NewSignal("stray", 1, 0)
	path := filepath.Join(t.TempDir(), "trace.msgpack")

	_, err := CreateFileSink(e.Store(), path, zerolog.Nop(), SignalTarget(stray))
	require.ErrorContains(t, err, "elaborated design")
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "CreateFileSink must not create the file when validation fails")
}

func TestMemorySinkScopedToExplicitTargetsFiltersOthers(t *testing.T) {
	e := kernel.NewEngine(kernel.Options{})
	clk := kernel.NewSignal("clk", 1, 0)
	other := kernel.NewSignal("other", 1, 0)
	e.AddClockProcess(clk, 0, 10)
	e.AddClockProcess(other, 0, 5)
	e.Reset()

	sink, err := NewMemory(e.Store(), SignalTarget(clk))
	require.NoError(t, err)

	err = e.WithSink(sink, func() error {
		_, err := e.Advance()
		return err
	})
	require.NoError(t, err)

	for _, r := range sink.Records {
		require.Equal(t, "clk", r.Name)
	}
}

// onceWriter stages a memory write on its first (and only) eval.
type onceWriter struct {
	kernel.BaseProcess
	h   *kernel.Handle
	mem *kernel.Memory
	ran bool
}

func (p *onceWriter) Reset() { p.SetRunnable(true); p.ran = false }

func (p *onceWriter) Run() {
	if p.ran {
		return
	}
	p.ran = true
	p.h.MemWrite(p.mem, 1, 0xFF, 0xFF)
}
