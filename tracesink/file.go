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
	"fmt"
	"io"
	"os"

	"github.com/pdxjjb/hdlsim/kernel"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// wireRecord is the msgpack-on-the-wire shape of one FileSink record. It
// is intentionally flatter than Record: kind discriminates signal from
// memory instead of a bool field, to keep the file format legible to a
// reader working from a hex dump rather than from this source.
type wireRecord struct {
	Ts    int64  `msgpack:"ts"`
	Kind  string `msgpack:"kind"`
	Name  string `msgpack:"name"`
	Addr  int    `msgpack:"addr"`
	Value uint64 `msgpack:"value"`
}

const (
	kindSignal = "signal"
	kindMemory = "memory"
)

// FileSink streams a kernel.ChangeSet's entries to w as a sequence of
// msgpack-encoded wireRecord values - a reference, non-VCD trace format.
// Unlike Memory, FileSink never buffers more than one record in memory at
// a time, so it is the sink a long-running simulation should register.
type FileSink struct {
	w       io.WriteCloser
	enc     *msgpack.Encoder
	log     zerolog.Logger
	targets targetSet

	ownsFile bool
}

// NewFileSink wraps an already-open writer (a caller that wants to manage
// the file's lifecycle itself - a buffer in a test, say). Close does not
// close w; call Close(w) yourself once the sink's registration scope has
// ended. It fails if any target's name contains whitespace or does not
// belong to store's elaborated design.
func NewFileSink(store *kernel.Store, w io.Writer, log zerolog.Logger, targets ...Target) (*FileSink, error) {
	if err := validateTargets(store, targets); err != nil {
		return nil, err
	}
	return &FileSink{w: nopCloser{w}, enc: msgpack.NewEncoder(w), log: log, targets: newTargetSet(targets)}, nil
}

// CreateFileSink creates (or truncates) path and returns a FileSink that
// owns the resulting file: Close closes it. It fails if any target's name
// contains whitespace or does not belong to store's elaborated design.
func CreateFileSink(store *kernel.Store, path string, log zerolog.Logger, targets ...Target) (*FileSink, error) {
	if err := validateTargets(store, targets); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("tracesink: create %s: %w", path, err)
	}
	return &FileSink{w: f, enc: msgpack.NewEncoder(f), log: log, targets: newTargetSet(targets), ownsFile: true}, nil
}

func (s *FileSink) UpdateSignal(ts kernel.Time, sig *kernel.Signal, value uint64) {
	if !s.targets.allowsSignal(sig) {
		return
	}
	s.encode(wireRecord{Ts: int64(ts), Kind: kindSignal, Name: sig.Name, Value: value})
}

func (s *FileSink) UpdateMemory(ts kernel.Time, mem *kernel.Memory, addr int, value uint64) {
	if !s.targets.allowsMemory(mem) {
		return
	}
	s.encode(wireRecord{Ts: int64(ts), Kind: kindMemory, Name: mem.Name(), Addr: addr, Value: value})
}

func (s *FileSink) encode(rec wireRecord) {
	if err := s.enc.Encode(rec); err != nil {
		s.log.Error().Err(err).Str("name", rec.Name).Msg("tracesink: write failed")
	}
}

func (s *FileSink) Close(ts kernel.Time) {
	if !s.ownsFile {
		return
	}
	if err := s.w.Close(); err != nil {
		s.log.Error().Err(err).Msg("tracesink: close failed")
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
