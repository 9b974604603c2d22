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
	"errors"
	"io"

	"github.com/pdxjjb/hdlsim/kernel"
	"github.com/vmihailenco/msgpack/v5"
)

// DecodeRecords reads every wireRecord a FileSink wrote to r back into
// Records, for tests and for any downstream tool that wants to read a
// trace file without depending on a waveform viewer.
func DecodeRecords(r io.Reader) ([]Record, error) {
	dec := msgpack.NewDecoder(r)
	var out []Record
	for {
		var rec wireRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, Record{
			Ts:    kernel.Time(rec.Ts),
			IsMem: rec.Kind == kindMemory,
			Name:  rec.Name,
			Addr:  rec.Addr,
			Value: rec.Value,
		})
	}
}
