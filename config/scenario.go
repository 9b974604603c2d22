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

// Package config loads a YAML scenario describing the clocks, memories
// and trace targets a reference run wires up, for cmd/hdlsimctl.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Clock describes one AddClockProcess registration.
type Clock struct {
	Name   string `yaml:"name"`
	Period int64  `yaml:"period"`
	Phase  int64  `yaml:"phase"`
}

// Memory describes one AddMemory registration.
type Memory struct {
	Name  string   `yaml:"name"`
	Width int      `yaml:"width"`
	Depth int      `yaml:"depth"`
	Init  []uint64 `yaml:"init"`
}

// Trace describes a sink to register for the run's duration.
type Trace struct {
	// Kind is "memory" (collect in-process, discarded at exit) or "file"
	// (msgpack-encoded to Path).
	Kind string `yaml:"kind"`
	Path string `yaml:"path,omitempty"`
	// Targets names the clocks and memories this sink records; empty
	// means every signal and memory in the scenario.
	Targets []string `yaml:"targets,omitempty"`
}

// Budget bounds how long a run is allowed to go before hdlsimctl stops
// calling Advance, independent of Engine.Advance's own liveness check.
// Zero in either field means unbounded for that dimension.
type Budget struct {
	MaxTime   int64 `yaml:"max_time"`
	MaxCycles int64 `yaml:"max_cycles"`
}

// Scenario is the top-level shape of a scenario YAML file.
type Scenario struct {
	Name     string   `yaml:"name"`
	Clocks   []Clock  `yaml:"clocks"`
	Memories []Memory `yaml:"memories"`
	Traces   []Trace  `yaml:"traces"`
	Budget   Budget   `yaml:"budget"`
}

// Load reads and validates a scenario from path.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads and validates a scenario from r.
func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	names := make(map[string]bool, len(s.Clocks)+len(s.Memories))
	for _, c := range s.Clocks {
		if c.Name == "" {
			return fmt.Errorf("config: clock with empty name")
		}
		if c.Period <= 0 {
			return fmt.Errorf("config: clock %q: period must be > 0", c.Name)
		}
		if names[c.Name] {
			return fmt.Errorf("config: duplicate signal/memory name %q", c.Name)
		}
		names[c.Name] = true
	}
	for _, m := range s.Memories {
		if m.Name == "" {
			return fmt.Errorf("config: memory with empty name")
		}
		if m.Width <= 0 || m.Depth <= 0 {
			return fmt.Errorf("config: memory %q: width and depth must be > 0", m.Name)
		}
		if len(m.Init) > m.Depth {
			return fmt.Errorf("config: memory %q: init longer than depth", m.Name)
		}
		if names[m.Name] {
			return fmt.Errorf("config: duplicate signal/memory name %q", m.Name)
		}
		names[m.Name] = true
	}
	for _, tr := range s.Traces {
		switch tr.Kind {
		case "memory":
		case "file":
			if tr.Path == "" {
				return fmt.Errorf("config: file trace requires a path")
			}
		default:
			return fmt.Errorf("config: unknown trace kind %q", tr.Kind)
		}
		for _, target := range tr.Targets {
			if !names[target] {
				return fmt.Errorf("config: trace target %q is not a declared clock or memory", target)
			}
		}
	}
	return nil
}
