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

package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pdxjjb/hdlsim/config"
	"github.com/pdxjjb/hdlsim/kernel"
	"github.com/pdxjjb/hdlsim/rtl"
	"github.com/pdxjjb/hdlsim/tracesink"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var scenarioPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario to completion or its configured budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(scenarioPath)
		},
	}
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "path to a scenario YAML file")
	cmd.MarkFlagRequired("scenario")
	return cmd
}

func runScenario(path string) error {
	log := newLogger()
	runID := uuid.New()
	log = log.With().Str("run_id", runID.String()).Logger()

	scn, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("hdlsimctl: %w", err)
	}
	log.Info().Str("scenario", scn.Name).Msg("loaded scenario")

	e := kernel.NewEngine(kernel.Options{}).WithLogger(log)
	signals := make(map[string]*kernel.Signal, len(scn.Clocks))
	for _, c := range scn.Clocks {
		sig := kernel.NewSignal(c.Name, 1, 0)
		e.AddClockProcess(sig, kernel.Time(c.Phase), kernel.Time(c.Period))
		signals[c.Name] = sig
	}

	memories := make(map[string]*kernel.Memory, len(scn.Memories))
	for _, m := range scn.Memories {
		mem := e.Store().AddMemory(kernel.MemoryDesc{Name: m.Name, Width: m.Width, Depth: m.Depth, Init: m.Init})
		memories[m.Name] = mem
	}

	// Reference wiring: the first clock drives a counter in the first
	// memory, giving the run something to observe without requiring a
	// netlist loader this repository does not define.
	if len(scn.Clocks) > 0 && len(scn.Memories) > 0 {
		rtl.NewCounter(e, signals[scn.Clocks[0].Name], memories[scn.Memories[0].Name], 0)
	}

	e.Reset()

	sinks, err := buildSinks(e.Store(), scn.Traces, signals, memories, log)
	if err != nil {
		return fmt.Errorf("hdlsimctl: %w", err)
	}

	return withSinks(e, sinks, func() error {
		return drive(e, scn.Budget, log)
	})
}

// buildSinks resolves each trace's target names against the scenario's
// signals and memories and registers the sink scoped to them. An empty
// target list traces the whole design.
func buildSinks(store *kernel.Store, traces []config.Trace, signals map[string]*kernel.Signal, memories map[string]*kernel.Memory, log zerolog.Logger) ([]kernel.Sink, error) {
	sinks := make([]kernel.Sink, 0, len(traces))
	for _, tr := range traces {
		targets := make([]tracesink.Target, 0, len(tr.Targets))
		for _, name := range tr.Targets {
			switch {
			case signals[name] != nil:
				targets = append(targets, tracesink.SignalTarget(signals[name]))
			case memories[name] != nil:
				targets = append(targets, tracesink.MemoryTarget(memories[name]))
			default:
				return nil, fmt.Errorf("hdlsimctl: trace target %q is not a signal or memory of this run", name)
			}
		}
		switch tr.Kind {
		case "memory":
			ms, err := tracesink.NewMemory(store, targets...)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, ms)
		case "file":
			fs, err := tracesink.CreateFileSink(store, tr.Path, log, targets...)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, fs)
		}
	}
	return sinks, nil
}

// withSinks registers every sink in order via nested Engine.WithSink
// calls, so all of them stay registered (most-recent-first, per
// Engine.flush) for the full duration of fn and are guaranteed torn down
// afterward, in reverse order, whether fn returns an error or not.
func withSinks(e *kernel.Engine, sinks []kernel.Sink, fn func() error) error {
	if len(sinks) == 0 {
		return fn()
	}
	return e.WithSink(sinks[0], func() error {
		return withSinks(e, sinks[1:], fn)
	})
}

func drive(e *kernel.Engine, budget config.Budget, log zerolog.Logger) error {
	cycles := int64(0)
	for {
		if budget.MaxCycles > 0 && cycles >= budget.MaxCycles {
			log.Info().Int64("cycles", cycles).Msg("stopped: cycle budget reached")
			return nil
		}
		if budget.MaxTime > 0 && int64(e.Now()) >= budget.MaxTime {
			log.Info().Int64("now", int64(e.Now())).Msg("stopped: time budget reached")
			return nil
		}
		alive, err := e.Advance()
		if err != nil {
			return fmt.Errorf("hdlsimctl: advance: %w", err)
		}
		cycles++
		if !alive {
			log.Info().Int64("now", int64(e.Now())).Msg("run complete: no active processes remain")
			return nil
		}
	}
}
