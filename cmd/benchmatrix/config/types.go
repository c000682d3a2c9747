// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/affinity"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/sweep"
)

// SweepFile is the optional YAML file passed with --config.
//
// Every field is optional; command-line flags that are set explicitly
// override the file.
type SweepFile struct {
	// Sweep holds the request fields.
	Sweep SweepSettings `yaml:"sweep"`

	// Topologies adds or overrides pinning profiles.
	Topologies []affinity.Topology `yaml:"topologies" validate:"dive"`

	// Logging configures pkg/logging.
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry configures metric and trace output files.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SweepSettings mirrors the run flags.
type SweepSettings struct {
	Variants   []string `yaml:"variants"`
	Threads    []int    `yaml:"threads" validate:"dive,gt=0"`
	Samples    []int    `yaml:"samples" validate:"dive,gt=0"`
	Subqueues  []int    `yaml:"subqueues" validate:"dive,gt=0"`
	BatchSizes []int    `yaml:"batch_sizes" validate:"dive,gt=0"`

	// Debug is no, yes or both.
	Debug string `yaml:"debug" validate:"omitempty,oneof=no yes both"`

	BenchArgs []string `yaml:"bench_args"`
	Topology  string   `yaml:"topology"`
	Output    string   `yaml:"output"`
	WorkDir   string   `yaml:"work_dir"`
	BinDir    string   `yaml:"bin_dir"`
	BuildTool string   `yaml:"build_tool"`

	// OnFailure is abort or continue.
	OnFailure string `yaml:"on_failure" validate:"omitempty,oneof=abort continue"`
}

// LoggingConfig mirrors the global logging flags.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// TelemetryConfig names the optional output files.
type TelemetryConfig struct {
	MetricsFile string `yaml:"metrics_file"`
	TraceFile   string `yaml:"trace_file"`
}

// Request converts the settings to a sweep request. Defaults are not
// applied here so callers can still tell which fields were set.
func (s SweepSettings) Request() (sweep.Request, error) {
	req := sweep.Request{
		Variants:   s.Variants,
		Threads:    s.Threads,
		Samples:    s.Samples,
		Subqueues:  s.Subqueues,
		BatchSizes: s.BatchSizes,
		BenchArgs:  s.BenchArgs,
		Topology:   s.Topology,
		OutputRoot: s.Output,
		WorkDir:    s.WorkDir,
		BinDir:     s.BinDir,
		BuildTool:  s.BuildTool,
	}
	if s.Debug != "" {
		debug, err := sweep.ParseDebug(s.Debug)
		if err != nil {
			return sweep.Request{}, err
		}
		req.Debug = debug
	}
	policy, err := sweep.ParsePolicy(s.OnFailure)
	if err != nil {
		return sweep.Request{}, err
	}
	req.Policy = policy
	return req, nil
}

// Example returns the file written by "benchmatrix init".
func Example() SweepFile {
	return SweepFile{
		Sweep: SweepSettings{
			Variants:   []string{"DO", "FAA", "DCBO_FAA"},
			Threads:    []int{1, 2, 4, 8, 16, 32},
			Samples:    []int{sweep.DefaultSamples},
			Subqueues:  []int{sweep.DefaultSubqueues},
			BatchSizes: []int{sweep.DefaultBatchSize},
			Debug:      "no",
			Output:     "results",
			OnFailure:  string(sweep.PolicyAbort),
		},
		Topologies: []affinity.Topology{
			{Name: "workstation", Family: affinity.FamilyFlat, SiblingOffset: 8},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
