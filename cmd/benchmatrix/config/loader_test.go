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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/affinity"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/sweep"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

// TestLoad_Full verifies every section is parsed.
func TestLoad_Full(t *testing.T) {
	path := writeFile(t, `
sweep:
  variants: [DO, DCBO_FAA]
  threads: [1, 2, 4]
  samples: [2, 4]
  debug: both
  bench_args: ["-g", "graphs/road.gr"]
  topology: lab
  output: results
  on_failure: continue
topologies:
  - name: lab
    family: linear-socket
    cores_per_socket: 8
    sibling_offset: 16
    hyperthreading: true
logging:
  level: debug
  json: true
telemetry:
  metrics_file: out/sweep.prom
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(cfg.Topologies) != 1 || cfg.Topologies[0].CoresPerSocket != 8 {
		t.Errorf("topologies = %+v", cfg.Topologies)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Telemetry.MetricsFile != "out/sweep.prom" {
		t.Errorf("metrics file = %q", cfg.Telemetry.MetricsFile)
	}

	req, err := cfg.Sweep.Request()
	if err != nil {
		t.Fatalf("Request() failed: %v", err)
	}
	if req.Policy != sweep.PolicyContinue {
		t.Errorf("policy = %q", req.Policy)
	}
	if len(req.Debug) != 2 || req.Debug[0] || !req.Debug[1] {
		t.Errorf("debug = %v, want [false true]", req.Debug)
	}
	if req.OutputRoot != "results" || req.Topology != "lab" {
		t.Errorf("request = %+v", req)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeFile(t, "sweep:\n  thread: [1]\n")
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative threads", "sweep:\n  threads: [0]\n"},
		{"bad debug", "sweep:\n  debug: maybe\n"},
		{"bad policy", "sweep:\n  on_failure: retry\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"bad family", "topologies:\n  - name: x\n    family: ring\n"},
		{"linear without cores", "topologies:\n  - name: x\n    family: linear-socket\n"},
		{"sibling overlaps cores", "topologies:\n  - {name: x, family: linear-socket, cores_per_socket: 4, sibling_offset: 1, hyperthreading: true}\n"},
		{"flat ht without offset", "topologies:\n  - {name: x, family: flat, hyperthreading: true}\n"},
		{"unsafe topology name", "topologies:\n  - {name: a/b, family: flat}\n"},
		{"duplicate topology", "topologies:\n  - {name: x, family: flat}\n  - {name: x, family: flat}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoad_EmptyFileIsEmptyConfig(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	if err != nil {
		t.Fatalf("Load() of empty file failed: %v", err)
	}
	if len(cfg.Sweep.Variants) != 0 || len(cfg.Topologies) != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

// TestWriteExample verifies the example round-trips through Load.
func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sweep.yaml")
	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample() failed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of example failed: %v", err)
	}
	if len(cfg.Sweep.Variants) != 3 {
		t.Errorf("variants = %v", cfg.Sweep.Variants)
	}
	if cfg.Topologies[0].Family != affinity.FamilyFlat {
		t.Errorf("family = %q", cfg.Topologies[0].Family)
	}

	if err := WriteExample(path); err == nil {
		t.Error("WriteExample should refuse to overwrite")
	}
}

func TestSweepSettings_RequestDefaultsUnset(t *testing.T) {
	req, err := SweepSettings{}.Request()
	if err != nil {
		t.Fatal(err)
	}
	if req.Debug != nil {
		t.Errorf("debug should stay unset, got %v", req.Debug)
	}
	if req.Policy != sweep.PolicyAbort {
		t.Errorf("policy = %q, want abort", req.Policy)
	}
}
