// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Catalog Tests
// =============================================================================

func TestDefault_DisplayNamesUnique(t *testing.T) {
	r := Default()
	seen := make(map[string]bool)
	for _, name := range r.Names() {
		assert.False(t, seen[name], "duplicate display name %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, 13)
}

func TestNew_RejectsDuplicate(t *testing.T) {
	v := Variant{ID: "DO", DisplayName: "DO", Strategy: StrategyBFS, Executable: "bfs"}
	_, err := New(v, v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateVariant))
}

func TestNew_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		v    Variant
	}{
		{"empty display name", Variant{ID: "X", Strategy: StrategyBFS, Executable: "bfs"}},
		{"empty id", Variant{DisplayName: "X", Strategy: StrategyBFS, Executable: "bfs"}},
		{"no executable", Variant{ID: "X", DisplayName: "X", Strategy: StrategyBFS}},
		{"unknown strategy", Variant{ID: "X", DisplayName: "X", Strategy: BuildStrategy(42), Executable: "x"}},
		{"unsafe display name", Variant{ID: "X", DisplayName: "../X", Strategy: StrategyBFS, Executable: "bfs"}},
		{"unsafe id", Variant{ID: "X Y", DisplayName: "X", Strategy: StrategyBFS, Executable: "bfs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.v)
			assert.ErrorIs(t, err, ErrInvalidVariant)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Default().Lookup("NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownVariant)

	var uv *UnknownVariantError
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, "NOPE", uv.Name)
	assert.Contains(t, err.Error(), "DCBO_FAA")
}

func TestResolve_CatalogOrder(t *testing.T) {
	got, err := Default().Resolve([]string{"FAA", "DO", "FAA"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "DO", got[0].DisplayName)
	assert.Equal(t, "FAA", got[1].DisplayName)
}

func TestResolve_FailsOnAnyUnknown(t *testing.T) {
	_, err := Default().Resolve([]string{"DO", "BOGUS"})
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

// =============================================================================
// Naming and Build Command Tests
// =============================================================================

func TestCanonicalName(t *testing.T) {
	r := Default()
	a := Assignment{Samples: 2, Subqueues: 64, BatchSize: 16}

	tests := []struct {
		variant string
		debug   bool
		want    string
	}{
		{"DCBO_FAA_BATCHING", false, "DCBO_FAA_BATCHING_SA2_SQ64_BS16"},
		{"DCBO_FAA_BATCHING", true, "DCBO_FAA_BATCHING_SA2_SQ64_BS16_debug"},
		{"DCBO_FAA", false, "DCBO_FAA_SA2_SQ64"},
		{"FAA_BATCHING", true, "FAA_BATCHING_BS16_debug"},
		{"FAA", true, "FAA_debug"},
		{"DO", true, "DO"},
		{"Sequential", false, "Sequential"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			v, err := r.Lookup(tt.variant)
			require.NoError(t, err)
			a := a
			a.Debug = tt.debug
			assert.Equal(t, tt.want, v.CanonicalName(v.Project(a)))
		})
	}
}

func TestProject_IrrelevantParamsCollapse(t *testing.T) {
	v, err := Default().Lookup("FAA")
	require.NoError(t, err)

	p1 := v.Project(Assignment{Samples: 2, Subqueues: 64, BatchSize: 16})
	p2 := v.Project(Assignment{Samples: 8, Subqueues: 128, BatchSize: 32})
	assert.Equal(t, p1, p2)
}

func TestBuildCommand(t *testing.T) {
	r := Default()
	a := Assignment{Samples: 2, Subqueues: 64, BatchSize: 16, Debug: true}

	tests := []struct {
		variant string
		want    []string
	}{
		{"DO", []string{"bfs", "QUEUE=DO"}},
		{"Sequential", []string{"relax_sequential_bfs", "DEBUG=TRUE"}},
		{"FAA", []string{"relax_rbfs", "QUEUE=FAA", "DEBUG=TRUE"}},
		{"DCBO_MS", []string{"relax_rbfs", "QUEUE=DCBO_MS", "N_SAMPLES=2", "N_SUBQUEUES=64", "DEBUG=TRUE"}},
		{"DCBO_FAA_DEPTH_THRESH", []string{"relax_rbfs_batching_predeq_depth_thresh", "QUEUE=DCBO_FAA", "N_SAMPLES=2", "N_SUBQUEUES=64", "BATCH_SIZE=16", "DEBUG=TRUE"}},
		{"FAA_BATCHING", []string{"relax_rbfs_batching", "QUEUE=FAA_BATCHING", "BATCH_SIZE=16", "DEBUG=TRUE"}},
	}
	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			v, err := r.Lookup(tt.variant)
			require.NoError(t, err)
			cmd := BuildCommand("", v, a)
			assert.Equal(t, "make", cmd.Name)
			assert.Equal(t, tt.want, cmd.Args)
		})
	}
}

func TestCommand_String(t *testing.T) {
	cmd := Command{Name: "./bin/bfs", Args: []string{"-g", "20"}, Env: []string{"OMP_NUM_THREADS=4"}}
	assert.Equal(t, "OMP_NUM_THREADS=4 ./bin/bfs -g 20", cmd.String())
}

func TestParamSet(t *testing.T) {
	s := NewParamSet(ParamDebug, ParamSamples)
	assert.True(t, s.Has(ParamSamples))
	assert.False(t, s.Has(ParamBatchSize))
	assert.Equal(t, []ParamKind{ParamSamples, ParamDebug}, s.Kinds())
	assert.Equal(t, "N_SAMPLES,DEBUG", s.String())
	assert.Equal(t, "-", ParamSet(0).String())
}
