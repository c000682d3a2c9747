// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/runner"
	"github.com/jinterlante1206/benchmatrix/pkg/ux"
)

// resetFlags restores every flag of cmd and its children to its default,
// since cobra commands are package globals shared across tests.
// resetFlags also clears the context cobra stored on the command during
// the previous execute, which was cancelled when execute returned.
func resetFlags(cmd *cobra.Command) {
	cmd.SetContext(nil)
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args and returns stdout, stderr
// and the exit code.
func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	resetFlags(rootCmd)
	orig := ux.GetPersonalityLevel()
	t.Cleanup(func() {
		ux.SetOutput(nil, nil)
		ux.SetPersonalityLevel(orig)
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--personality", "machine"}, args...))
	code := execute()
	return out.String(), errOut.String(), code
}

func useMock(t *testing.T, fn func(ctx context.Context, dir string, cmd registry.Command) (runner.Result, error)) *runner.MockProcessManager {
	t.Helper()
	mock := &runner.MockProcessManager{RunFunc: fn}
	prev := processManager
	processManager = mock
	t.Cleanup(func() { processManager = prev })
	return mock
}

// writeTagged simulates a benchmark writing "<tag>.out" into its work dir.
func writeTagged(ctx context.Context, dir string, cmd registry.Command) (runner.Result, error) {
	for i, arg := range cmd.Args {
		if arg == "-o" && i+1 < len(cmd.Args) {
			return runner.Result{}, os.WriteFile(filepath.Join(dir, cmd.Args[i+1]+".out"), nil, 0644)
		}
	}
	return runner.Result{}, nil
}

// =============================================================================
// variants
// =============================================================================

func TestCLI_Variants(t *testing.T) {
	out, _, code := runCLI(t, "variants")
	require.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 14, "header plus 13 variants")
	assert.Equal(t, "NAME\tQUEUE\tSTRATEGY\tTARGET\tEXECUTABLE\tPARAMETERS", lines[0])
	assert.Contains(t, out, "DCBO_FAA_BATCHING\tDCBO_FAA\trbfs_batching\trelax_rbfs_batching\trelax_rbfs_batching\tN_SAMPLES,N_SUBQUEUES,BATCH_SIZE,DEBUG\n")
	assert.Contains(t, out, "DO\tDO\tbfs\tbfs\tbfs\t-\n")
}

// =============================================================================
// plan
// =============================================================================

func TestCLI_Plan(t *testing.T) {
	mock := useMock(t, nil)
	out, _, code := runCLI(t, "plan", "-a", "FAA,DO", "-t", "1,2", "-o", "results", "-d", "both", "--", "-g", "road.gr")
	require.Equal(t, 0, code)

	assert.Contains(t, out, "Configurations:     3 of 4 combinations\n")
	assert.Contains(t, out, "RUN: make bfs QUEUE=DO\n")
	assert.Contains(t, out, "RUN: OMP_NUM_THREADS=2 ./bin/bfs -g road.gr -o DO_2\n")
	assert.Contains(t, out, "RUN: make relax_rbfs QUEUE=FAA DEBUG=TRUE\n")
	assert.Contains(t, out, "RUN: OMP_NUM_THREADS=1 ./bin/relax_rbfs -g road.gr -o FAA_debug_1\n")
	assert.Less(t, strings.Index(out, "QUEUE=DO"), strings.Index(out, "QUEUE=FAA"), "catalog order")
	assert.Contains(t, out, "Plan: 3 builds, 6 runs, nothing executed\n")
	assert.Empty(t, mock.GetCalls())
}

func TestCLI_PlanPinned(t *testing.T) {
	out, _, code := runCLI(t, "plan", "-a", "DO", "-t", "4", "-o", "r", "-p", "ithaca_ht", "--bench-args", "-g  road.gr")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "RUN: numactl --physcpubind=0,36,2,38,4,40,6,42 --localalloc ./bin/bfs -g road.gr -o DO_4\n")
}

func TestCLI_PlanRejectsStrayArgs(t *testing.T) {
	_, errOut, code := runCLI(t, "plan", "-a", "DO", "FAA", "-t", "1", "-o", "r")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "pass benchmark arguments after --", "argument errors reach the command's stderr")
	assert.Contains(t, errOut, "Exiting...")
}

func TestCLI_PlanInvalidDebug(t *testing.T) {
	_, errOut, code := runCLI(t, "plan", "-a", "DO", "-t", "1", "-o", "r", "-d", "sometimes")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "debug mode")
}

// =============================================================================
// run
// =============================================================================

func TestCLI_RunEndToEnd(t *testing.T) {
	root := t.TempDir()
	work := filepath.Join(root, "work")
	require.NoError(t, os.Mkdir(work, 0755))
	results := filepath.Join(root, "results")
	metrics := filepath.Join(root, "metrics.prom")

	mock := useMock(t, writeTagged)
	out, errOut, code := runCLI(t, "run",
		"-a", "DO,FAA", "-t", "1,2", "-o", results,
		"--work-dir", work, "--metrics-file", metrics)
	require.Equal(t, 0, code, errOut)

	assert.Len(t, mock.GetCalls(), 6)
	assert.Contains(t, out, "Benchmarking finished\n")
	assert.Contains(t, out, "Total time:         00:00:")
	assert.Contains(t, out, "Results are in "+results+"\n")
	assert.Contains(t, out, "SUMMARY: configurations=2 runs=4 failures=0\n")

	for _, f := range []string{"DO/DO_1.out", "DO/DO_2.out", "FAA/FAA_1.out", "FAA/FAA_2.out"} {
		assert.FileExists(t, filepath.Join(results, f))
	}

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `benchmatrix_runs_total{result="success",threads="2",variant="FAA"} 1`)
}

func TestCLI_RunUnknownVariant(t *testing.T) {
	mock := useMock(t, nil)
	_, errOut, code := runCLI(t, "run", "-a", "DO,WARP", "-t", "1", "-o", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "WARP")
	assert.Contains(t, errOut, "Exiting...")
	assert.Empty(t, mock.GetCalls())
}

func TestCLI_RunBuildFailureAborts(t *testing.T) {
	root := t.TempDir()
	mock := useMock(t, func(ctx context.Context, dir string, cmd registry.Command) (runner.Result, error) {
		if cmd.Name == "make" {
			return runner.Result{ExitCode: 2}, errors.New("exit status 2")
		}
		return runner.Result{}, nil
	})
	_, errOut, code := runCLI(t, "run", "-a", "DO,FAA", "-t", "1", "-o", filepath.Join(root, "r"), "--work-dir", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "build failed with return code 2: make bfs QUEUE=DO")
	assert.Len(t, mock.GetCalls(), 1)
}

func TestCLI_RunRepeatedInOneProcess(t *testing.T) {
	root := t.TempDir()
	useMock(t, nil)
	_, errOut, code := runCLI(t, "run", "-a", "DO", "-t", "1", "-o", filepath.Join(root, "first"), "--work-dir", root)
	require.Equal(t, 0, code, errOut)

	mock := useMock(t, func(ctx context.Context, dir string, cmd registry.Command) (runner.Result, error) {
		if err := ctx.Err(); err != nil {
			return runner.Result{ExitCode: -1}, err
		}
		if cmd.Name == "make" {
			return runner.Result{ExitCode: 2}, errors.New("exit status 2")
		}
		return runner.Result{}, nil
	})
	_, errOut, code = runCLI(t, "run", "-a", "DO", "-t", "1", "-o", filepath.Join(root, "second"), "--work-dir", root)
	assert.Equal(t, 1, code)
	assert.NotContains(t, errOut, "context canceled")
	assert.Contains(t, errOut, "build failed with return code 2: make bfs QUEUE=DO")
	assert.Len(t, mock.GetCalls(), 1)
}

func TestCLI_RunWithConfigFile(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "sweep.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
sweep:
  variants: [FAA]
  threads: [8]
  bench_args: ["-g", "web.gr"]
  on_failure: continue
topologies:
  - name: lab
    family: flat
    sibling_offset: 4
`), 0644))

	mock := useMock(t, nil)
	_, errOut, code := runCLI(t, "--config", cfgPath, "run",
		"-t", "2", "-p", "lab", "-o", filepath.Join(root, "r"), "--work-dir", root)
	require.Equal(t, 0, code, errOut)

	calls := mock.GetCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "numactl --physcpubind=0,1 --localalloc ./bin/relax_rbfs -g web.gr -o FAA_2", calls[1].Command.String())
}

// =============================================================================
// affinity / init
// =============================================================================

func TestCLI_Affinity(t *testing.T) {
	out, _, code := runCLI(t, "affinity", "-p", "ithaca", "-t", "4,40")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "4\t0,2,4,6\t\n")
	assert.Contains(t, out, "only 36 of 40 CPUs")
}

func TestCLI_AffinityUnknownTopology(t *testing.T) {
	_, errOut, code := runCLI(t, "affinity", "-p", "zeus", "-t", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown topology")
}

func TestCLI_Init(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	out, _, code := runCLI(t, "init", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "OK: wrote "+path)
	assert.FileExists(t, path)

	_, _, code = runCLI(t, "init", path)
	assert.Equal(t, 1, code, "refuses to overwrite")
}
