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
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/affinity"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/orchestrator"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/runner"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/sweep"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/telemetry"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/util"
	"github.com/jinterlante1206/benchmatrix/pkg/ux"
)

// processManager is swapped for a mock in tests.
var processManager runner.ProcessManager = runner.NewExecProcessManager()

// buildRequest merges the sweep file with explicitly set flags.
func buildRequest(cmd *cobra.Command, args []string) (sweep.Request, error) {
	req, err := sweepFile.Sweep.Request()
	if err != nil {
		return sweep.Request{}, err
	}
	f := cmd.Flags()

	if f.Changed("algorithms") {
		req.Variants = reqFlags.variants
	}
	if f.Changed("threads") {
		req.Threads = reqFlags.threads
	}
	if f.Changed("output") {
		req.OutputRoot = reqFlags.output
	}
	if f.Changed("samples") {
		req.Samples = reqFlags.samples
	}
	if f.Changed("subqueues") {
		req.Subqueues = reqFlags.subqueues
	}
	if f.Changed("batch-sizes") {
		req.BatchSizes = reqFlags.batchSizes
	}
	if f.Changed("debug") || req.Debug == nil {
		debug, err := sweep.ParseDebug(reqFlags.debug)
		if err != nil {
			return sweep.Request{}, err
		}
		req.Debug = debug
	}
	if f.Changed("pinning") {
		req.Topology = reqFlags.topology
	}
	if f.Changed("on-failure") {
		policy, err := sweep.ParsePolicy(reqFlags.onFailure)
		if err != nil {
			return sweep.Request{}, err
		}
		req.Policy = policy
	}
	if f.Changed("work-dir") {
		req.WorkDir = reqFlags.workDir
	}
	if f.Changed("bin-dir") {
		req.BinDir = reqFlags.binDir
	}
	if f.Changed("build-tool") {
		req.BuildTool = reqFlags.buildTool
	}

	if f.Changed("bench-args") {
		req.BenchArgs = strings.Fields(reqFlags.benchArgs)
	}
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		req.BenchArgs = append(slices.Clone(req.BenchArgs), args[dash:]...)
	}
	return req.WithDefaults(), nil
}

func topologyCatalog() *affinity.Catalog {
	return affinity.NewCatalog(sweepFile.Topologies...)
}

func runSweep(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(cmd, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	traces := traceFile
	if traces == "" {
		traces = sweepFile.Telemetry.TraceFile
	}
	tcfg := telemetry.DefaultConfig()
	tcfg.TraceFile = traces
	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	o := orchestrator.New(orchestrator.Config{
		Registry:       registry.Default(),
		Topologies:     topologyCatalog(),
		ProcessManager: processManager,
		Logger:         logger,
		Metrics:        orchestrator.NewMetrics(promRegistry),
		Progress:       true,
	})

	printRequest(req)
	warnUnavailableCPUs(req)

	summary, runErr := o.Run(ctx, req)

	metrics := metricsFile
	if metrics == "" {
		metrics = sweepFile.Telemetry.MetricsFile
	}
	if metrics != "" {
		if err := telemetry.WriteMetrics(metrics, promRegistry); err != nil {
			logger.Warn("metrics not written", "path", metrics, "error", err)
		}
	}

	if runErr != nil {
		ux.Aligned("Total time:", util.FormatElapsed(summary.Elapsed))
		return runErr
	}
	orchestrator.Report(summary)
	return nil
}

func printRequest(req sweep.Request) {
	topology := req.Topology
	if topology == "" {
		topology = "none (" + affinity.ThreadsEnv + ")"
	}
	ux.Aligned("Variants:", strings.Join(req.Variants, " "))
	ux.Aligned("Threads:", joinInts(req.Threads))
	ux.Aligned("Pinning:", topology)
	ux.Aligned("Output root:", req.OutputRoot)
	ux.Aligned("On failure:", string(req.Policy))
}

// warnUnavailableCPUs checks the largest pinned assignment against the
// CPUs this process may run on.
func warnUnavailableCPUs(req sweep.Request) {
	topo, err := topologyCatalog().Lookup(req.Topology)
	if err != nil || topo == nil || len(req.Threads) == 0 {
		return
	}
	a := affinity.Plan(topo, slices.Max(req.Threads))
	missing, err := affinity.Unavailable(a.CPUs)
	if err != nil {
		logger.Debug("cpu affinity check skipped", "error", err)
		return
	}
	if len(missing) > 0 {
		ux.Warning(fmt.Sprintf("topology %s pins CPUs this host does not offer: %s",
			topo.Name, joinInts(missing)))
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, " ")
}
