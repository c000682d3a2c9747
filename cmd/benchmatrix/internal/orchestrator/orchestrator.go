// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package orchestrator drives a whole sweep: expand the request, take the
output-root lock, run every configuration in order and report.

	o := orchestrator.New(orchestrator.Config{
	    Registry:       registry.Default(),
	    Topologies:     affinity.NewCatalog(),
	    ProcessManager: runner.NewExecProcessManager(),
	    Logger:         logger,
	})
	summary, err := o.Run(ctx, req)
*/
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/affinity"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/runner"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/sweep"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/util"
	"github.com/jinterlante1206/benchmatrix/pkg/logging"
	"github.com/jinterlante1206/benchmatrix/pkg/ux"
)

var tracer = otel.Tracer("benchmatrix.orchestrator")

// Config wires an Orchestrator. Zero fields take defaults.
type Config struct {
	// Registry is the variant catalog. Default: registry.Default().
	Registry *registry.Registry

	// Topologies resolves Request.Topology. Default: built-in profiles.
	Topologies *affinity.Catalog

	// ProcessManager spawns builds and runs. Default: real processes.
	ProcessManager runner.ProcessManager

	// Logger receives structured records. Default: discard.
	Logger *logging.Logger

	// Metrics is registered on a fresh registry when nil.
	Metrics *Metrics

	// Progress prints each command and result to the terminal.
	Progress bool

	// Observers receive runner events after the built-in ones.
	Observers []runner.Observer

	// Now is the clock. Default: time.Now.
	Now func() time.Time
}

// Summary describes a finished (or aborted) sweep.
type Summary struct {
	SweepID    string
	OutputRoot string

	// Planned is the number of distinct configurations expanded.
	Planned int

	// Reports holds one entry per configuration that was started.
	Reports []runner.Report

	// Failures collects errors tolerated under the continue policy.
	Failures []error

	Elapsed time.Duration
}

// Runs counts benchmark invocations across all reports.
func (s Summary) Runs() int {
	n := 0
	for _, r := range s.Reports {
		n += len(r.Runs)
	}
	return n
}

// Orchestrator runs sweeps.
type Orchestrator struct {
	reg       *registry.Registry
	topos     *affinity.Catalog
	pm        runner.ProcessManager
	logger    *logging.Logger
	metrics   *Metrics
	progress  bool
	observers []runner.Observer
	now       func() time.Time
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		reg:       cfg.Registry,
		topos:     cfg.Topologies,
		pm:        cfg.ProcessManager,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		progress:  cfg.Progress,
		observers: cfg.Observers,
		now:       cfg.Now,
	}
	if o.reg == nil {
		o.reg = registry.Default()
	}
	if o.topos == nil {
		o.topos = affinity.NewCatalog()
	}
	if o.pm == nil {
		o.pm = runner.NewExecProcessManager()
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(prometheus.NewRegistry())
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Metrics returns the instruments this orchestrator records into.
func (o *Orchestrator) Metrics() *Metrics {
	return o.metrics
}

// Plan expands req and resolves its topology without running anything.
//
// # Outputs
//
//   - sweep.Plan: The deduplicated configurations.
//   - *affinity.Topology: Nil when pinning is disabled.
//   - error: Request, variant or topology errors.
func (o *Orchestrator) Plan(req sweep.Request) (sweep.Plan, *affinity.Topology, error) {
	req = req.WithDefaults()
	topo, err := o.topos.Lookup(req.Topology)
	if err != nil {
		return sweep.Plan{}, nil, err
	}
	plan, err := sweep.Expand(o.reg, req)
	if err != nil {
		return sweep.Plan{}, nil, err
	}
	return plan, topo, nil
}

// Run executes a sweep.
//
// # Description
//
// Everything that can be rejected up front is rejected before any process
// is spawned: request validation, unknown variants and unknown topologies.
// Then the output root is locked and configurations run one at a time in
// plan order. Under the abort policy the first failure ends the sweep and
// is returned; under continue every failure is collected in the Summary
// and the sweep completes. Cancelling ctx kills the in-flight process and
// returns the context error.
//
// # Outputs
//
//   - Summary: Populated even when an error is returned.
//   - error: The first fatal error, or nil.
func (o *Orchestrator) Run(ctx context.Context, req sweep.Request) (summary Summary, err error) {
	req = req.WithDefaults()
	summary = Summary{
		SweepID:    uuid.NewString(),
		OutputRoot: req.OutputRoot,
	}
	logger := o.logger.With("sweep_id", summary.SweepID)

	plan, topo, err := o.Plan(req)
	if err != nil {
		return summary, err
	}
	summary.Planned = len(plan.Configurations)
	o.metrics.ConfigurationsPlanned.Set(float64(summary.Planned))

	lock := util.NewFileLock(req.OutputRoot)
	if err := lock.Acquire(); err != nil {
		return summary, fmt.Errorf("lock %s: %w", req.OutputRoot, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release sweep lock", "path", lock.Path(), "error", err)
		}
	}()

	ctx, span := tracer.Start(ctx, "orchestrator.Sweep", trace.WithAttributes(
		attribute.String("sweep_id", summary.SweepID),
		attribute.StringSlice("variants", req.Variants),
		attribute.Int("configurations", summary.Planned),
		attribute.String("policy", string(req.Policy)),
	))
	defer span.End()

	logger.Info("sweep started",
		"configurations", summary.Planned,
		"product", plan.Product,
		"threads", req.Threads,
		"topology", req.Topology,
		"policy", string(req.Policy),
	)

	observers := runner.Observers{metricsObserver{m: o.metrics}}
	if o.progress {
		observers = append(observers, progressObserver{})
	}
	observers = append(observers, o.observers...)

	r := runner.New(o.pm, runner.Options{
		WorkDir:    req.WorkDir,
		BinDir:     req.BinDir,
		OutputRoot: req.OutputRoot,
		Threads:    req.Threads,
		BenchArgs:  req.BenchArgs,
		Topology:   topo,
		Policy:     req.Policy,
	}, observers, logger)

	start := o.now()
	defer func() {
		summary.Elapsed = o.now().Sub(start)
		o.metrics.SweepDurationSeconds.Set(summary.Elapsed.Seconds())
	}()

	for _, cfg := range plan.Configurations {
		report, err := r.Run(ctx, cfg)
		summary.Reports = append(summary.Reports, report)
		summary.Failures = append(summary.Failures, report.Failures...)

		failed := err != nil || len(report.Failures) > 0
		o.metrics.ConfigurationsTotal.WithLabelValues(cfg.Variant.DisplayName, result(failed)).Inc()

		if err != nil {
			logger.Error("sweep aborted", "configuration", cfg.CanonicalName, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return summary, err
		}
	}

	if len(summary.Failures) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d failures", len(summary.Failures)))
	}
	logger.Info("sweep finished", "runs", summary.Runs(), "failures", len(summary.Failures))
	return summary, nil
}

// Report prints the end-of-sweep lines.
func Report(s Summary) {
	ux.Info("Benchmarking finished")
	ux.Aligned("Total time:", util.FormatElapsed(s.Elapsed))
	ux.Summary(len(s.Reports), s.Runs(), len(s.Failures))
	for _, f := range s.Failures {
		ux.Warning(f.Error())
	}
	ux.Info("Results are in " + s.OutputRoot)
}
