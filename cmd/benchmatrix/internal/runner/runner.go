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
Package runner executes one resolved configuration: build it, run it once
per thread count, and move its artifacts into a dedicated directory.

Everything happens on the caller's goroutine, one process at a time, so
timings of pinned runs never overlap.
*/
package runner

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/affinity"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/sweep"
	"github.com/jinterlante1206/benchmatrix/pkg/logging"
)

var tracer = otel.Tracer("benchmatrix.runner")

// Options are the sweep-wide settings every configuration shares.
type Options struct {
	// WorkDir is where builds and runs execute and artifacts appear.
	WorkDir string

	// BinDir holds the built executables, relative to WorkDir unless absolute.
	BinDir string

	// OutputRoot receives one subdirectory per configuration.
	OutputRoot string

	// Threads are run in order for every configuration.
	Threads []int

	// BenchArgs are passed to every executable before "-o <tag>".
	BenchArgs []string

	// Topology enables CPU pinning; nil runs with OMP_NUM_THREADS only.
	Topology *affinity.Topology

	// Policy decides whether failures stop the configuration.
	Policy sweep.FailurePolicy
}

// Observer is notified around every process the runner spawns.
//
// Calls happen synchronously on the runner's goroutine.
type Observer interface {
	Building(cfg sweep.ResolvedConfiguration, cmd registry.Command)
	Built(cfg sweep.ResolvedConfiguration, res Result, err error)
	Running(cfg sweep.ResolvedConfiguration, a affinity.Assignment, cmd registry.Command)
	Ran(cfg sweep.ResolvedConfiguration, a affinity.Assignment, res Result, err error)
	Relocated(cfg sweep.ResolvedConfiguration, moved []string, err error)
}

// RunRecord describes one benchmark invocation.
type RunRecord struct {
	Threads  int
	CPUs     []int
	Command  string
	ExitCode int
	Duration time.Duration
}

// Report summarises one configuration.
type Report struct {
	Configuration string
	OutputDir     string
	BuildCommand  string
	BuildExitCode int
	Runs          []RunRecord
	Moved         []string

	// Failures holds errors tolerated under the continue policy.
	Failures []error
}

// Runner executes configurations through a ProcessManager.
type Runner struct {
	pm       ProcessManager
	opts     Options
	observer Observer
	logger   *logging.Logger
}

// New creates a Runner.
//
// # Inputs
//
//   - pm: Process spawner. Use NewExecProcessManager in production.
//   - opts: Sweep-wide options. Empty WorkDir/BinDir/Policy take the sweep defaults.
//   - observer: Progress hooks. May be nil.
//   - logger: May be nil.
func New(pm ProcessManager, opts Options, observer Observer, logger *logging.Logger) *Runner {
	if opts.WorkDir == "" {
		opts.WorkDir = sweep.DefaultWorkDir
	}
	if opts.BinDir == "" {
		opts.BinDir = sweep.DefaultBinDir
	}
	if opts.Policy == "" {
		opts.Policy = sweep.PolicyAbort
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Runner{pm: pm, opts: opts, observer: observer, logger: logger}
}

// Run builds, runs and collects one configuration.
//
// # Description
//
//  1. Creates <OutputRoot>/<CanonicalName>. Failure here always aborts.
//  2. Runs the build command in WorkDir.
//  3. Runs the executable once per thread count, decorated with the
//     affinity assignment for that count and tagged "<name>_<threads>".
//  4. Moves every artifact prefixed with the canonical name into the
//     configuration directory.
//
// Under PolicyAbort the first failing step returns its error. Under
// PolicyContinue failures are appended to Report.Failures and the remaining
// steps still execute. Context cancellation always stops immediately.
//
// # Outputs
//
//   - Report: What ran, even when an error is returned.
//   - error: *CommandError, *FilesystemError or the context error.
func (r *Runner) Run(ctx context.Context, cfg sweep.ResolvedConfiguration) (Report, error) {
	dir := filepath.Join(r.opts.OutputRoot, cfg.CanonicalName)
	report := Report{
		Configuration: cfg.CanonicalName,
		OutputDir:     dir,
		BuildCommand:  cfg.Build.String(),
	}
	logger := r.logger.With("configuration", cfg.CanonicalName)

	ctx, span := tracer.Start(ctx, "runner.Configuration", trace.WithAttributes(
		attribute.String("configuration", cfg.CanonicalName),
		attribute.String("variant", cfg.Variant.DisplayName),
	))
	defer span.End()

	fail := func(err error) (Report, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(&FilesystemError{Op: "mkdir", Path: dir, Err: err})
	}

	// Build
	r.observer.Building(cfg, cfg.Build)
	res, err := r.exec(ctx, "runner.Build", cfg.Build, attribute.String("configuration", cfg.CanonicalName))
	report.BuildExitCode = res.ExitCode
	r.observer.Built(cfg, res, err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(ctxErr)
		}
		cmdErr := NewCommandError(StageBuild, cfg.CanonicalName, cfg.Build.String(), res.ExitCode, res.Stderr, err)
		if r.opts.Policy == sweep.PolicyAbort {
			return fail(cmdErr)
		}
		logger.Warn("build failed, continuing", "command", cmdErr.Command, "exit_code", cmdErr.ExitCode)
		report.Failures = append(report.Failures, cmdErr)
	}

	// Runs
	for _, threads := range r.opts.Threads {
		a := affinity.Plan(r.opts.Topology, threads)
		cmd := a.Wrap(cfg.RunCommand(r.opts.BinDir, r.opts.BenchArgs, threads))

		r.observer.Running(cfg, a, cmd)
		res, err := r.exec(ctx, "runner.Run", cmd,
			attribute.String("configuration", cfg.CanonicalName),
			attribute.Int("threads", threads),
		)
		report.Runs = append(report.Runs, RunRecord{
			Threads:  threads,
			CPUs:     a.CPUs,
			Command:  cmd.String(),
			ExitCode: res.ExitCode,
			Duration: res.Duration,
		})
		r.observer.Ran(cfg, a, res, err)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fail(ctxErr)
			}
			cmdErr := NewCommandError(StageRun, cfg.CanonicalName, cmd.String(), res.ExitCode, res.Stderr, err)
			if r.opts.Policy == sweep.PolicyAbort {
				return fail(cmdErr)
			}
			logger.Warn("run failed, continuing", "command", cmdErr.Command, "exit_code", cmdErr.ExitCode)
			report.Failures = append(report.Failures, cmdErr)
		}
	}

	// Collect
	moved, err := Relocate(r.opts.WorkDir, dir, cfg.CanonicalName)
	report.Moved = moved
	r.observer.Relocated(cfg, moved, err)
	if err != nil {
		if r.opts.Policy == sweep.PolicyAbort {
			return fail(err)
		}
		logger.Warn("relocation failed, continuing", "error", err)
		report.Failures = append(report.Failures, err)
	}
	logger.Info("configuration finished", "artifacts", len(moved), "failures", len(report.Failures))

	if len(report.Failures) > 0 {
		span.SetStatus(codes.Error, "completed with failures")
	}
	return report, nil
}

// exec runs one process inside its own span.
func (r *Runner) exec(ctx context.Context, name string, cmd registry.Command, attrs ...attribute.KeyValue) (Result, error) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
		append(attrs, attribute.String("command", cmd.String()))...,
	))
	defer span.End()

	r.logger.Debug("spawning", "command", cmd.String(), "dir", r.opts.WorkDir)
	res, err := r.pm.Run(ctx, r.opts.WorkDir, cmd)
	span.SetAttributes(attribute.Int("exit_code", res.ExitCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if len(res.Stderr) > 0 {
			r.logger.Debug("captured stderr", "command", cmd.String(), "stderr", string(res.Stderr))
		}
	}
	return res, err
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Building(sweep.ResolvedConfiguration, registry.Command) {}
func (NopObserver) Built(sweep.ResolvedConfiguration, Result, error) {}
func (NopObserver) Running(sweep.ResolvedConfiguration, affinity.Assignment, registry.Command) {}
func (NopObserver) Ran(sweep.ResolvedConfiguration, affinity.Assignment, Result, error) {}
func (NopObserver) Relocated(sweep.ResolvedConfiguration, []string, error) {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) Building(cfg sweep.ResolvedConfiguration, cmd registry.Command) {
	for _, ob := range o {
		ob.Building(cfg, cmd)
	}
}

func (o Observers) Built(cfg sweep.ResolvedConfiguration, res Result, err error) {
	for _, ob := range o {
		ob.Built(cfg, res, err)
	}
}

func (o Observers) Running(cfg sweep.ResolvedConfiguration, a affinity.Assignment, cmd registry.Command) {
	for _, ob := range o {
		ob.Running(cfg, a, cmd)
	}
}

func (o Observers) Ran(cfg sweep.ResolvedConfiguration, a affinity.Assignment, res Result, err error) {
	for _, ob := range o {
		ob.Ran(cfg, a, res, err)
	}
}

func (o Observers) Relocated(cfg sweep.ResolvedConfiguration, moved []string, err error) {
	for _, ob := range o {
		ob.Relocated(cfg, moved, err)
	}
}

var (
	_ Observer = NopObserver{}
	_ Observer = Observers(nil)
)
