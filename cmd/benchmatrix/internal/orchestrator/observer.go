// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"fmt"
	"strings"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/affinity"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/runner"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/sweep"
	"github.com/jinterlante1206/benchmatrix/pkg/ux"
)

// metricsObserver feeds runner events into Prometheus.
type metricsObserver struct {
	runner.NopObserver
	m *Metrics
}

func (o metricsObserver) Built(cfg sweep.ResolvedConfiguration, res runner.Result, err error) {
	variant := cfg.Variant.DisplayName
	o.m.BuildsTotal.WithLabelValues(variant, result(err != nil)).Inc()
	o.m.BuildDurationSeconds.WithLabelValues(variant).Observe(res.Duration.Seconds())
}

func (o metricsObserver) Ran(cfg sweep.ResolvedConfiguration, a affinity.Assignment, res runner.Result, err error) {
	variant := cfg.Variant.DisplayName
	threads := threadsLabel(a.Threads)
	o.m.RunsTotal.WithLabelValues(variant, threads, result(err != nil)).Inc()
	o.m.RunDurationSeconds.WithLabelValues(variant, threads).Observe(res.Duration.Seconds())
}

// progressObserver echoes every spawned command to the terminal so a
// failing sweep can be reproduced by copy and paste.
type progressObserver struct {
	runner.NopObserver
}

func (progressObserver) Building(cfg sweep.ResolvedConfiguration, cmd registry.Command) {
	ux.Title(cfg.CanonicalName)
	ux.Step(cmd.String())
}

func (progressObserver) Built(cfg sweep.ResolvedConfiguration, res runner.Result, err error) {
	if err != nil {
		ux.Warning(fmt.Sprintf("build of %s exited with %d", cfg.CanonicalName, res.ExitCode))
	}
}

func (progressObserver) Running(cfg sweep.ResolvedConfiguration, a affinity.Assignment, cmd registry.Command) {
	ux.Step(cmd.String())
}

func (progressObserver) Ran(cfg sweep.ResolvedConfiguration, a affinity.Assignment, res runner.Result, err error) {
	if err != nil {
		ux.Warning(fmt.Sprintf("%s exited with %d", cfg.OutputTag(a.Threads), res.ExitCode))
	}
}

func (progressObserver) Relocated(cfg sweep.ResolvedConfiguration, moved []string, err error) {
	if err == nil && len(moved) > 0 {
		ux.Success(fmt.Sprintf("%s: %s", cfg.CanonicalName, strings.Join(moved, " ")))
	}
}
