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
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "benchmatrix"

// Result label values.
const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics holds the Prometheus instruments of one sweep.
//
// # Description
//
// Registered on a caller-supplied registry rather than the global one, so
// each sweep (and each test) starts from zero. The CLI writes the registry
// to a textfile when the sweep ends.
//
// # Thread Safety
//
// All operations are thread-safe via Prometheus's internal locking.
type Metrics struct {
	// ConfigurationsPlanned is the number of distinct configurations expanded.
	ConfigurationsPlanned prometheus.Gauge

	// ConfigurationsTotal counts finished configurations.
	// Labels: variant, result (success, failure)
	ConfigurationsTotal *prometheus.CounterVec

	// BuildsTotal counts build invocations.
	// Labels: variant, result
	BuildsTotal *prometheus.CounterVec

	// RunsTotal counts benchmark invocations.
	// Labels: variant, threads, result
	RunsTotal *prometheus.CounterVec

	// RunDurationSeconds measures benchmark wall time.
	// Labels: variant, threads
	RunDurationSeconds *prometheus.HistogramVec

	// BuildDurationSeconds measures build wall time.
	// Labels: variant
	BuildDurationSeconds *prometheus.HistogramVec

	// SweepDurationSeconds is the wall time of the whole sweep.
	SweepDurationSeconds prometheus.Gauge
}

// NewMetrics creates and registers the sweep metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConfigurationsPlanned: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "configurations_planned",
			Help:      "Distinct configurations produced by sweep expansion",
		}),
		ConfigurationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "configurations_total",
			Help:      "Finished configurations by variant and result",
		}, []string{"variant", "result"}),
		BuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "builds_total",
			Help:      "Build invocations by variant and result",
		}, []string{"variant", "result"}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Benchmark invocations by variant, thread count and result",
		}, []string{"variant", "threads", "result"}),
		RunDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Benchmark wall time in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"variant", "threads"}),
		BuildDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "build_duration_seconds",
			Help:      "Build wall time in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"variant"}),
		SweepDurationSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of the whole sweep in seconds",
		}),
	}
}

func result(failed bool) string {
	if failed {
		return resultFailure
	}
	return resultSuccess
}

func threadsLabel(threads int) string {
	return strconv.Itoa(threads)
}
