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
	"fmt"
	"strings"
)

// =============================================================================
// Parameter Kinds
// =============================================================================

// ParamKind identifies a tuning parameter that may be passed to the build.
//
// The declaration order is significant: build arguments and canonical names
// always list parameters in this order.
type ParamKind int

const (
	// ParamSamples is the number of subqueues sampled per d-CBO operation.
	ParamSamples ParamKind = iota

	// ParamSubqueues is the number of d-CBO subqueues.
	ParamSubqueues

	// ParamBatchSize is the batch size of batching variants.
	ParamBatchSize

	// ParamDebug toggles the debug build of a variant.
	ParamDebug
)

// AllParams lists every parameter kind in canonical order.
var AllParams = []ParamKind{ParamSamples, ParamSubqueues, ParamBatchSize, ParamDebug}

// String returns the make variable name of the parameter.
func (p ParamKind) String() string {
	switch p {
	case ParamSamples:
		return "N_SAMPLES"
	case ParamSubqueues:
		return "N_SUBQUEUES"
	case ParamBatchSize:
		return "BATCH_SIZE"
	case ParamDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParamSet is a small bitset of parameter kinds.
type ParamSet uint8

// NewParamSet builds a set from the given kinds.
func NewParamSet(kinds ...ParamKind) ParamSet {
	var s ParamSet
	for _, k := range kinds {
		s |= 1 << uint(k)
	}
	return s
}

// Has reports whether k is in the set.
func (s ParamSet) Has(k ParamKind) bool {
	return s&(1<<uint(k)) != 0
}

// Kinds returns the members of the set in canonical order.
func (s ParamSet) Kinds() []ParamKind {
	kinds := make([]ParamKind, 0, len(AllParams))
	for _, k := range AllParams {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// String joins the member names with commas, or returns "-" for an empty set.
func (s ParamSet) String() string {
	kinds := s.Kinds()
	if len(kinds) == 0 {
		return "-"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ",")
}

// =============================================================================
// Parameter Assignment
// =============================================================================

// Assignment is one point of the tuning-parameter sweep.
//
// Which fields actually matter depends on the variant; see Variant.Project.
type Assignment struct {
	Samples   int
	Subqueues int
	BatchSize int
	Debug     bool
}

// Projected is an Assignment restricted to the parameters a variant uses.
//
// Kinds outside Relevant must be ignored by consumers; Project zeroes them
// so that two projections compare equal exactly when they are
// behaviourally identical.
type Projected struct {
	Assignment
	Relevant ParamSet
}

// Value renders the make value of a relevant parameter.
func (p Projected) Value(k ParamKind) string {
	switch k {
	case ParamSamples:
		return fmt.Sprint(p.Samples)
	case ParamSubqueues:
		return fmt.Sprint(p.Subqueues)
	case ParamBatchSize:
		return fmt.Sprint(p.BatchSize)
	case ParamDebug:
		if p.Debug {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// =============================================================================
// Build Strategies
// =============================================================================

// BuildStrategy selects how a variant is compiled.
//
// The set is closed: every strategy has an entry in the strategies table,
// which is what makes the catalog auditable without reading function bodies.
type BuildStrategy int

const (
	StrategySequentialBFS BuildStrategy = iota
	StrategyBFS
	StrategyRelaxedBFS
	StrategyRelaxedBFSBatching
	StrategyRelaxedBFSPredeq
	StrategyRelaxedBFSDepthThresh
)

// strategySpec describes the build target of a strategy.
type strategySpec struct {
	name      string
	target    string
	withQueue bool
}

var strategies = map[BuildStrategy]strategySpec{
	StrategySequentialBFS:         {name: "sequential_bfs", target: "relax_sequential_bfs", withQueue: false},
	StrategyBFS:                   {name: "bfs", target: "bfs", withQueue: true},
	StrategyRelaxedBFS:            {name: "rbfs", target: "relax_rbfs", withQueue: true},
	StrategyRelaxedBFSBatching:    {name: "rbfs_batching", target: "relax_rbfs_batching", withQueue: true},
	StrategyRelaxedBFSPredeq:      {name: "rbfs_batching_predeq", target: "relax_rbfs_batching_predeq", withQueue: true},
	StrategyRelaxedBFSDepthThresh: {name: "rbfs_batching_predeq_depth_thresh", target: "relax_rbfs_batching_predeq_depth_thresh", withQueue: true},
}

// String returns a short name for the strategy.
func (s BuildStrategy) String() string {
	if spec, ok := strategies[s]; ok {
		return spec.name
	}
	return "unknown"
}

// Target returns the make target of the strategy.
func (s BuildStrategy) Target() string {
	return strategies[s].target
}

// Valid reports whether s has an entry in the strategy table.
func (s BuildStrategy) Valid() bool {
	_, ok := strategies[s]
	return ok
}

// =============================================================================
// Variant
// =============================================================================

// Variant is one entry of the catalog.
//
// # Description
//
// A variant is a named queue/algorithm implementation compiled into its own
// executable. Several variants share an ID (the QUEUE passed to make) but
// differ in build strategy; DisplayName is what users select and what
// canonical names start with.
type Variant struct {
	// ID is the queue name passed as QUEUE=<ID> to the build.
	ID string

	// DisplayName is unique within a registry.
	DisplayName string

	// Strategy selects the build target.
	Strategy BuildStrategy

	// Executable is the binary produced under the bin directory.
	Executable string

	// Relevant lists the parameters this variant's binary depends on.
	Relevant ParamSet
}

// Project restricts an assignment to the variant's relevant parameters.
func (v Variant) Project(a Assignment) Projected {
	p := Projected{Relevant: v.Relevant}
	if v.Relevant.Has(ParamSamples) {
		p.Samples = a.Samples
	}
	if v.Relevant.Has(ParamSubqueues) {
		p.Subqueues = a.Subqueues
	}
	if v.Relevant.Has(ParamBatchSize) {
		p.BatchSize = a.BatchSize
	}
	if v.Relevant.Has(ParamDebug) {
		p.Debug = a.Debug
	}
	return p
}

// CanonicalName derives the deduplication key and output name of a
// projected assignment: <DisplayName>[_SA<n>][_SQ<n>][_BS<n>][_debug].
func (v Variant) CanonicalName(p Projected) string {
	var b strings.Builder
	b.WriteString(v.DisplayName)
	if p.Relevant.Has(ParamSamples) {
		fmt.Fprintf(&b, "_SA%d", p.Samples)
	}
	if p.Relevant.Has(ParamSubqueues) {
		fmt.Fprintf(&b, "_SQ%d", p.Subqueues)
	}
	if p.Relevant.Has(ParamBatchSize) {
		fmt.Fprintf(&b, "_BS%d", p.BatchSize)
	}
	if p.Relevant.Has(ParamDebug) && p.Debug {
		b.WriteString("_debug")
	}
	return b.String()
}

// =============================================================================
// Commands
// =============================================================================

// Command is a structured process invocation.
//
// Arguments are never joined through a shell; String exists for logs and
// error messages only.
type Command struct {
	Name string
	Args []string
	Env  []string
}

// String renders the command the way a user would type it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Env)+1+len(c.Args))
	parts = append(parts, c.Env...)
	parts = append(parts, c.Name)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}
