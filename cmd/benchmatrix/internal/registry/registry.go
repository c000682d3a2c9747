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
Package registry holds the static catalog of benchmark variants.

Each variant maps a user-facing display name to the queue id and build
strategy used to compile it, the executable the build produces, and the
tuning parameters the binary actually depends on. Parameters outside that
set are dropped from build commands and canonical names, which is what lets
the sweep planner collapse behaviourally identical configurations.

The registry is read-only after construction and safe for concurrent use.
*/
package registry

import (
	"fmt"

	"github.com/jinterlante1206/benchmatrix/pkg/validation"
)

// DefaultBuildTool is used when a request does not name one.
const DefaultBuildTool = "make"

// Registry is an immutable, ordered variant catalog.
type Registry struct {
	variants []Variant
	byName   map[string]int
}

// New builds a registry from the given variants.
//
// # Description
//
// Validates that every display name is unique and safe as a directory name, that every
// variant names an executable, and that every build strategy exists in the
// strategy table. Catalog order is preserved and is the order in which
// Resolve returns variants.
//
// # Outputs
//
//   - *Registry: The catalog.
//   - error: ErrDuplicateVariant or ErrInvalidVariant on a bad entry.
func New(variants ...Variant) (*Registry, error) {
	r := &Registry{
		variants: make([]Variant, 0, len(variants)),
		byName:   make(map[string]int, len(variants)),
	}
	for _, v := range variants {
		if v.DisplayName == "" || v.ID == "" {
			return nil, fmt.Errorf("%w: empty name in %+v", ErrInvalidVariant, v)
		}
		if err := validation.ValidateNames("variant", []string{v.DisplayName, v.ID}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVariant, err)
		}
		if v.Executable == "" {
			return nil, fmt.Errorf("%w: %s has no executable", ErrInvalidVariant, v.DisplayName)
		}
		if !v.Strategy.Valid() {
			return nil, fmt.Errorf("%w: %s has build strategy %d", ErrInvalidVariant, v.DisplayName, int(v.Strategy))
		}
		if _, dup := r.byName[v.DisplayName]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVariant, v.DisplayName)
		}
		r.byName[v.DisplayName] = len(r.variants)
		r.variants = append(r.variants, v)
	}
	return r, nil
}

// MustNew is New for catalogs known at compile time.
func MustNew(variants ...Variant) *Registry {
	r, err := New(variants...)
	if err != nil {
		panic(err)
	}
	return r
}

var (
	dcbo     = NewParamSet(ParamDebug, ParamSamples, ParamSubqueues)
	batching = NewParamSet(ParamDebug, ParamSamples, ParamSubqueues, ParamBatchSize)
	debug    = NewParamSet(ParamDebug)
)

// Default returns the built-in BFS queue catalog.
func Default() *Registry {
	return MustNew(
		Variant{ID: "Sequential", DisplayName: "Sequential", Strategy: StrategySequentialBFS, Executable: "relax_sequential_bfs", Relevant: debug},
		Variant{ID: "DO", DisplayName: "DO", Strategy: StrategyBFS, Executable: "bfs"},
		Variant{ID: "MS", DisplayName: "MS", Strategy: StrategyRelaxedBFS, Executable: "relax_rbfs", Relevant: debug},
		Variant{ID: "FAA", DisplayName: "FAA", Strategy: StrategyRelaxedBFS, Executable: "relax_rbfs", Relevant: debug},
		Variant{ID: "FAA_INT", DisplayName: "FAA_INT", Strategy: StrategyRelaxedBFS, Executable: "relax_rbfs", Relevant: debug},
		Variant{ID: "DCBO_MS", DisplayName: "DCBO_MS", Strategy: StrategyRelaxedBFS, Executable: "relax_rbfs", Relevant: dcbo},
		Variant{ID: "DCBO_MS", DisplayName: "DCBO_MS_BATCHING", Strategy: StrategyRelaxedBFSBatching, Executable: "relax_rbfs_batching", Relevant: batching},
		Variant{ID: "DCBO_FAA", DisplayName: "DCBO_FAA", Strategy: StrategyRelaxedBFS, Executable: "relax_rbfs", Relevant: dcbo},
		Variant{ID: "DCBO_FAA", DisplayName: "DCBO_FAA_BATCHING", Strategy: StrategyRelaxedBFSBatching, Executable: "relax_rbfs_batching", Relevant: batching},
		Variant{ID: "DCBO_FAA", DisplayName: "DCBO_FAA_PREDEQ", Strategy: StrategyRelaxedBFSPredeq, Executable: "relax_rbfs_batching_predeq", Relevant: batching},
		Variant{ID: "DCBO_FAA", DisplayName: "DCBO_FAA_DEPTH_THRESH", Strategy: StrategyRelaxedBFSDepthThresh, Executable: "relax_rbfs_batching_predeq_depth_thresh", Relevant: batching},
		Variant{ID: "DCBO_FAA_INT", DisplayName: "DCBO_FAA_INT", Strategy: StrategyRelaxedBFS, Executable: "relax_rbfs", Relevant: dcbo},
		Variant{ID: "FAA_BATCHING", DisplayName: "FAA_BATCHING", Strategy: StrategyRelaxedBFSBatching, Executable: "relax_rbfs_batching", Relevant: NewParamSet(ParamDebug, ParamBatchSize)},
	)
}

// Lookup returns the variant with the given display name.
func (r *Registry) Lookup(displayName string) (Variant, error) {
	i, ok := r.byName[displayName]
	if !ok {
		return Variant{}, &UnknownVariantError{Name: displayName, Known: r.Names()}
	}
	return r.variants[i], nil
}

// Resolve looks up every name and returns the variants in catalog order.
//
// # Description
//
// Fails on the first unknown name, before any caller side effect happens.
// Duplicated names are collapsed. The result follows catalog order rather
// than argument order so that a sweep over {FAA, DO} and {DO, FAA} runs
// identically.
func (r *Registry) Resolve(names []string) ([]Variant, error) {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := r.Lookup(name); err != nil {
			return nil, err
		}
		want[name] = true
	}
	out := make([]Variant, 0, len(want))
	for _, v := range r.variants {
		if want[v.DisplayName] {
			out = append(out, v)
		}
	}
	return out, nil
}

// All returns a copy of the catalog in order.
func (r *Registry) All() []Variant {
	out := make([]Variant, len(r.variants))
	copy(out, r.variants)
	return out
}

// Names returns the display names in catalog order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.variants))
	for i, v := range r.variants {
		names[i] = v.DisplayName
	}
	return names
}

// BuildCommand renders the build invocation for a variant and assignment.
//
// # Description
//
// Produces `<tool> <target> [QUEUE=<id>] [PARAM=value]...`. Only parameters
// in the variant's relevant set are emitted, in canonical order; anything
// else in the assignment is silently ignored.
//
// # Inputs
//
//   - tool: Build tool executable. Empty means DefaultBuildTool.
//   - v: The variant to build.
//   - a: The full parameter assignment.
//
// # Examples
//
//	cmd := registry.BuildCommand("make", faaBatching, registry.Assignment{BatchSize: 16})
//	// make relax_rbfs_batching QUEUE=FAA_BATCHING BATCH_SIZE=16 DEBUG=FALSE
func BuildCommand(tool string, v Variant, a Assignment) Command {
	if tool == "" {
		tool = DefaultBuildTool
	}
	p := v.Project(a)
	spec := strategies[v.Strategy]

	args := []string{spec.target}
	if spec.withQueue {
		args = append(args, "QUEUE="+v.ID)
	}
	for _, k := range p.Relevant.Kinds() {
		args = append(args, k.String()+"="+p.Value(k))
	}
	return Command{Name: tool, Args: args}
}
