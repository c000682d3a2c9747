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
Package sweep expands a Request into the list of distinct configurations
to build and run.

Expansion walks the Cartesian product variants x samples x subqueues x
batch sizes x debug, in that nesting order. Each point is projected onto
the parameters its variant uses; points that project to an already seen
canonical name are dropped. The dedup set is part of the returned Plan, not
package state, so Expand is a pure function of its inputs.
*/
package sweep

import (
	"fmt"
	"path/filepath"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
)

// ResolvedConfiguration is one distinct build of one variant.
type ResolvedConfiguration struct {
	// CanonicalName is the dedup key and output name prefix.
	CanonicalName string

	// Variant is the catalog entry being built.
	Variant registry.Variant

	// Params holds only the parameters relevant to Variant.
	Params registry.Projected

	// Build is the build invocation.
	Build registry.Command

	// Executable is the binary the build produces.
	Executable string
}

// OutputTag is the -o value passed to the run with the given thread count.
func (c ResolvedConfiguration) OutputTag(threads int) string {
	return fmt.Sprintf("%s_%d", c.CanonicalName, threads)
}

// RunCommand is the undecorated run invocation for a thread count.
//
// The executable path is made explicitly relative ("./bin/x") so it is
// resolved against the working directory instead of PATH.
func (c ResolvedConfiguration) RunCommand(binDir string, benchArgs []string, threads int) registry.Command {
	exe := filepath.Join(binDir, c.Executable)
	if !filepath.IsAbs(exe) {
		exe = "." + string(filepath.Separator) + exe
	}
	args := make([]string, 0, len(benchArgs)+2)
	args = append(args, benchArgs...)
	args = append(args, "-o", c.OutputTag(threads))
	return registry.Command{Name: exe, Args: args}
}

// Plan is the result of expanding a request.
type Plan struct {
	// Configurations are the surviving configurations in emission order.
	Configurations []ResolvedConfiguration

	// Seen maps every emitted canonical name to its index in Configurations.
	Seen map[string]int

	// Product is the size of the Cartesian product before deduplication.
	Product int
}

// Names returns the canonical names in emission order.
func (p Plan) Names() []string {
	names := make([]string, len(p.Configurations))
	for i, c := range p.Configurations {
		names[i] = c.CanonicalName
	}
	return names
}

// Expand resolves a request into deduplicated configurations.
//
// # Description
//
// Applies defaults, validates the request, resolves the variants against
// reg (failing before anything else on an unknown name) and walks the
// product. Only the first occurrence of each canonical name survives.
//
// # Inputs
//
//   - reg: Variant catalog.
//   - req: The sweep request.
//
// # Outputs
//
//   - Plan: Configurations plus the dedup accumulator.
//   - error: ErrInvalidRequest or registry.ErrUnknownVariant.
func Expand(reg *registry.Registry, req Request) (Plan, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return Plan{}, err
	}
	variants, err := reg.Resolve(req.Variants)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		Seen:    make(map[string]int),
		Product: len(variants) * len(req.Samples) * len(req.Subqueues) * len(req.BatchSizes) * len(req.Debug),
	}

	for _, v := range variants {
		for _, samples := range req.Samples {
			for _, subqueues := range req.Subqueues {
				for _, batch := range req.BatchSizes {
					for _, debug := range req.Debug {
						a := registry.Assignment{Samples: samples, Subqueues: subqueues, BatchSize: batch, Debug: debug}
						p := v.Project(a)
						name := v.CanonicalName(p)
						if _, dup := plan.Seen[name]; dup {
							continue
						}
						plan.Seen[name] = len(plan.Configurations)
						plan.Configurations = append(plan.Configurations, ResolvedConfiguration{
							CanonicalName: name,
							Variant:       v,
							Params:        p,
							Build:         registry.BuildCommand(req.BuildTool, v, a),
							Executable:    v.Executable,
						})
					}
				}
			}
		}
	}
	return plan, nil
}
