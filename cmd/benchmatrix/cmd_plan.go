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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/affinity"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/sweep"
	"github.com/jinterlante1206/benchmatrix/pkg/ux"
)

// runPlan prints what run would execute, in order, without spawning anything.
func runPlan(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(cmd, args)
	if err != nil {
		return err
	}
	topo, err := topologyCatalog().Lookup(req.Topology)
	if err != nil {
		return err
	}
	plan, err := sweep.Expand(registry.Default(), req)
	if err != nil {
		return err
	}

	printRequest(req)
	ux.Aligned("Configurations:", fmt.Sprintf("%d of %d combinations", len(plan.Configurations), plan.Product))
	for _, cfg := range plan.Configurations {
		ux.Title(cfg.CanonicalName)
		ux.Step(cfg.Build.String())
		for _, threads := range req.Threads {
			run := affinity.Plan(topo, threads).Wrap(cfg.RunCommand(req.BinDir, req.BenchArgs, threads))
			ux.Step(run.String())
		}
	}
	ux.Box("Plan", fmt.Sprintf("%d builds, %d runs, nothing executed",
		len(plan.Configurations), len(plan.Configurations)*len(req.Threads)))
	return nil
}
