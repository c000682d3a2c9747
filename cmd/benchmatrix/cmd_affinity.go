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
	"slices"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/affinity"
	"github.com/jinterlante1206/benchmatrix/pkg/ux"
)

func runAffinity(cmd *cobra.Command, args []string) error {
	topo, err := topologyCatalog().Lookup(affinityTopology)
	if err != nil {
		return err
	}
	for _, t := range affinityThreads {
		if t <= 0 {
			return fmt.Errorf("thread counts must be positive, got %d", t)
		}
	}

	ux.Aligned("Topology:", topo.String())
	var rows [][]string
	for _, t := range affinityThreads {
		a := affinity.Plan(topo, t)
		want := t
		if topo.Hyperthreading {
			want *= 2
		}
		note := ""
		if len(a.CPUs) < want {
			note = fmt.Sprintf("only %d of %d CPUs", len(a.CPUs), want)
		}
		rows = append(rows, []string{fmt.Sprint(t), a.CPUList(), note})
	}
	ux.Table([]string{"THREADS", "CPUS", "NOTE"}, rows)

	if len(affinityThreads) > 0 {
		a := affinity.Plan(topo, slices.Max(affinityThreads))
		if missing, err := affinity.Unavailable(a.CPUs); err == nil && len(missing) > 0 {
			ux.Warning(fmt.Sprintf("this host does not offer CPUs %s", joinInts(missing)))
		}
	}
	return nil
}
