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
	"github.com/spf13/cobra"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
	"github.com/jinterlante1206/benchmatrix/pkg/ux"
)

func runVariants(cmd *cobra.Command, args []string) error {
	headers := []string{"NAME", "QUEUE", "STRATEGY", "TARGET", "EXECUTABLE", "PARAMETERS"}
	var rows [][]string
	for _, v := range registry.Default().All() {
		rows = append(rows, []string{
			v.DisplayName,
			v.ID,
			v.Strategy.String(),
			v.Strategy.Target(),
			v.Executable,
			v.Relevant.String(),
		})
	}
	ux.Table(headers, rows)
	return nil
}
