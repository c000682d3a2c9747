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

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/config"
	"github.com/jinterlante1206/benchmatrix/pkg/ux"
)

const defaultSweepFile = "sweep.yaml"

func runInit(cmd *cobra.Command, args []string) error {
	path := defaultSweepFile
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.WriteExample(path); err != nil {
		return err
	}
	ux.Success("wrote " + path)
	return nil
}
