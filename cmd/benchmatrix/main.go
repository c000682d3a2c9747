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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jinterlante1206/benchmatrix/pkg/ux"
)

func main() {
	os.Exit(execute())
}

// execute runs the root command and maps failure to exit status 1.
func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Close() }()

	// Argument validators fail before PersistentPreRunE runs.
	ux.SetOutput(rootCmd.OutOrStdout(), rootCmd.ErrOrStderr())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ux.Error(err.Error())
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Exiting...")
		return 1
	}
	return 0
}
