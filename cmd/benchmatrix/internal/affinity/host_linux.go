// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Unavailable returns the CPUs in cpus that the current process may not run on.
//
// # Description
//
// Reads the scheduler affinity mask of the calling process. A planned CPU
// outside the mask usually means the topology profile does not match the
// machine; numactl would reject the run.
//
// # Outputs
//
//   - []int: CPUs missing from the mask, in input order. Nil if all are usable.
//   - error: Non-nil if the mask cannot be read.
func Unavailable(cpus []int) ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("sched_getaffinity: %w", err)
	}
	var missing []int
	for _, cpu := range cpus {
		if !set.IsSet(cpu) {
			missing = append(missing, cpu)
		}
	}
	return missing, nil
}
