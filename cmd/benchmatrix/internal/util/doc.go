// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package util provides leaf helpers for the benchmatrix CLI: the sweep
// lock that keeps two sweeps out of one output root, and elapsed-time
// formatting for the end-of-sweep summary.
//
// # Thread Safety
//
// [FileLock] is NOT safe for concurrent use. [FormatElapsed] is a pure
// function.
package util
