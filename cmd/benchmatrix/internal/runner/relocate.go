// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Relocate moves artifacts of one configuration into its output directory.
//
// # Description
//
// Every regular file directly inside workDir that belongs to the
// configuration named prefix is moved into destDir. A file belongs to it
// when its name is prefix itself, or prefix followed by "_<digit>" or ".",
// which is how output tags "<name>_<threads>" surface on disk. The extra
// character keeps FAA from claiming FAA_INT's files. Directories are never moved, so an output root
// inside workDir cannot be swallowed by its own prefix. Existing files in
// destDir are not overwritten: results of an earlier sweep stay intact and
// the move fails instead.
//
// # Inputs
//
//   - workDir: Directory the benchmark wrote its artifacts to.
//   - destDir: Per-configuration output directory. Must exist.
//   - prefix: Canonical configuration name.
//
// # Outputs
//
//   - []string: Names of the files moved, in directory order.
//   - error: *FilesystemError on the first failing move.
func Relocate(workDir, destDir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, &FilesystemError{Op: "move", Path: workDir, Err: err}
	}

	var moved []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !belongsTo(entry.Name(), prefix) {
			continue
		}
		src := filepath.Join(workDir, entry.Name())
		dst := filepath.Join(destDir, entry.Name())

		if _, err := os.Lstat(dst); err == nil {
			return moved, &FilesystemError{Op: "move", Path: dst, Err: fs.ErrExist}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return moved, &FilesystemError{Op: "move", Path: dst, Err: err}
		}

		if err := moveFile(src, dst); err != nil {
			return moved, &FilesystemError{Op: "move", Path: src, Err: err}
		}
		moved = append(moved, entry.Name())
	}
	return moved, nil
}

func belongsTo(name, prefix string) bool {
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return false
	}
	if rest == "" || rest[0] == '.' {
		return true
	}
	return len(rest) >= 2 && rest[0] == '_' && rest[1] >= '0' && rest[1] <= '9'
}

// moveFile renames src to dst, copying across filesystems when needed.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
