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
	"strings"
	"unicode/utf8"
)

// Sentinel errors of the runner's failure taxonomy.
var (
	// ErrBuildFailed matches any build command that exited non-zero.
	ErrBuildFailed = errors.New("build failed")

	// ErrRunFailed matches any benchmark run that exited non-zero.
	ErrRunFailed = errors.New("run failed")

	// ErrFilesystem matches directory creation and artifact relocation failures.
	ErrFilesystem = errors.New("filesystem failure")
)

// Stage identifies which step of a configuration failed.
type Stage string

const (
	StageBuild Stage = "build"
	StageRun   Stage = "run"
)

// maxStderr bounds how much captured stderr an error carries.
const maxStderr = 2048

// CommandError wraps a build or run failure with the literal command line.
//
// # Description
//
// Carries everything needed to reproduce the failure by hand: the stage,
// the command as it would be typed, the exit code and the tail of stderr.
// errors.Is matches ErrBuildFailed or ErrRunFailed depending on Stage.
//
// # Example
//
//	var cmdErr *CommandError
//	if errors.As(err, &cmdErr) {
//	    fmt.Println(cmdErr.Command, cmdErr.ExitCode)
//	}
type CommandError struct {
	// Stage is build or run.
	Stage Stage

	// Configuration is the canonical name being processed.
	Configuration string

	// Command is the failing command line.
	Command string

	// ExitCode is the process exit code (-1 if unknown).
	ExitCode int

	// Stderr is the trimmed tail of standard error.
	Stderr string

	// Wrapped is the underlying error.
	Wrapped error
}

// Error returns a formatted error message.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s failed with return code %d: %s", e.Stage, e.ExitCode, e.Command)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Wrapped
}

// Is matches the stage sentinel.
func (e *CommandError) Is(target error) bool {
	switch target {
	case ErrBuildFailed:
		return e.Stage == StageBuild
	case ErrRunFailed:
		return e.Stage == StageRun
	}
	return false
}

// NewCommandError creates a CommandError, trimming stderr to its tail.
func NewCommandError(stage Stage, configuration, command string, exitCode int, stderr []byte, wrapped error) *CommandError {
	s := strings.TrimSpace(string(stderr))
	if len(s) > maxStderr {
		cut := len(s) - maxStderr
		for cut < len(s) && !utf8.RuneStart(s[cut]) {
			cut++
		}
		s = "..." + s[cut:]
	}
	return &CommandError{
		Stage:         stage,
		Configuration: configuration,
		Command:       command,
		ExitCode:      exitCode,
		Stderr:        s,
		Wrapped:       wrapped,
	}
}

// FilesystemError wraps a directory or relocation failure.
type FilesystemError struct {
	// Op is "mkdir" or "move".
	Op string

	// Path is the file or directory involved.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", ErrFilesystem, e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Is matches ErrFilesystem.
func (e *FilesystemError) Is(target error) bool {
	return target == ErrFilesystem
}
