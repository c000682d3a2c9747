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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/jinterlante1206/benchmatrix/cmd/benchmatrix/internal/registry"
)

// -----------------------------------------------------------------------------
// Interface Definition
// -----------------------------------------------------------------------------

// ProcessManager runs external commands to completion.
//
// All build and run invocations go through this interface so the runner can
// be tested without make or benchmark binaries.
type ProcessManager interface {
	// Run executes cmd in dir and blocks until it exits.
	//
	// # Description
	//
	// The command is spawned directly, never through a shell. cmd.Env is
	// appended to the inherited environment. Stdout and stderr are captured.
	//
	// # Outputs
	//
	//   - Result: Exit code, captured output and wall time. ExitCode is -1
	//     when the process could not be started or was killed.
	//   - error: Non-nil when the process did not exit with status 0.
	Run(ctx context.Context, dir string, cmd registry.Command) (Result, error)
}

// Result describes a finished process.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// -----------------------------------------------------------------------------
// Implementation
// -----------------------------------------------------------------------------

// ExecProcessManager implements ProcessManager using os/exec.
type ExecProcessManager struct{}

// NewExecProcessManager creates a ProcessManager that runs real processes.
func NewExecProcessManager() *ExecProcessManager {
	return &ExecProcessManager{}
}

// Run executes a command synchronously.
func (pm *ExecProcessManager) Run(ctx context.Context, dir string, c registry.Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		ExitCode: -1,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, err
		}
		return res, fmt.Errorf("start %s: %w", c.Name, err)
	}
	return res, nil
}

// -----------------------------------------------------------------------------
// Mock Implementation for Testing
// -----------------------------------------------------------------------------

// MockProcessManager is a test double for ProcessManager.
//
// RunFunc decides the outcome of each call; when nil every command succeeds
// with exit code 0. All calls are recorded.
//
// # Examples
//
//	mock := &MockProcessManager{
//	    RunFunc: func(ctx context.Context, dir string, cmd registry.Command) (Result, error) {
//	        if cmd.Name == "make" {
//	            return Result{ExitCode: 2}, errors.New("exit status 2")
//	        }
//	        return Result{}, nil
//	    },
//	}
type MockProcessManager struct {
	// RunFunc is called when Run is invoked
	RunFunc func(ctx context.Context, dir string, cmd registry.Command) (Result, error)

	// Calls records all invocations for verification
	Calls []ProcessCall

	mu sync.Mutex
}

// ProcessCall records a single invocation.
type ProcessCall struct {
	Dir     string
	Command registry.Command
}

// Run delegates to RunFunc and records the call.
func (m *MockProcessManager) Run(ctx context.Context, dir string, cmd registry.Command) (Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, ProcessCall{Dir: dir, Command: cmd})
	fn := m.RunFunc
	m.mu.Unlock()

	if fn == nil {
		return Result{}, nil
	}
	return fn(ctx, dir, cmd)
}

// GetCalls returns a copy of all recorded calls.
func (m *MockProcessManager) GetCalls() []ProcessCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]ProcessCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// Compile-time interface compliance check.
var (
	_ ProcessManager = (*ExecProcessManager)(nil)
	_ ProcessManager = (*MockProcessManager)(nil)
)
